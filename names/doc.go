// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package names reconciles compiler-generated identifiers with the names
// declared in the original shader source.
//
// The target compiler reports the flattened leaves of every uniform under
// its own identifiers. [Reconcile] pairs those identifiers positionally with
// the leaves produced by layout.Flatten for the same declaration, and
// [ReconcileAll] first groups reflected names by their root identifier so a
// count mismatch in one root leaves all other roots mapped.
//
// [CanonicalAttributeName] derives stage-independent names for vertex
// outputs and fragment inputs so separately compiled stages can be linked
// by name.
//
// The result of every operation is a [NameMap]: an immutable bidirectional
// map that also keeps compiled names for which no original name is known.
package names
