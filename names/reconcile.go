// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package names

import (
	"fmt"
	"strings"

	"github.com/gogpu/shaderconv/layout"
)

// Binding is the reconciliation input for one root declaration.
type Binding struct {
	// Root is the compiled identifier of the root as reported by reflection.
	Root string

	// Expected is the flattened declaration of the root.
	Expected []layout.FlattenedEntry

	// Render turns a leaf path into its original name.
	// Nil means QualifiedPath.String.
	Render func(layout.QualifiedPath) string
}

// Reconcile pairs the i-th reflected name with the i-th expected entry.
//
// If the counts differ, the returned map holds every reflected name
// unmapped and the error is a *ReflectionMismatchError.
func Reconcile(expected []layout.FlattenedEntry, reflected []string) (*NameMap, error) {
	return ReconcileWith(expected, reflected, nil)
}

// ReconcileWith is Reconcile with a custom original-name renderer.
func ReconcileWith(expected []layout.FlattenedEntry, reflected []string, render func(layout.QualifiedPath) string) (*NameMap, error) {
	if render == nil {
		render = layout.QualifiedPath.String
	}
	checkUnique(expected)

	b := newBuilder(len(reflected))
	if len(expected) != len(reflected) {
		for _, name := range reflected {
			b.add(name, "")
		}
		return b.build(), &ReflectionMismatchError{
			Root:     rootOf(expected, reflected),
			Expected: len(expected),
			Got:      len(reflected),
		}
	}
	for i, e := range expected {
		b.add(reflected[i], render(e.Path))
	}
	return b.build(), nil
}

// ReconcileAll reconciles every binding against one reflected name list.
//
// Reflected names are grouped by the longest matching binding root. A
// binding whose group size differs from its expectation contributes its
// names unmapped and a *ReflectionMismatchError; other bindings are not
// affected. Names that belong to no binding are kept unmapped. The result
// follows the order of reflected.
func ReconcileAll(bindings []Binding, reflected []string) (*NameMap, []error) {
	roots := make([]string, len(bindings))
	for i, bnd := range bindings {
		roots[i] = bnd.Root
	}
	groups, _ := GroupByRoot(roots, reflected)

	var errs []error
	parts := make([]*NameMap, 0, len(bindings))
	claimed := make(map[string]struct{}, len(bindings))
	for _, bnd := range bindings {
		if _, dup := claimed[bnd.Root]; dup {
			errs = append(errs, fmt.Errorf("names: root %q claimed by more than one declaration", bnd.Root))
			continue
		}
		claimed[bnd.Root] = struct{}{}

		m, err := ReconcileWith(bnd.Expected, groups[bnd.Root], bnd.Render)
		if err != nil {
			errs = append(errs, err)
		}
		parts = append(parts, m)
	}

	merged := Merge(parts...)
	b := newBuilder(len(reflected))
	for _, name := range reflected {
		f, _ := merged.Friendly(name)
		b.add(name, f)
	}
	return b.build(), errs
}

// GroupByRoot assigns each name to the longest root it starts with.
//
// A root matches a name equal to it or followed by '.' or '['. Names that
// match no root are returned as orphans. Order is preserved within groups.
func GroupByRoot(roots, names []string) (groups map[string][]string, orphans []string) {
	groups = make(map[string][]string, len(roots))
	for _, name := range names {
		best := ""
		for _, root := range roots {
			if len(root) > len(best) && hasRoot(name, root) {
				best = root
			}
		}
		if best == "" {
			orphans = append(orphans, name)
			continue
		}
		groups[best] = append(groups[best], name)
	}
	return groups, orphans
}

func hasRoot(name, root string) bool {
	if root == "" || !strings.HasPrefix(name, root) {
		return false
	}
	if len(name) == len(root) {
		return true
	}
	c := name[len(root)]
	return c == '.' || c == '['
}

func rootOf(expected []layout.FlattenedEntry, reflected []string) string {
	if len(expected) > 0 {
		return expected[0].Path.Root
	}
	if len(reflected) > 0 {
		return reflected[0]
	}
	return ""
}

func checkUnique(expected []layout.FlattenedEntry) {
	seen := make(map[string]struct{}, len(expected))
	for _, e := range expected {
		key := e.Path.String()
		if _, dup := seen[key]; dup {
			panic(fmt.Sprintf("names: duplicate expected path %q", key))
		}
		seen[key] = struct{}{}
	}
}
