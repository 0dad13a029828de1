// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package names

import "strings"

// MatchRoot finds the compiled identifier the target compiler most likely
// emitted for an original root name.
//
// Backends rename identifiers in two ways: reserved words get an underscore
// prefix ("input" -> "_input") and clashes get a numeric suffix
// ("color" -> "color_1"). Candidates are tried in that order of confidence:
// exact, escaped, suffixed, escaped and suffixed.
func MatchRoot(original string, compiled []string) (string, bool) {
	if original == "" {
		return "", false
	}
	escaped := "_" + original
	for _, accept := range []func(string) bool{
		func(c string) bool { return c == original },
		func(c string) bool { return c == escaped },
		func(c string) bool { return hasNumericSuffix(c, original) },
		func(c string) bool { return hasNumericSuffix(c, escaped) },
	} {
		for _, c := range compiled {
			if accept(c) {
				return c, true
			}
		}
	}
	return "", false
}

// hasNumericSuffix reports whether c is base followed by "_" and digits.
func hasNumericSuffix(c, base string) bool {
	rest, ok := strings.CutPrefix(c, base+"_")
	if !ok || rest == "" {
		return false
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return false
		}
	}
	return true
}
