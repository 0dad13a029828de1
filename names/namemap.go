// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package names

// Mapping pairs a compiled identifier with its original name.
// Friendly is empty for unmapped identifiers.
type Mapping struct {
	Compiled string `json:"compiled" yaml:"compiled" msgpack:"compiled"`
	Friendly string `json:"friendly,omitempty" yaml:"friendly,omitempty" msgpack:"friendly,omitempty"`
}

// NameMap is an immutable bidirectional mapping between compiled
// identifiers and original names.
//
// Every compiled identifier is kept in insertion order, including those
// with no original counterpart. Both directions are duplicate-free, so
// lookups over the mapped subset round-trip.
//
// A nil *NameMap behaves as an empty map.
type NameMap struct {
	order    []string
	friendly map[string]string
	compiled map[string]string
}

// NewNameMap builds a map from mappings in order.
// A compiled name seen twice keeps its first mapping; a friendly name
// claimed twice leaves the later compiled name unmapped.
func NewNameMap(mappings ...Mapping) *NameMap {
	b := newBuilder(len(mappings))
	for _, m := range mappings {
		b.add(m.Compiled, m.Friendly)
	}
	return b.build()
}

// Friendly returns the original name for a compiled identifier.
// ok is false when the identifier is unknown or unmapped.
func (m *NameMap) Friendly(compiled string) (string, bool) {
	if m == nil {
		return "", false
	}
	f, ok := m.friendly[compiled]
	return f, ok && f != ""
}

// Compiled returns the compiled identifier for an original name.
func (m *NameMap) Compiled(friendly string) (string, bool) {
	if m == nil || friendly == "" {
		return "", false
	}
	c, ok := m.compiled[friendly]
	return c, ok
}

// Has reports whether compiled is present, mapped or not.
func (m *NameMap) Has(compiled string) bool {
	if m == nil {
		return false
	}
	_, ok := m.friendly[compiled]
	return ok
}

// Len returns the number of compiled identifiers.
func (m *NameMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Mapped returns the number of compiled identifiers with an original name.
func (m *NameMap) Mapped() int {
	if m == nil {
		return 0
	}
	return len(m.compiled)
}

// Unmapped returns compiled identifiers without an original name, in order.
func (m *NameMap) Unmapped() []string {
	if m == nil {
		return nil
	}
	var out []string
	for _, c := range m.order {
		if m.friendly[c] == "" {
			out = append(out, c)
		}
	}
	return out
}

// Entries returns all mappings in insertion order.
func (m *NameMap) Entries() []Mapping {
	if m == nil {
		return nil
	}
	out := make([]Mapping, len(m.order))
	for i, c := range m.order {
		out[i] = Mapping{Compiled: c, Friendly: m.friendly[c]}
	}
	return out
}

// Equal reports whether m and o hold the same entries in the same order.
func (m *NameMap) Equal(o *NameMap) bool {
	a, b := m.Entries(), o.Entries()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Merge combines maps in order into a new map with NewNameMap semantics.
func Merge(maps ...*NameMap) *NameMap {
	n := 0
	for _, m := range maps {
		n += m.Len()
	}
	b := newBuilder(n)
	for _, m := range maps {
		for _, e := range m.Entries() {
			b.add(e.Compiled, e.Friendly)
		}
	}
	return b.build()
}

// builder accumulates entries; the built map is never mutated again.
type builder struct {
	m *NameMap
}

func newBuilder(n int) *builder {
	return &builder{m: &NameMap{
		order:    make([]string, 0, n),
		friendly: make(map[string]string, n),
		compiled: make(map[string]string, n),
	}}
}

// add records compiled -> friendly and reports whether a mapping was made.
func (b *builder) add(compiled, friendly string) bool {
	if compiled == "" {
		return false
	}
	if _, seen := b.m.friendly[compiled]; seen {
		return false
	}
	b.m.order = append(b.m.order, compiled)
	if friendly == "" {
		b.m.friendly[compiled] = ""
		return false
	}
	if _, taken := b.m.compiled[friendly]; taken {
		b.m.friendly[compiled] = ""
		return false
	}
	b.m.friendly[compiled] = friendly
	b.m.compiled[friendly] = compiled
	return true
}

func (b *builder) build() *NameMap {
	m := b.m
	b.m = nil
	return m
}
