package document

// Mapping is an insertion-ordered string-keyed map of Values.
//
// Set mutates the receiver and exists for building new mappings. A mapping
// reachable from a Value that has been handed to other code must not be
// modified; use Clone first.
type Mapping struct {
	keys []string
	vals map[string]Value
}

// NewMapping returns an empty mapping with room for n entries.
func NewMapping(n int) *Mapping {
	return &Mapping{
		keys: make([]string, 0, n),
		vals: make(map[string]Value, n),
	}
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	cp := make([]string, len(m.keys))
	copy(cp, m.keys)
	return cp
}

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Mapping) Range(fn func(key string, val Value) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.vals[k]) {
			return
		}
	}
}

// Set stores val under key. A new key is appended; an existing key keeps
// its position.
func (m *Mapping) Set(key string, val Value) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = val
}

// Clone returns a shallow copy.
func (m *Mapping) Clone() *Mapping {
	out := NewMapping(m.Len())
	m.Range(func(k string, v Value) bool {
		out.Set(k, v)
		return true
	})
	return out
}

// Without returns a shallow copy with keys removed.
func (m *Mapping) Without(keys ...string) *Mapping {
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	out := NewMapping(m.Len())
	m.Range(func(k string, v Value) bool {
		if _, skip := drop[k]; !skip {
			out.Set(k, v)
		}
		return true
	})
	return out
}
