package query

// Values is an ordered multi-map of decoded keys to decoded values.
//
// A key is present only when it holds at least one value. Values for a key
// keep the order in which they occurred in the raw string, and keys keep the
// order in which they were first seen. Key order is informational only.
//
// The zero value is an empty, ready to use Values.
type Values struct {
	keys []string
	m    map[string][]string
}

// NewValues returns an empty Values.
func NewValues() *Values {
	return &Values{m: make(map[string][]string)}
}

// Add appends value to the list for key.
func (v *Values) Add(key, value string) {
	if v.m == nil {
		v.m = make(map[string][]string)
	}
	if _, ok := v.m[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.m[key] = append(v.m[key], value)
}

// Get returns the values for key, or nil when the key is absent.
// The returned slice must not be modified.
func (v *Values) Get(key string) []string {
	if v == nil {
		return nil
	}
	return v.m[key]
}

// First returns the first value for key.
func (v *Values) First(key string) (string, bool) {
	vals := v.Get(key)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// Has reports whether key is present.
func (v *Values) Has(key string) bool {
	return len(v.Get(key)) > 0
}

// Len returns the number of distinct keys.
func (v *Values) Len() int {
	if v == nil {
		return 0
	}
	return len(v.keys)
}

// Keys returns the keys in first-seen order.
func (v *Values) Keys() []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v.keys))
	copy(out, v.keys)
	return out
}

// Collapse returns a map holding only the first value of every key.
// It never returns nil.
func (v *Values) Collapse() map[string]string {
	out := make(map[string]string, v.Len())
	if v == nil {
		return out
	}
	for _, k := range v.keys {
		out[k] = v.m[k][0]
	}
	return out
}

// Map returns a copy of the multi-map as a plain map. It never returns nil.
func (v *Values) Map() map[string][]string {
	out := make(map[string][]string, v.Len())
	if v == nil {
		return out
	}
	for _, k := range v.keys {
		vals := make([]string, len(v.m[k]))
		copy(vals, v.m[k])
		out[k] = vals
	}
	return out
}
