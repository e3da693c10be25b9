package mcp

import (
	"bytes"
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Fields is an insertion-ordered map of raw JSON values. The zero value is
// an empty map ready to use.
type Fields struct {
	m *orderedmap.OrderedMap[string, json.RawMessage]
}

// Set stores raw under key, replacing any previous value in place. Valid
// JSON is stored compacted.
func (f *Fields) Set(key string, raw json.RawMessage) {
	if f.m == nil {
		f.m = orderedmap.New[string, json.RawMessage]()
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err == nil {
		raw = buf.Bytes()
	}
	f.m.Set(key, raw)
}

// Get returns the raw value stored under key.
func (f Fields) Get(key string) (json.RawMessage, bool) {
	if f.m == nil {
		return nil, false
	}
	return f.m.Get(key)
}

// Delete removes key.
func (f *Fields) Delete(key string) {
	if f.m != nil {
		f.m.Delete(key)
	}
}

// Len returns the number of entries.
func (f Fields) Len() int {
	if f.m == nil {
		return 0
	}
	return f.m.Len()
}

// Keys returns the keys in insertion order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, f.Len())
	f.Each(func(k string, _ json.RawMessage) {
		keys = append(keys, k)
	})
	return keys
}

// Each calls fn for every entry in insertion order.
func (f Fields) Each(fn func(key string, raw json.RawMessage)) {
	if f.m == nil {
		return
	}
	for pair := f.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Clone returns an independent copy.
func (f Fields) Clone() Fields {
	var out Fields
	f.Each(func(k string, raw json.RawMessage) {
		out.Set(k, append(json.RawMessage(nil), raw...))
	})
	return out
}

// Equal reports whether both maps hold the same keys with equivalent JSON
// values. Key order is ignored.
func (f Fields) Equal(o Fields) bool {
	if f.Len() != o.Len() {
		return false
	}
	equal := true
	f.Each(func(k string, raw json.RawMessage) {
		other, ok := o.Get(k)
		if !ok || !jsonEqual(raw, other) {
			equal = false
		}
	})
	return equal
}

func jsonEqual(a, b json.RawMessage) bool {
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
