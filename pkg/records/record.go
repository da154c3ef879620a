package records

import (
	"bytes"
	"encoding/json"
)

// Record is one generated variant: an ordered mapping from attribute name to
// text value. Keys keep the order in which they were first set. A Record is
// immutable once built; use a Builder to construct one.
type Record struct {
	keys []string
	vals map[string]string
}

// Get returns the value for key.
func (r Record) Get(key string) (string, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Value returns the value for key, or "" when absent.
func (r Record) Value(key string) string { return r.vals[key] }

// Len returns the number of attributes.
func (r Record) Len() int { return len(r.keys) }

// Keys returns the attribute names in insertion order.
func (r Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Map returns a copy of the attributes as a plain map.
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r.vals))
	for k, v := range r.vals {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the record as a JSON object with keys in insertion
// order. HTML characters are not escaped and non-ASCII text is emitted as-is.
func (r Record) MarshalJSON() ([]byte, error) {
	return r.marshalOrdered(r.keys)
}

// MarshalOrderedJSON encodes the attributes present in r following the
// given column order. Columns r does not carry are skipped.
func (r Record) MarshalOrderedJSON(columns []string) ([]byte, error) {
	return r.marshalOrdered(columns)
}

func (r Record) marshalOrdered(columns []string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	out := bytes.NewBuffer(make([]byte, 0, 32*len(columns)))
	out.WriteByte('{')
	first := true
	for _, k := range columns {
		v, ok := r.vals[k]
		if !ok {
			continue
		}
		if !first {
			out.WriteByte(',')
		}
		first = false

		buf.Reset()
		if err := enc.Encode(k); err != nil {
			return nil, err
		}
		out.Write(bytes.TrimRight(buf.Bytes(), "\n"))
		out.WriteByte(':')

		buf.Reset()
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		out.Write(bytes.TrimRight(buf.Bytes(), "\n"))
	}
	out.WriteByte('}')
	return out.Bytes(), nil
}

// Builder assembles a Record. Setting an existing key overwrites its value
// and keeps its position. A Builder is not safe for concurrent use.
type Builder struct {
	keys []string
	vals map[string]string
}

// NewBuilder returns a Builder sized for about n attributes.
func NewBuilder(n int) *Builder {
	return &Builder{
		keys: make([]string, 0, n),
		vals: make(map[string]string, n),
	}
}

// Set assigns value to key.
func (b *Builder) Set(key, value string) *Builder {
	if b.vals == nil {
		b.vals = map[string]string{}
	}
	if _, ok := b.vals[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.vals[key] = value
	return b
}

// Merge sets every attribute of r in r's key order.
func (b *Builder) Merge(r Record) *Builder {
	for _, k := range r.keys {
		b.Set(k, r.vals[k])
	}
	return b
}

// Len returns the number of attributes set so far.
func (b *Builder) Len() int { return len(b.keys) }

// Build returns the assembled Record and resets the builder, so the returned
// record is never shared with later builds.
func (b *Builder) Build() Record {
	r := Record{keys: b.keys, vals: b.vals}
	if r.vals == nil {
		r.vals = map[string]string{}
	}
	b.keys, b.vals = nil, nil
	return r
}

// FromPairs builds a Record from alternating key, value arguments. It is a
// convenience for tests and fixtures; a trailing odd argument is ignored.
func FromPairs(kv ...string) Record {
	b := NewBuilder(len(kv) / 2)
	for i := 0; i+1 < len(kv); i += 2 {
		b.Set(kv[i], kv[i+1])
	}
	return b.Build()
}
