package source

import (
	"bytes"
	"iter"
	"strconv"

	json "github.com/goccy/go-json"
)

// ValueKind is the observed kind of a JSON value.
type ValueKind string

const (
	KindNull   ValueKind = "null"
	KindBool   ValueKind = "bool"
	KindInt    ValueKind = "int"
	KindFloat  ValueKind = "float"
	KindString ValueKind = "string"
	KindList   ValueKind = "list"
	KindObject ValueKind = "object"
)

// OrderedMap is a decoded JSON object that keeps member order.
type OrderedMap struct {
	values map[string]any
	keys   []string
}

// NewOrderedMap returns an empty map with room for n members.
func NewOrderedMap(n int) *OrderedMap {
	return &OrderedMap{values: make(map[string]any, n), keys: make([]string, 0, n)}
}

// Set stores v under k. A repeated key keeps its first position and takes
// the last value.
func (m *OrderedMap) Set(k string, v any) {
	if _, ok := m.values[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.values[k] = v
}

func (m *OrderedMap) Get(k string) (any, bool) {
	v, ok := m.values[k]
	return v, ok
}

func (m *OrderedMap) Keys() []string { return m.keys }
func (m *OrderedMap) Len() int       { return len(m.keys) }

// All iterates members in document order.
func (m *OrderedMap) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// ToMap returns a plain map copy (order is lost).
func (m *OrderedMap) ToMap() map[string]any {
	out := make(map[string]any, len(m.keys))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// JSONKind reports "object" for error messages.
func (m *OrderedMap) JSONKind() string { return string(KindObject) }

// MarshalJSON writes members in document order.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		b.Write(kb)
		b.WriteByte(':')
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// Sequence is a lazily decoded collection. Elements are decoded while
// iterating; decode failures stop the iteration and are reported by Err.
// Keys are int indexes for lists and string member names for maps.
type Sequence struct {
	each  func(yield func(key, value any) bool) error
	err   error
	keyed bool
}

// NewSequence builds a sequence over each. keyed marks map-shaped input.
func NewSequence(keyed bool, each func(yield func(key, value any) bool) error) *Sequence {
	return &Sequence{each: each, keyed: keyed}
}

// All returns the element iterator. Every call restarts decoding from the
// underlying stream.
func (s *Sequence) All() iter.Seq2[any, any] {
	return func(yield func(any, any) bool) {
		s.err = s.each(yield)
	}
}

// Err returns the error that ended the last iteration, if any.
func (s *Sequence) Err() error { return s.err }

// Keyed reports whether the sequence was decoded from a JSON object.
func (s *Sequence) Keyed() bool { return s.keyed }

// Values drains the sequence into a slice.
func (s *Sequence) Values() ([]any, error) {
	out := []any{}
	for _, v := range s.All() {
		out = append(out, v)
	}
	if s.err != nil {
		return nil, s.err
	}
	return out, nil
}

// Map drains the sequence into an ordered map; list indexes become keys.
func (s *Sequence) Map() (*OrderedMap, error) {
	out := NewOrderedMap(0)
	for k, v := range s.All() {
		switch kk := k.(type) {
		case string:
			out.Set(kk, v)
		case int:
			out.Set(strconv.Itoa(kk), v)
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return out, nil
}

// JSONKind reports "iterable" for error messages.
func (s *Sequence) JSONKind() string { return "iterable" }

// MarshalJSON drains the sequence.
func (s *Sequence) MarshalJSON() ([]byte, error) {
	if s.keyed {
		m, err := s.Map()
		if err != nil {
			return nil, err
		}
		return m.MarshalJSON()
	}
	vals, err := s.Values()
	if err != nil {
		return nil, err
	}
	return json.Marshal(vals)
}
