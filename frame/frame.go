// Package frame holds property snapshots: ordered maps from CSS property
// names to values, with merge, CSS serialization and interpolation.
package frame

import "strings"

// Prop is a single name/value pair used to build frames in order.
type Prop struct {
	Name  string
	Value Value
}

// P creates a Prop, converting v with From.
func P(name string, v interface{}) Prop {
	return Prop{Name: name, Value: From(v)}
}

// Frame represents the value of every property at one instant.
// Property names are unique and kept in insertion order.
type Frame struct {
	names  []string
	values map[string]Value
}

// New creates an empty Frame, optionally filled with props.
func New(props ...Prop) *Frame {
	f := new(Frame)
	f.values = make(map[string]Value, len(props))
	for _, p := range props {
		f.Set(p.Name, p.Value)
	}
	return f
}

// Set stores a property. An existing property keeps its position.
func (f *Frame) Set(name string, v Value) *Frame {
	if f.values == nil {
		f.values = make(map[string]Value)
	}
	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}
	f.values[name] = v
	return f
}

// Get returns the value of a property.
func (f *Frame) Get(name string) (Value, bool) {
	if f == nil {
		return Value{}, false
	}
	v, ok := f.values[name]
	return v, ok
}

// Has reports whether a property is present.
func (f *Frame) Has(name string) bool {
	_, ok := f.Get(name)
	return ok
}

// Names returns property names in insertion order.
func (f *Frame) Names() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Len returns the number of properties.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.names)
}

// Merge copies every property of other into f, last writer wins.
func (f *Frame) Merge(other *Frame) *Frame {
	if other == nil {
		return f
	}
	for _, name := range other.names {
		f.Set(name, other.values[name])
	}
	return f
}

// Clone returns an independent copy of f.
func (f *Frame) Clone() *Frame {
	out := New()
	return out.Merge(f)
}

// CSSText renders "name: value;" pairs in insertion order. Properties with
// no CSS form are skipped.
func (f *Frame) CSSText() string {
	if f == nil {
		return ""
	}
	parts := make([]string, 0, len(f.names))
	for _, name := range f.names {
		text, ok := f.values[name].CSS()
		if !ok {
			continue
		}
		parts = append(parts, name+": "+text+";")
	}
	return strings.Join(parts, " ")
}

// Equal reports whether both frames hold the same properties in the same
// order with equal values. A nil frame equals an empty one.
func (f *Frame) Equal(other *Frame) bool {
	if f.Len() != other.Len() {
		return false
	}
	if f.Len() == 0 {
		return true
	}
	for i, name := range f.names {
		if other.names[i] != name || !f.values[name].Equal(other.values[name]) {
			return false
		}
	}
	return true
}

func (f *Frame) String() string {
	return f.CSSText()
}
