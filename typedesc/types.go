package typedesc

import "strings"

// Kind identifies a descriptor variant.
type Kind int

const (
	KindScalar Kind = iota
	KindNullable
	KindUnion
	KindCollection
	KindEnum
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindNullable:
		return "nullable"
	case KindUnion:
		return "union"
	case KindCollection:
		return "collection"
	case KindEnum:
		return "enum"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// Type is the language-agnostic description of a decode target. String
// returns the canonical key, which identifies the shape for provider
// de-duplication and parses back with Parse.
type Type interface {
	Kind() Kind
	String() string
}

// ScalarKind names a native JSON scalar.
type ScalarKind string

const (
	ScalarInt    ScalarKind = "int"
	ScalarFloat  ScalarKind = "float"
	ScalarString ScalarKind = "string"
	ScalarBool   ScalarKind = "bool"
	ScalarNull   ScalarKind = "null"
	// ScalarMixed accepts any JSON value and yields it in native form.
	ScalarMixed ScalarKind = "mixed"
)

// Valid reports whether k is one of the known scalar kinds.
func (k ScalarKind) Valid() bool {
	switch k {
	case ScalarInt, ScalarFloat, ScalarString, ScalarBool, ScalarNull, ScalarMixed:
		return true
	}
	return false
}

// Scalar is a native value decoded without conversion.
type Scalar struct{ Of ScalarKind }

func (Scalar) Kind() Kind       { return KindScalar }
func (s Scalar) String() string { return string(s.Of) }

func Int() Type    { return Scalar{Of: ScalarInt} }
func Float() Type  { return Scalar{Of: ScalarFloat} }
func String() Type { return Scalar{Of: ScalarString} }
func Bool() Type   { return Scalar{Of: ScalarBool} }
func Null() Type   { return Scalar{Of: ScalarNull} }
func Mixed() Type  { return Scalar{Of: ScalarMixed} }

// Nullable accepts null or Inner.
type Nullable struct{ Inner Type }

func (Nullable) Kind() Kind { return KindNullable }

func (n Nullable) String() string {
	if n.Inner.Kind() == KindUnion {
		return "?(" + n.Inner.String() + ")"
	}
	return "?" + n.Inner.String()
}

// NullableOf wraps t. Nullable of nullable, null or mixed collapses to t.
func NullableOf(t Type) Type {
	switch v := t.(type) {
	case Nullable:
		return v
	case Scalar:
		if v.Of == ScalarNull || v.Of == ScalarMixed {
			return v
		}
	}
	return Nullable{Inner: t}
}

// Union is an ordered, de-duplicated set of member shapes. Build it with
// UnionOf so the invariants hold.
type Union struct{ Members []Type }

func (Union) Kind() Kind { return KindUnion }

func (u Union) String() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, "|")
}

// UnionOf flattens nested unions, unfolds Nullable(x) into x|null and drops
// members whose canonical key was already seen. The first occurrence keeps
// its position. A single remaining member is returned as is.
func UnionOf(members ...Type) Type {
	seen := make(map[string]struct{}, len(members))
	var out []Type
	var add func(t Type)
	add = func(t Type) {
		switch v := t.(type) {
		case Union:
			for _, m := range v.Members {
				add(m)
			}
			return
		case Nullable:
			add(v.Inner)
			add(Null())
			return
		}
		key := t.String()
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	for _, m := range members {
		if m != nil {
			add(m)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return Union{Members: out}
}

// Shape distinguishes array-shaped from object-shaped collections.
type Shape string

const (
	ShapeList Shape = "list"
	ShapeMap  Shape = "map"
)

// Collection is a homogeneous list or map. Lazy collections decode their
// elements on iteration.
type Collection struct {
	Value Type
	Shape Shape
	// Key is the key kind of map collections: ScalarString or ScalarInt.
	Key  ScalarKind
	Lazy bool
}

func (Collection) Kind() Kind { return KindCollection }

func (c Collection) String() string {
	var s string
	if c.Shape == ShapeMap {
		s = "map<" + string(c.Key) + "," + c.Value.String() + ">"
	} else {
		s = "list<" + c.Value.String() + ">"
	}
	if c.Lazy {
		return "iterable<" + s + ">"
	}
	return s
}

// ListOf describes a JSON array of v.
func ListOf(v Type) Type { return Collection{Shape: ShapeList, Value: v} }

// MapOf describes a JSON object with string keys and values of v.
func MapOf(v Type) Type { return Collection{Shape: ShapeMap, Key: ScalarString, Value: v} }

// MapOfKey describes a JSON object whose keys are of kind key.
func MapOfKey(key ScalarKind, v Type) Type { return Collection{Shape: ShapeMap, Key: key, Value: v} }

// Iterable marks a collection as lazy. Other types are returned unchanged.
func Iterable(t Type) Type {
	if c, ok := t.(Collection); ok {
		c.Lazy = true
		return c
	}
	return t
}

// Enum is a backed enumeration identified by name; its cases are resolved
// by the instantiator.
type Enum struct {
	Name    string
	Backing ScalarKind
}

func (Enum) Kind() Kind       { return KindEnum }
func (e Enum) String() string { return e.Name }

// EnumOf describes the enum name backed by int or string values.
func EnumOf(name string, backing ScalarKind) Type { return Enum{Name: name, Backing: backing} }

// Object is a class with ordered properties. It is used by pointer so
// properties may refer back to the object itself.
type Object struct {
	Name       string
	Properties []Property
}

func (*Object) Kind() Kind       { return KindObject }
func (o *Object) String() string { return o.Name }

// Property maps one JSON member onto one target property.
type Property struct {
	Type Type
	// Name is the target property.
	Name string
	// Source is the member name as it appears in JSON; empty means Name.
	Source string
	// Transformers are applied to the raw decoded value, in order.
	Transformers []string
}

// SourceName returns the JSON member name of p.
func (p Property) SourceName() string {
	if p.Source != "" {
		return p.Source
	}
	return p.Name
}

// PropertyOption customizes a Property built by Prop.
type PropertyOption func(*Property)

// From sets the JSON member name of a property.
func From(source string) PropertyOption { return func(p *Property) { p.Source = source } }

// Transform appends value transformer ids to a property.
func Transform(ids ...string) PropertyOption {
	return func(p *Property) { p.Transformers = append(p.Transformers, ids...) }
}

// Prop builds a property.
func Prop(name string, t Type, opts ...PropertyOption) Property {
	p := Property{Name: name, Type: t}
	for _, o := range opts {
		o(&p)
	}
	return p
}

// ObjectOf builds an object descriptor.
func ObjectOf(name string, props ...Property) *Object {
	return &Object{Name: name, Properties: props}
}

// Add appends properties and returns o, which makes self-references
// convenient:
//
//	node := typedesc.ObjectOf("Node")
//	node.Add(typedesc.Prop("children", typedesc.ListOf(node)))
func (o *Object) Add(props ...Property) *Object {
	o.Properties = append(o.Properties, props...)
	return o
}
