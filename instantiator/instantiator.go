package instantiator

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/reoring/jsondecode/errors"
	"github.com/reoring/jsondecode/source"
	"github.com/reoring/jsondecode/typedesc"
)

// Option configures an Instantiator.
type Option func(*Instantiator)

// WithDynamicClasses lets unregistered class identities decode into *Object
// property bags and unregistered enums decode to their backing value. It is
// meant for tooling that works from descriptor documents alone.
func WithDynamicClasses() Option {
	return func(in *Instantiator) { in.dynamic = true }
}

// Instantiator creates objects of registered classes from recorded property
// assignments. It is safe for concurrent use.
type Instantiator struct {
	mu      sync.RWMutex
	classes map[string]*class
	enums   map[string]*enum
	dynamic bool
}

type class struct {
	t     reflect.Type
	keyed map[string]int
	fold  map[string]int
}

type enum struct {
	backing typedesc.ScalarKind
	cases   map[any]any
}

// New returns an empty Instantiator.
func New(opts ...Option) *Instantiator {
	in := &Instantiator{classes: map[string]*class{}, enums: map[string]*enum{}}
	for _, o := range opts {
		o(in)
	}
	return in
}

// Register binds identity to the struct type of sample (a struct value or a
// pointer to one).
func (in *Instantiator) Register(identity string, sample any) error {
	rt := reflect.TypeOf(sample)
	if rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return fmt.Errorf("instantiator: class %q requires a struct sample, got %T", identity, sample)
	}
	c := &class{t: rt, keyed: map[string]int{}, fold: map[string]int{}}
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		key := fieldKey(sf)
		if key == "-" || key == "" {
			continue
		}
		c.keyed[key] = i
		if _, dup := c.fold[strings.ToLower(key)]; !dup {
			c.fold[strings.ToLower(key)] = i
		}
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.classes[identity] = c
	return nil
}

// MustRegister is like Register but panics on error.
func (in *Instantiator) MustRegister(identity string, sample any) *Instantiator {
	if err := in.Register(identity, sample); err != nil {
		panic(err)
	}
	return in
}

// RegisterType registers T under identity.
func RegisterType[T any](in *Instantiator, identity string) error {
	var zero T
	return in.Register(identity, zero)
}

// RegisterEnum binds identity to a set of cases. Every case must share one
// named type whose underlying kind is a string or an integer; the case value
// itself is the backing value.
func (in *Instantiator) RegisterEnum(identity string, cases ...any) error {
	if len(cases) == 0 {
		return fmt.Errorf("instantiator: enum %q has no cases", identity)
	}
	e := &enum{cases: make(map[any]any, len(cases))}
	first := reflect.TypeOf(cases[0])
	for _, c := range cases {
		rv := reflect.ValueOf(c)
		if rv.Type() != first {
			return fmt.Errorf("instantiator: enum %q mixes %s and %s cases", identity, first, rv.Type())
		}
		key, backing, ok := backingOf(rv)
		if !ok {
			return fmt.Errorf("instantiator: enum %q case type %s is neither string nor integer", identity, first)
		}
		e.backing = backing
		e.cases[key] = c
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.enums[identity] = e
	return nil
}

func backingOf(rv reflect.Value) (any, typedesc.ScalarKind, bool) {
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), typedesc.ScalarString, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), typedesc.ScalarInt, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), typedesc.ScalarInt, true
	}
	return nil, "", false
}

// HasClass reports whether identity can be instantiated.
func (in *Instantiator) HasClass(identity string) bool {
	if in.dynamic {
		return true
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	_, ok := in.classes[identity]
	return ok
}

// HasProperty reports whether the class can receive property.
func (in *Instantiator) HasProperty(identity, property string) bool {
	in.mu.RLock()
	c, ok := in.classes[identity]
	in.mu.RUnlock()
	if !ok {
		return in.dynamic
	}
	_, ok = c.field(property)
	return ok
}

// HasEnum reports whether identity is an enum with the given backing kind.
func (in *Instantiator) HasEnum(identity string, backing typedesc.ScalarKind) bool {
	in.mu.RLock()
	e, ok := in.enums[identity]
	in.mu.RUnlock()
	if !ok {
		return in.dynamic
	}
	return e.backing == backing
}

// EnumCase returns the case of enum identity whose backing value is v.
func (in *Instantiator) EnumCase(identity string, v any) (any, error) {
	in.mu.RLock()
	e, ok := in.enums[identity]
	in.mu.RUnlock()
	if !ok {
		if in.dynamic {
			return v, nil
		}
		return nil, errors.Compilation(identity, "enum is not registered")
	}
	key := v
	if i, ok := v.(int); ok {
		key = int64(i)
	}
	c, ok := e.cases[key]
	if !ok {
		return nil, errors.UnexpectedValue(identity, fmt.Sprint(v))
	}
	return c, nil
}

// Instantiate creates an object of class identity. populate records the
// property values on a handle; the object is built once populate returns.
// The result is a pointer to the registered struct, or *Object for dynamic
// classes.
func (in *Instantiator) Instantiate(identity string, populate func(*Handle) error) (any, error) {
	in.mu.RLock()
	c, ok := in.classes[identity]
	in.mu.RUnlock()
	if !ok && !in.dynamic {
		return nil, errors.Compilation(identity, "class is not registered")
	}
	h := &Handle{identity: identity, props: source.NewOrderedMap(0)}
	if err := populate(h); err != nil {
		return nil, err
	}
	if !ok {
		return &Object{Class: identity, OrderedMap: h.props}, nil
	}
	return c.build(identity, h)
}

func (c *class) field(property string) (int, bool) {
	if i, ok := c.keyed[property]; ok {
		return i, true
	}
	i, ok := c.fold[strings.ToLower(property)]
	return i, ok
}

func (c *class) build(identity string, h *Handle) (any, error) {
	ptr := reflect.New(c.t)
	rv := ptr.Elem()
	for name, v := range h.props.All() {
		i, ok := c.field(name)
		if !ok {
			return nil, errors.Compilation(identity, "unknown property %q", name)
		}
		if err := assign(rv.Field(i), v); err != nil {
			e := errors.UnexpectedValue(identity, errors.DebugType(v))
			e.Detail = err.Error()
			return nil, e.At(name)
		}
	}
	return ptr.Interface(), nil
}

// fieldKey resolves the property name of a struct field.
// Priority: jsondecode tag > json tag name > field name; "-" disables the field.
func fieldKey(sf reflect.StructField) string {
	if t, ok := sf.Tag.Lookup("jsondecode"); ok && t != "" {
		return t
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		if i := strings.IndexByte(jt, ','); i >= 0 {
			if jt[:i] != "" {
				return jt[:i]
			}
			return sf.Name
		}
		return jt
	}
	return sf.Name
}

// Handle records property assignments for an object that does not exist
// yet. Assignments may arrive in any order; a repeated property keeps the
// last value.
type Handle struct {
	identity string
	props    *source.OrderedMap
}

// Identity returns the class identity being populated.
func (h *Handle) Identity() string { return h.identity }

func (h *Handle) Set(property string, v any) { h.props.Set(property, v) }

func (h *Handle) Get(property string) (any, bool) { return h.props.Get(property) }

func (h *Handle) Has(property string) bool {
	_, ok := h.props.Get(property)
	return ok
}

func (h *Handle) Len() int { return h.props.Len() }

// Object is the value of a dynamic class: the class identity and its
// properties in assignment order.
type Object struct {
	Class string
	*source.OrderedMap
}
