package compiler

import (
	"slices"

	"github.com/reoring/jsondecode/errors"
	"github.com/reoring/jsondecode/internal/ir"
	"github.com/reoring/jsondecode/typedesc"
)

// Env answers the questions the compiler asks about the collaborators a
// program will be linked against.
type Env interface {
	HasTransformer(id string) bool
	HasClass(identity string) bool
	HasProperty(identity, property string) bool
	HasEnum(identity string, backing typedesc.ScalarKind) bool
}

// ObservedKinds lists the JSON kinds a union dispatches on.
var ObservedKinds = []string{"null", "bool", "int", "float", "string", "list", "object"}

// Compile translates t into a provider program. Every distinct canonical key
// yields exactly one provider, however often the type is referenced.
func Compile(t typedesc.Type, env Env) (*ir.Program, error) {
	if t == nil {
		return nil, errors.Compilation("", "nil type")
	}
	c := &compiler{env: env, prog: ir.New(t.String())}
	if _, err := c.compile(t); err != nil {
		return nil, err
	}
	return c.prog, nil
}

type compiler struct {
	env  Env
	prog *ir.Program
}

func (c *compiler) compile(t typedesc.Type) (string, error) {
	key := t.String()
	if _, ok := c.prog.Providers[key]; ok {
		return key, nil
	}
	// declare before compiling children so recursive references terminate
	pr := &ir.Provider{}
	c.prog.Providers[key] = pr

	switch t := t.(type) {
	case typedesc.Scalar:
		if !t.Of.Valid() {
			return "", errors.Compilation(key, "unsupported scalar kind %q", t.Of)
		}
		pr.Op = ir.OpScalar
		pr.Scalar = string(t.Of)
	case typedesc.Nullable:
		if t.Inner == nil {
			return "", errors.Compilation(key, "nullable without inner type")
		}
		inner, err := c.compile(t.Inner)
		if err != nil {
			return "", err
		}
		pr.Op = ir.OpNullable
		pr.Inner = inner
	case typedesc.Union:
		if len(t.Members) == 0 {
			return "", errors.Compilation(key, "empty union")
		}
		for _, m := range t.Members {
			if _, err := c.compile(m); err != nil {
				return "", err
			}
		}
		pr.Op = ir.OpUnion
		pr.Dispatch = dispatch(t.Members)
	case typedesc.Collection:
		if t.Value == nil {
			return "", errors.Compilation(key, "collection without value type")
		}
		switch t.Shape {
		case typedesc.ShapeList:
			pr.Op = ir.OpList
		case typedesc.ShapeMap:
			if t.Key != typedesc.ScalarString && t.Key != typedesc.ScalarInt {
				return "", errors.Compilation(key, "unsupported map key kind %q", t.Key)
			}
			pr.Op = ir.OpMap
			pr.KeyKind = string(t.Key)
		default:
			return "", errors.Compilation(key, "unsupported collection shape %q", t.Shape)
		}
		inner, err := c.compile(t.Value)
		if err != nil {
			return "", err
		}
		pr.Inner = inner
		pr.Lazy = t.Lazy
	case typedesc.Enum:
		if t.Backing != typedesc.ScalarInt && t.Backing != typedesc.ScalarString {
			return "", errors.Compilation(key, "unsupported enum backing %q", t.Backing)
		}
		if !c.env.HasEnum(t.Name, t.Backing) {
			return "", errors.Compilation(key, "enum is not registered with %s backing", t.Backing)
		}
		pr.Op = ir.OpEnum
		pr.Enum = t.Name
		pr.Backing = string(t.Backing)
	case *typedesc.Object:
		if err := c.object(key, pr, t); err != nil {
			return "", err
		}
	default:
		return "", errors.Compilation(key, "unsupported type %T", t)
	}
	return key, nil
}

func (c *compiler) object(key string, pr *ir.Provider, o *typedesc.Object) error {
	if !c.env.HasClass(o.Name) {
		return errors.Compilation(key, "class is not registered")
	}
	pr.Op = ir.OpObject
	pr.Class = o.Name
	seen := make(map[string]string, len(o.Properties))
	for _, p := range o.Properties {
		src := p.SourceName()
		if prev, dup := seen[src]; dup {
			return errors.Compilation(key, "properties %q and %q share source name %q", prev, p.Name, src)
		}
		seen[src] = p.Name
		if !c.env.HasProperty(o.Name, p.Name) {
			return errors.Compilation(key, "unknown property %q", p.Name)
		}
		if p.Type == nil {
			return errors.Compilation(key, "property %q has no type", p.Name)
		}
		for _, id := range p.Transformers {
			if !c.env.HasTransformer(id) {
				return errors.UnknownTransformer(id)
			}
		}
		inner, err := c.compile(p.Type)
		if err != nil {
			return err
		}
		pr.Fields = append(pr.Fields, ir.Field{
			Source:       src,
			Property:     p.Name,
			Provider:     inner,
			Transformers: slices.Clone(p.Transformers),
		})
	}
	return nil
}

// Match classes, in dispatch order.
const (
	classStructural = iota
	classNull
	classScalar
	classMixed
)

// dispatch builds the union table: for every observed kind, the members
// that accept it ordered by match class, then declaration order.
func dispatch(members []typedesc.Type) map[string][]string {
	type cand struct {
		key   string
		class int
	}
	out := map[string][]string{}
	for _, kind := range ObservedKinds {
		var cands []cand
		for _, m := range members {
			if cl, ok := accepts(m, kind); ok {
				cands = append(cands, cand{key: m.String(), class: cl})
			}
		}
		slices.SortStableFunc(cands, func(a, b cand) int { return a.class - b.class })
		for _, cd := range cands {
			out[kind] = append(out[kind], cd.key)
		}
	}
	return out
}

// accepts reports whether t can decode a value of the observed kind, and
// with which match class.
func accepts(t typedesc.Type, kind string) (int, bool) {
	switch t := t.(type) {
	case typedesc.Scalar:
		switch t.Of {
		case typedesc.ScalarMixed:
			return classMixed, true
		case typedesc.ScalarNull:
			return classNull, kind == "null"
		case typedesc.ScalarFloat:
			return classScalar, kind == "float" || kind == "int"
		}
		return classScalar, string(t.Of) == kind
	case typedesc.Nullable:
		if kind == "null" {
			return classNull, true
		}
		return accepts(t.Inner, kind)
	case typedesc.Union:
		best, found := classMixed+1, false
		for _, m := range t.Members {
			if cl, ok := accepts(m, kind); ok && cl < best {
				best, found = cl, true
			}
		}
		return best, found
	case typedesc.Enum:
		return classStructural, string(t.Backing) == kind
	case *typedesc.Object:
		return classStructural, kind == "object"
	case typedesc.Collection:
		if t.Shape == typedesc.ShapeMap {
			return classStructural, kind == "object"
		}
		return classStructural, kind == "list"
	}
	return 0, false
}
