package typedesc

import (
	"fmt"
	"strings"
)

// Resolver looks up named enum and object types referenced by an expression.
type Resolver func(name string) (Type, bool)

// Parse parses a type expression in canonical-key syntax:
//
//	int | float | string | bool | null | mixed
//	?T                  nullable
//	A|B|C               union
//	list<T>             array-shaped collection
//	map<T>, map<K,T>    object-shaped collection (K is string or int)
//	iterable<list<T>>   lazy collection
//	(A|B)               grouping
//	Name                enum or object resolved through r
func Parse(expr string, r Resolver) (Type, error) {
	p := &exprParser{src: expr, resolve: r}
	t, err := p.union()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return t, nil
}

// MustParse is like Parse but panics on error.
func MustParse(expr string, r Resolver) Type {
	t, err := Parse(expr, r)
	if err != nil {
		panic(err)
	}
	return t
}

type exprParser struct {
	resolve Resolver
	src     string
	pos     int
}

func (p *exprParser) errorf(format string, args ...any) error {
	return fmt.Errorf("typedesc: %s at %d in %q", fmt.Sprintf(format, args...), p.pos, p.src)
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *exprParser) expect(c byte) error {
	if p.peek() != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *exprParser) union() (Type, error) {
	first, err := p.term()
	if err != nil {
		return nil, err
	}
	members := []Type{first}
	for p.peek() == '|' {
		p.pos++
		t, err := p.term()
		if err != nil {
			return nil, err
		}
		members = append(members, t)
	}
	if len(members) == 1 {
		return first, nil
	}
	return UnionOf(members...), nil
}

func (p *exprParser) term() (Type, error) {
	switch p.peek() {
	case '?':
		p.pos++
		inner, err := p.term()
		if err != nil {
			return nil, err
		}
		return NullableOf(inner), nil
	case '(':
		p.pos++
		t, err := p.union()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return t, nil
	}
	name := p.ident()
	if name == "" {
		return nil, p.errorf("expected type")
	}
	switch name {
	case "list":
		args, err := p.args(1, 1)
		if err != nil {
			return nil, err
		}
		return ListOf(args[0]), nil
	case "map":
		args, err := p.args(1, 2)
		if err != nil {
			return nil, err
		}
		if len(args) == 1 {
			return MapOf(args[0]), nil
		}
		key, ok := args[0].(Scalar)
		if !ok || (key.Of != ScalarString && key.Of != ScalarInt) {
			return nil, p.errorf("map key must be string or int, got %s", args[0])
		}
		return MapOfKey(key.Of, args[1]), nil
	case "iterable":
		args, err := p.args(1, 1)
		if err != nil {
			return nil, err
		}
		if args[0].Kind() != KindCollection {
			return nil, p.errorf("iterable expects a collection, got %s", args[0])
		}
		return Iterable(args[0]), nil
	}
	if k := ScalarKind(name); k.Valid() {
		return Scalar{Of: k}, nil
	}
	if p.resolve != nil {
		if t, ok := p.resolve(name); ok {
			return t, nil
		}
	}
	return nil, p.errorf("unknown type %q", name)
}

func (p *exprParser) args(lo, hi int) ([]Type, error) {
	if err := p.expect('<'); err != nil {
		return nil, err
	}
	var out []Type
	for {
		t, err := p.union()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		if p.peek() != ',' {
			break
		}
		p.pos++
	}
	if err := p.expect('>'); err != nil {
		return nil, err
	}
	if len(out) < lo || len(out) > hi {
		return nil, p.errorf("wrong number of type arguments: %d", len(out))
	}
	return out, nil
}

func (p *exprParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune("|?<>,() \t", rune(p.src[p.pos])) {
		p.pos++
	}
	return p.src[start:p.pos]
}
