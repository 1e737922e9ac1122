package provider

import (
	stderrors "errors"
	"strconv"

	"github.com/reoring/jsondecode/errors"
	"github.com/reoring/jsondecode/instantiator"
	"github.com/reoring/jsondecode/internal/ir"
	"github.com/reoring/jsondecode/source"
	"github.com/reoring/jsondecode/transform"
	"github.com/reoring/jsondecode/typedesc"
)

// Transformers resolves transformer ids at link time.
type Transformers interface {
	Resolve(id string) (transform.Transformer, error)
}

// Instantiator creates class instances and resolves enum cases.
type Instantiator interface {
	HasClass(identity string) bool
	HasEnum(identity string, backing typedesc.ScalarKind) bool
	Instantiate(identity string, populate func(*instantiator.Handle) error) (any, error)
	EnumCase(identity string, v any) (any, error)
}

// Env holds the collaborators a program is linked against.
type Env struct {
	Transformers Transformers
	Instantiator Instantiator
	Limits       source.Limits
}

// Set is a linked program: one executable provider per canonical key.
// Providers reach each other through the set's slots, never through global
// state, so a Set is self-contained and safe for concurrent use.
type Set struct {
	root   *slot
	slots  map[string]*slot
	limits source.Limits
}

type slot struct {
	key string
	fn  func(c *call, offset, length int64) (any, error)
}

// call carries the per-decode state shared by every provider of one run.
type call struct {
	s    source.Stream
	opts transform.Options
	lim  source.Limits
}

// Link turns p into executable providers. All slots are declared before any
// body is built, so providers may reference keys defined later or themselves.
func Link(p *ir.Program, env Env) (*Set, error) {
	if err := p.Validate(); err != nil {
		return nil, errors.Compilation(p.Root, "%v", err)
	}
	set := &Set{slots: make(map[string]*slot, len(p.Providers)), limits: env.Limits}
	for key := range p.Providers {
		set.slots[key] = &slot{key: key}
	}
	for _, key := range p.Keys() {
		fn, err := set.build(key, p.Providers[key], env)
		if err != nil {
			return nil, err
		}
		set.slots[key].fn = fn
	}
	set.root = set.slots[p.Root]
	return set, nil
}

// Root returns the canonical key of the root provider.
func (s *Set) Root() string { return s.root.key }

// Len returns the number of linked providers.
func (s *Set) Len() int { return len(s.slots) }

// Run decodes the whole stream with the root provider.
func (s *Set) Run(st source.Stream, opts transform.Options) (any, error) {
	if opts == nil {
		opts = transform.Options{}
	}
	return s.root.fn(&call{s: st, opts: opts, lim: s.limits}, 0, -1)
}

func (s *Set) build(key string, pr *ir.Provider, env Env) (func(*call, int64, int64) (any, error), error) {
	switch pr.Op {
	case ir.OpScalar:
		return scalar, nil
	case ir.OpNullable:
		return nullable(s.slots[pr.Inner]), nil
	case ir.OpUnion:
		table := make(map[source.ValueKind][]*slot, len(pr.Dispatch))
		for kind, cands := range pr.Dispatch {
			for _, c := range cands {
				table[source.ValueKind(kind)] = append(table[source.ValueKind(kind)], s.slots[c])
			}
		}
		return union(key, table), nil
	case ir.OpList:
		return list(key, s.slots[pr.Inner], pr.Lazy), nil
	case ir.OpMap:
		return dict(key, s.slots[pr.Inner], pr.KeyKind == string(typedesc.ScalarInt), pr.Lazy), nil
	case ir.OpEnum:
		if env.Instantiator == nil || !env.Instantiator.HasEnum(pr.Enum, typedesc.ScalarKind(pr.Backing)) {
			return nil, errors.Compilation(key, "enum is not registered with %s backing", pr.Backing)
		}
		return enum(env.Instantiator, pr.Enum, typedesc.ScalarKind(pr.Backing)), nil
	case ir.OpObject:
		if env.Instantiator == nil || !env.Instantiator.HasClass(pr.Class) {
			return nil, errors.Compilation(key, "class is not registered")
		}
		fields := make([]field, len(pr.Fields))
		for i, f := range pr.Fields {
			fields[i] = field{property: f.Property, source: f.Source, slot: s.slots[f.Provider]}
			for _, id := range f.Transformers {
				if env.Transformers == nil {
					return nil, errors.UnknownTransformer(id)
				}
				t, err := env.Transformers.Resolve(id)
				if err != nil {
					return nil, err
				}
				fields[i].transformers = append(fields[i].transformers, namedTransformer{id: id, t: t})
			}
		}
		return object(key, env.Instantiator, pr.Class, fields), nil
	}
	return nil, errors.Compilation(key, "unknown provider op %q", pr.Op)
}

func scalar(c *call, offset, length int64) (any, error) {
	return source.Decode(c.s, offset, length)
}

func nullable(inner *slot) func(*call, int64, int64) (any, error) {
	return func(c *call, offset, length int64) (any, error) {
		k, err := source.Peek(c.s, offset, length)
		if err != nil {
			return nil, err
		}
		if k == source.KindNull {
			// Peek only saw the token; the whole window must be a lone null.
			return source.Decode(c.s, offset, length)
		}
		return inner.fn(c, offset, length)
	}
}

// union tries the candidates registered for the observed kind in order. A
// candidate rejecting the value hands over to the next one.
func union(key string, table map[source.ValueKind][]*slot) func(*call, int64, int64) (any, error) {
	return func(c *call, offset, length int64) (any, error) {
		k, err := source.Peek(c.s, offset, length)
		if err != nil {
			return nil, err
		}
		var last error
		for _, cand := range table[k] {
			v, err := cand.fn(c, offset, length)
			if err == nil {
				return v, nil
			}
			if !stderrors.Is(err, errors.ErrUnexpectedValue) {
				return nil, err
			}
			last = err
		}
		e := errors.UnexpectedValue(key, string(k))
		e.Cause = last
		return nil, e
	}
}

func enum(in Instantiator, name string, backing typedesc.ScalarKind) func(*call, int64, int64) (any, error) {
	return func(c *call, offset, length int64) (any, error) {
		v, err := source.Decode(c.s, offset, length)
		if err != nil {
			return nil, err
		}
		if got := errors.DebugType(v); got != string(backing) {
			return nil, errors.UnexpectedValue(name, got)
		}
		return in.EnumCase(name, v)
	}
}

func list(key string, inner *slot, lazy bool) func(*call, int64, int64) (any, error) {
	return func(c *call, offset, length int64) (any, error) {
		spans, err := source.SplitList(c.s, offset, length, c.lim)
		if err != nil {
			return nil, typed(err, key)
		}
		if lazy {
			return source.NewSequence(false, func(yield func(key, value any) bool) error {
				for i, sp := range spans {
					v, err := inner.fn(c, sp.Offset, sp.Length)
					if err != nil {
						return at(err, strconv.Itoa(i))
					}
					if !yield(i, v) {
						return nil
					}
				}
				return nil
			}), nil
		}
		out := make([]any, len(spans))
		for i, sp := range spans {
			v, err := inner.fn(c, sp.Offset, sp.Length)
			if err != nil {
				return nil, at(err, strconv.Itoa(i))
			}
			out[i] = v
		}
		return out, nil
	}
}

// dict decodes map-shaped collections. Keys stay strings; integer-keyed maps
// only check that every key parses as an integer.
func dict(key string, inner *slot, intKeys, lazy bool) func(*call, int64, int64) (any, error) {
	return func(c *call, offset, length int64) (any, error) {
		members, err := source.SplitDict(c.s, offset, length, c.lim)
		if err != nil {
			return nil, typed(err, key)
		}
		if intKeys {
			for _, m := range members {
				if _, err := strconv.ParseInt(m.Key, 10, 64); err != nil {
					e := errors.UnexpectedValue(key, "string")
					e.Detail = "map key " + strconv.Quote(m.Key) + " is not an integer"
					return nil, e.At(m.Key)
				}
			}
		}
		if lazy {
			return source.NewSequence(true, func(yield func(key, value any) bool) error {
				for _, m := range members {
					v, err := inner.fn(c, m.Offset, m.Length)
					if err != nil {
						return at(err, m.Key)
					}
					if !yield(m.Key, v) {
						return nil
					}
				}
				return nil
			}), nil
		}
		out := source.NewOrderedMap(len(members))
		for _, m := range members {
			v, err := inner.fn(c, m.Offset, m.Length)
			if err != nil {
				return nil, at(err, m.Key)
			}
			out.Set(m.Key, v)
		}
		return out, nil
	}
}

type field struct {
	property     string
	source       string
	slot         *slot
	transformers []namedTransformer
}

type namedTransformer struct {
	id string
	t  transform.Transformer
}

func object(key string, in Instantiator, class string, fields []field) func(*call, int64, int64) (any, error) {
	bySource := make(map[string]*field, len(fields))
	for i := range fields {
		bySource[fields[i].source] = &fields[i]
	}
	return func(c *call, offset, length int64) (any, error) {
		members, err := source.SplitDict(c.s, offset, length, c.lim)
		if err != nil {
			return nil, typed(err, key)
		}
		// a repeated member is decoded once, from its last occurrence
		last := make(map[string]int, len(members))
		for i, m := range members {
			last[m.Key] = i
		}
		return in.Instantiate(class, func(h *instantiator.Handle) error {
			for i, m := range members {
				f, ok := bySource[m.Key]
				if !ok || last[m.Key] != i {
					continue
				}
				v, err := f.slot.fn(c, m.Offset, m.Length)
				if err != nil {
					return at(err, f.property)
				}
				for _, nt := range f.transformers {
					if v, err = nt.t.Transform(v, c.opts); err != nil {
						if !stderrors.Is(err, errors.ErrTransform) {
							err = errors.Transform(nt.id, err)
						}
						return at(err, f.property)
					}
				}
				h.Set(f.property, v)
			}
			return nil
		})
	}
}

// at prepends seg to the path of err when it carries one.
func at(err error, seg string) error {
	var e *errors.Error
	if stderrors.As(err, &e) {
		e.At(seg)
	}
	return err
}

// typed names key as the expected type of an UnexpectedValue raised below it.
func typed(err error, key string) error {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Kind == errors.KindUnexpectedValue && e.Type == "" {
		e.Type = key
	}
	return err
}
