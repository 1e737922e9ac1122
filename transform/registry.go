package transform

import (
	"slices"
	"sync"

	"github.com/reoring/jsondecode/errors"
)

// Options are the per-call decode options. Transformers must treat them as
// read-only.
type Options map[string]any

// Transformer converts a decoded property value before it is assigned.
type Transformer interface {
	Transform(value any, opts Options) (any, error)
}

// Func adapts a plain function to Transformer.
type Func func(value any, opts Options) (any, error)

// Transform implements Transformer.
func (f Func) Transform(value any, opts Options) (any, error) { return f(value, opts) }

// Registry maps transformer ids to transformers. It is safe for concurrent
// use; registration normally happens once, before the first decode.
type Registry struct {
	mu sync.RWMutex
	m  map[string]Transformer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{m: map[string]Transformer{}}
}

// Builtins returns a registry holding the built-in transformers.
func Builtins() *Registry {
	r := NewRegistry()
	r.RegisterFunc("string_to_bool", StringToBool)
	r.RegisterFunc("string_to_int", StringToInt)
	r.RegisterFunc("uppercase", Uppercase)
	r.RegisterFunc("range", Range)
	r.RegisterFunc("datetime", Datetime)
	return r
}

// Register binds id to t, replacing any previous binding.
func (r *Registry) Register(id string, t Transformer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[id] = t
}

// RegisterFunc binds id to fn.
func (r *Registry) RegisterFunc(id string, fn func(value any, opts Options) (any, error)) {
	r.Register(id, Func(fn))
}

// Resolve returns the transformer bound to id.
func (r *Registry) Resolve(id string) (Transformer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.m[id]
	if !ok {
		return nil, errors.UnknownTransformer(id)
	}
	return t, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.m[id]
	return ok
}

// IDs returns the registered ids in sorted order. The list identifies the
// transformer set a provider program was compiled against.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.m))
	for id := range r.m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Apply resolves id and runs it on value. Failures of the transformer are
// wrapped as transform errors.
func (r *Registry) Apply(id string, value any, opts Options) (any, error) {
	t, err := r.Resolve(id)
	if err != nil {
		return nil, err
	}
	out, err := t.Transform(value, opts)
	if err != nil {
		return nil, errors.Transform(id, err)
	}
	return out, nil
}
