package jsondecode

import (
	"context"
	stderrors "errors"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/reoring/jsondecode/cache"
	"github.com/reoring/jsondecode/errors"
	"github.com/reoring/jsondecode/instantiator"
	"github.com/reoring/jsondecode/internal/compiler"
	"github.com/reoring/jsondecode/internal/ir"
	"github.com/reoring/jsondecode/internal/provider"
	"github.com/reoring/jsondecode/source"
	"github.com/reoring/jsondecode/transform"
	"github.com/reoring/jsondecode/typedesc"
)

// Decoder compiles type descriptors into provider programs, persists them in
// a store keyed by CacheKey and runs them against JSON inputs.
//
// A program is compiled at most once per key for the life of the store:
// later calls, in this process or another one sharing the store, read the
// artifact and only link it. Decoder is safe for concurrent use.
type Decoder struct {
	store        cache.Store
	transformers *transform.Registry
	instantiator *instantiator.Instantiator
	log          *zap.Logger
	limits       source.Limits

	linked sync.Map // key -> *provider.Set
	group  singleflight.Group

	compile func(typedesc.Type, compiler.Env) (*ir.Program, error)
}

// New returns a Decoder configured by opts.
func New(opts ...Option) *Decoder {
	d := &Decoder{compile: compiler.Compile}
	for _, o := range opts {
		o(d)
	}
	if d.store == nil {
		d.store = cache.NewMemory()
	}
	if d.transformers == nil {
		d.transformers = transform.Builtins()
	}
	if d.instantiator == nil {
		d.instantiator = instantiator.New()
	}
	if d.log == nil {
		d.log = Logger()
	}
	return d
}

// Store returns the artifact store.
func (d *Decoder) Store() cache.Store { return d.store }

// Transformers returns the transformer registry programs are linked against.
func (d *Decoder) Transformers() *transform.Registry { return d.transformers }

// Instantiator returns the class and enum registry programs are linked against.
func (d *Decoder) Instantiator() *instantiator.Instantiator { return d.instantiator }

// Decode decodes input as a value of type t. input may be []byte, string,
// a source.Stream, an *os.File or any io.Reader (see Stream). opts reach
// every transformer of the call.
//
// ctx bounds store access only; decoding itself is not cancellable.
func (d *Decoder) Decode(ctx context.Context, input any, t typedesc.Type, opts Options) (any, error) {
	key, err := d.CacheKey(t, opts)
	if err != nil {
		return nil, err
	}
	set, err := d.load(ctx, key, t)
	if err != nil {
		return nil, err
	}
	st, err := Stream(input)
	if err != nil {
		return nil, err
	}
	return set.Run(st, opts)
}

// DecodeAs decodes input and asserts the result to T. A class decoded as *T
// is dereferenced when T is the struct type itself; a null result yields the
// zero T.
func DecodeAs[T any](ctx context.Context, d *Decoder, input any, t typedesc.Type, opts Options) (T, error) {
	var zero T
	v, err := d.Decode(ctx, input, t, opts)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	if out, ok := v.(T); ok {
		return out, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Type() == reflect.TypeFor[T]() {
		return rv.Elem().Interface().(T), nil
	}
	e := errors.UnexpectedValue(t.String(), errors.DebugType(v))
	e.Detail = "decoded " + rv.Type().String() + ", want " + reflect.TypeFor[T]().String()
	return zero, e
}

// Compile makes sure the program for t and optionNames is stored and linked,
// compiling it only when the store has no usable artifact. It returns the
// cache key.
func (d *Decoder) Compile(ctx context.Context, t typedesc.Type, optionNames ...string) (string, error) {
	key, err := d.cacheKey(t, optionNames)
	if err != nil {
		return "", err
	}
	ok, err := d.store.Exists(ctx, key)
	if err != nil {
		d.log.Warn("artifact lookup failed", zap.String("key", key), zap.Error(err))
	}
	if ok {
		d.log.Debug("artifact present", zap.String("key", key), zap.String("type", t.String()))
	}
	if _, err := d.load(ctx, key, t); err != nil {
		return "", err
	}
	return key, nil
}

// load returns the linked provider set for key. Concurrent callers with the
// same key share one store read and at most one compile.
func (d *Decoder) load(ctx context.Context, key string, t typedesc.Type) (*provider.Set, error) {
	if v, ok := d.linked.Load(key); ok {
		return v.(*provider.Set), nil
	}
	v, err, _ := d.group.Do(key, func() (any, error) {
		if v, ok := d.linked.Load(key); ok {
			return v, nil
		}
		set := d.fromStore(ctx, key)
		if set == nil {
			var err error
			if set, err = d.build(ctx, key, t); err != nil {
				return nil, err
			}
		}
		d.linked.Store(key, set)
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*provider.Set), nil
}

// fromStore reads and links a stored artifact. Any failure is a miss: a
// corrupt or stale artifact is recompiled and overwritten.
func (d *Decoder) fromStore(ctx context.Context, key string) *provider.Set {
	data, err := d.store.Read(ctx, key)
	switch {
	case stderrors.Is(err, cache.ErrNotFound):
		d.log.Debug("artifact miss", zap.String("key", key))
		return nil
	case err != nil:
		d.log.Warn("artifact read failed", zap.String("key", key), zap.Error(errors.Cache(err, "read")))
		return nil
	}
	prog, err := ir.Unmarshal(data)
	if err != nil {
		d.log.Warn("corrupt artifact, recompiling", zap.String("key", key), zap.Error(err))
		return nil
	}
	set, err := provider.Link(prog, d.env())
	if err != nil {
		d.log.Warn("artifact does not link, recompiling", zap.String("key", key), zap.Error(err))
		return nil
	}
	d.log.Debug("artifact loaded", zap.String("key", key), zap.Int("providers", set.Len()))
	return set
}

// build compiles t, writes the artifact and links it. A failed write is
// logged; the linked set is still returned.
func (d *Decoder) build(ctx context.Context, key string, t typedesc.Type) (*provider.Set, error) {
	start := time.Now()
	prog, err := d.compile(t, compileEnv{d.transformers, d.instantiator})
	if err != nil {
		return nil, err
	}
	data, err := prog.Marshal()
	if err != nil {
		return nil, errors.Cache(err, "encode artifact")
	}
	if err := d.store.WriteAtomic(ctx, key, data); err != nil {
		d.log.Warn("artifact write failed", zap.String("key", key), zap.Error(errors.Cache(err, "write")))
	}
	set, err := provider.Link(prog, d.env())
	if err != nil {
		return nil, err
	}
	d.log.Info("compiled providers",
		zap.String("key", key),
		zap.String("type", t.String()),
		zap.Int("providers", set.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return set, nil
}

func (d *Decoder) env() provider.Env {
	return provider.Env{
		Transformers: d.transformers,
		Instantiator: d.instantiator,
		Limits:       d.limits,
	}
}

// compileEnv answers compiler.Env from the decoder's registries.
type compileEnv struct {
	transformers *transform.Registry
	instantiator *instantiator.Instantiator
}

func (e compileEnv) HasTransformer(id string) bool { return e.transformers.Has(id) }
func (e compileEnv) HasClass(identity string) bool { return e.instantiator.HasClass(identity) }
func (e compileEnv) HasProperty(identity, property string) bool {
	return e.instantiator.HasProperty(identity, property)
}
func (e compileEnv) HasEnum(identity string, backing typedesc.ScalarKind) bool {
	return e.instantiator.HasEnum(identity, backing)
}
