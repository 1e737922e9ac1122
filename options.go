package jsondecode

import (
	"go.uber.org/zap"

	"github.com/reoring/jsondecode/cache"
	"github.com/reoring/jsondecode/instantiator"
	"github.com/reoring/jsondecode/transform"
)

// Options are per-call decode options, handed read-only to every value
// transformer of the call. Option names take part in the cache key.
type Options = transform.Options

// Option configures a Decoder.
type Option func(*Decoder)

// WithStore sets the artifact store.
// Default: an in-memory store private to the decoder.
func WithStore(s cache.Store) Option {
	return func(d *Decoder) { d.store = s }
}

// WithTransformers sets the value transformer registry.
// Default: transform.Builtins().
func WithTransformers(r *transform.Registry) Option {
	return func(d *Decoder) { d.transformers = r }
}

// WithInstantiator sets the class and enum registry.
// Default: an empty instantiator.New().
func WithInstantiator(in *instantiator.Instantiator) Option {
	return func(d *Decoder) { d.instantiator = in }
}

// WithLogger sets the decoder logger.
// Default: the package Logger().
func WithLogger(l *zap.Logger) Option {
	return func(d *Decoder) { d.log = l }
}

// WithMaxDepth caps container nesting in decoded documents; 0 disables it.
// Default: 0.
func WithMaxDepth(n int) Option {
	return func(d *Decoder) { d.limits.MaxDepth = n }
}
