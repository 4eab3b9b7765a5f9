package bsos

import (
	"github.com/firecraftgaming/binary-structured-objects/codec"
	"github.com/firecraftgaming/binary-structured-objects/marshal"
	"go.uber.org/zap"
)

type options struct {
	logger  *zap.Logger
	codec   []codec.Option
	marshal []marshal.Option
}

// Option configures a Registry.
type Option func(*options)

// WithLogger sets the registry's logger. Registries log at debug level only.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStringMode selects the string encoding used on the wire.
func WithStringMode(m codec.StringMode) Option {
	return func(o *options) { o.codec = append(o.codec, codec.WithStringMode(m)) }
}

// WithLimits overrides the codec safety limits. Zero keeps the default.
func WithLimits(maxString, maxArray, maxDepth int) Option {
	return func(o *options) { o.codec = append(o.codec, codec.WithLimits(maxString, maxArray, maxDepth)) }
}

// WithLegacyPresence drops zero valued optional fields when encoding, the way
// older BSOS writers did.
func WithLegacyPresence() Option {
	return func(o *options) { o.marshal = append(o.marshal, marshal.WithLegacyPresence()) }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	return o
}
