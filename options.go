package cardinal

import (
	"log/slog"
	"maps"

	"github.com/hupe1980/cardinal/codec"
	"github.com/hupe1980/cardinal/internal/hll"
	"github.com/hupe1980/cardinal/resource"
)

const (
	// MinPrecision is the smallest supported precision.
	MinPrecision = hll.MinPrecision
	// MaxPrecision is the largest supported precision.
	MaxPrecision = hll.MaxPrecision
	// DefaultPrecision is used when neither a precision nor a threshold is set.
	DefaultPrecision = hll.DefaultPrecision
	// DefaultOrdinalCostRatio is the factor by which seen-ordinal bitsets must
	// be cheaper than a sketch bucket for the ordinals collector to be used.
	DefaultOrdinalCostRatio int64 = 4
)

// StandardError returns the relative standard error of estimates at
// precision.
func StandardError(precision uint8) float64 {
	return hll.StandardError(precision)
}

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	memory           *resource.Controller
	ordinalCostRatio int64
	precision        uint8
	rehash           bool
	compression      codec.Compression
	jsonCodec        codec.Codec
	metadata         map[string]any
}

// Option configures an Aggregator or a ShardExecutor.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := cardinal.NewJSONLogger(slog.LevelDebug)
//	agg, _ := cardinal.New("users", src, cardinal.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetrics configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &cardinal.BasicMetricsCollector{}
//	agg, _ := cardinal.New("users", src, cardinal.WithMetrics(metrics))
//	// ... collect ...
//	stats := metrics.GetStats()
//	fmt.Printf("Ordinal segments: %d\n", stats.OrdinalSegments)
func WithMetrics(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithMemoryController accounts register and bitset storage against rc.
// The same controller bounds concurrent shard aggregations.
func WithMemoryController(rc *resource.Controller) Option {
	return func(o *options) {
		o.memory = rc
	}
}

// WithOrdinalCostRatio overrides DefaultOrdinalCostRatio. Values < 1 are
// ignored.
func WithOrdinalCostRatio(ratio int64) Option {
	return func(o *options) {
		if ratio >= 1 {
			o.ordinalCostRatio = ratio
		}
	}
}

// WithPrecision sets the sketch precision.
func WithPrecision(precision uint8) Option {
	return func(o *options) {
		o.precision = precision
	}
}

// WithRehash controls whether integer values are hashed. Disable it only for
// fields that already hold well distributed 64-bit hashes.
func WithRehash(rehash bool) Option {
	return func(o *options) {
		o.rehash = rehash
	}
}

// WithCompression selects the compression of binary results.
func WithCompression(c codec.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithCodec selects the codec that renders results as JSON. Nil restores
// codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		o.jsonCodec = c
	}
}

// WithMetadata attaches metadata to every built result.
func WithMetadata(meta map[string]any) Option {
	return func(o *options) {
		o.metadata = maps.Clone(meta)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		ordinalCostRatio: DefaultOrdinalCostRatio,
		precision:        DefaultPrecision,
		rehash:           true,
		compression:      codec.CompressionLZ4,
		jsonCodec:        codec.Default,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.jsonCodec == nil {
		o.jsonCodec = codec.Default
	}
	return o
}
