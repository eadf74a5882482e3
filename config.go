package cardinal

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/cardinal/codec"
	"github.com/hupe1980/cardinal/internal/hll"
	"github.com/hupe1980/cardinal/resource"
)

// Config is the file form of the engine-level options.
//
//	precision: 14
//	rehash: true
//	ordinal_cost_ratio: 4
//	memory_limit: 256Mi
//	max_shard_workers: 4
//	compression: lz4
//	json_codec: go-json
//	log:
//	  level: debug
//	  format: json
type Config struct {
	Precision        uint8     `yaml:"precision"`
	Rehash           bool      `yaml:"rehash"`
	OrdinalCostRatio int64     `yaml:"ordinal_cost_ratio"`
	MemoryLimit      ByteSize  `yaml:"memory_limit"`
	MaxShardWorkers  int64     `yaml:"max_shard_workers"`
	Compression      string    `yaml:"compression"`
	JSONCodec        string    `yaml:"json_codec"`
	Log              LogConfig `yaml:"log"`
}

// LogConfig selects the logger. An empty level disables logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Precision:        DefaultPrecision,
		Rehash:           true,
		OrdinalCostRatio: DefaultOrdinalCostRatio,
		MaxShardWorkers:  1,
		Compression:      codec.CompressionLZ4.String(),
		JSONCodec:        codec.Default.Name(),
		Log:              LogConfig{Format: "text"},
	}
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := hll.ValidatePrecision(c.Precision); err != nil {
		return translateError(err)
	}
	if c.OrdinalCostRatio < 1 {
		return fmt.Errorf("%w: ordinal_cost_ratio must be at least 1, got %d", ErrInvalidArgument, c.OrdinalCostRatio)
	}
	if c.MemoryLimit < 0 {
		return fmt.Errorf("%w: memory_limit must not be negative", ErrInvalidArgument)
	}
	if c.MaxShardWorkers < 0 {
		return fmt.Errorf("%w: max_shard_workers must not be negative", ErrInvalidArgument)
	}
	if _, err := codec.ParseCompression(c.Compression); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if _, ok := codec.ByName(c.JSONCodec); !ok && c.JSONCodec != "" {
		return fmt.Errorf("%w: unknown json_codec %q", ErrInvalidArgument, c.JSONCodec)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidArgument, c.Log.Format)
	}
	return nil
}

// Options converts the configuration into Options. The returned controller
// is nil when neither a memory limit nor shard workers are configured.
func (c Config) Options() ([]Option, *resource.Controller, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	compression, _ := codec.ParseCompression(c.Compression)
	jsonCodec, _ := codec.ByName(c.JSONCodec) // nil selects codec.Default

	opts := []Option{
		WithPrecision(c.Precision),
		WithRehash(c.Rehash),
		WithOrdinalCostRatio(c.OrdinalCostRatio),
		WithCompression(compression),
		WithCodec(jsonCodec),
	}

	var rc *resource.Controller
	if c.MemoryLimit > 0 || c.MaxShardWorkers > 1 {
		rc = resource.NewController(resource.Config{
			MemoryLimitBytes:     int64(c.MemoryLimit),
			MaxBackgroundWorkers: c.MaxShardWorkers,
		})
		opts = append(opts, WithMemoryController(rc))
	}

	if level, _ := c.Log.level(); level != nil {
		if c.Log.Format == "json" {
			opts = append(opts, WithLogger(NewJSONLogger(*level)))
		} else {
			opts = append(opts, WithLogger(NewTextLogger(*level)))
		}
	}
	return opts, rc, nil
}

func (l LogConfig) level() (*slog.Level, error) {
	if l.Level == "" {
		return nil, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return nil, fmt.Errorf("%w: log level %q", ErrInvalidArgument, l.Level)
	}
	return &level, nil
}

// ByteSize is a byte count that accepts human-readable YAML values.
// Accepted formats: raw integer (bytes), or suffixed: Ki, Mi, Gi.
type ByteSize int64

// UnmarshalYAML implements yaml.Unmarshaler for ByteSize.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*b = ByteSize(n)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseByteSize(s)
	if err != nil {
		return err
	}
	*b = ByteSize(parsed)
	return nil
}

// ParseByteSize parses a human-readable byte size string.
func ParseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	mult := int64(1)
	for _, sf := range []struct {
		name string
		mult int64
	}{
		{"Gi", 1 << 30},
		{"Mi", 1 << 20},
		{"Ki", 1 << 10},
	} {
		if strings.HasSuffix(s, sf.name) {
			s = strings.TrimSpace(strings.TrimSuffix(s, sf.name))
			mult = sf.mult
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size: %q (use Ki, Mi or Gi suffixes)", s)
	}
	return n * mult, nil
}
