package cardinal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cardinal/codec"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
precision: 12
rehash: false
ordinal_cost_ratio: 8
memory_limit: 64Mi
max_shard_workers: 4
compression: zstd
json_codec: json
log:
  level: debug
  format: json
`))
	require.NoError(t, err)
	assert.Equal(t, uint8(12), cfg.Precision)
	assert.False(t, cfg.Rehash)
	assert.Equal(t, int64(8), cfg.OrdinalCostRatio)
	assert.Equal(t, ByteSize(64<<20), cfg.MemoryLimit)
	assert.Equal(t, int64(4), cfg.MaxShardWorkers)
	assert.Equal(t, "zstd", cfg.Compression)
	assert.Equal(t, "json", cfg.JSONCodec)
	assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("precision: 10\n"))
	require.NoError(t, err)

	want := DefaultConfig()
	want.Precision = 10
	assert.Equal(t, want, cfg)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"precision too low", "precision: 3"},
		{"precision too high", "precision: 19"},
		{"ratio", "ordinal_cost_ratio: 0"},
		{"memory", "memory_limit: -1"},
		{"workers", "max_shard_workers: -2"},
		{"compression", "compression: gzip"},
		{"json codec", "json_codec: xml"},
		{"log level", "log:\n  level: loud"},
		{"log format", "log:\n  format: xml"},
		{"byte size", "memory_limit: lots"},
		{"syntax", "precision: [1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}

	_, err := ParseConfig([]byte("precision: 3"))
	assert.ErrorIs(t, err, ErrInvalidPrecision)
	_, err = ParseConfig([]byte("compression: gzip"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = ParseConfig([]byte("json_codec: xml"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cardinal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("precision: 16\ncompression: none\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint8(16), cfg.Precision)
	assert.Equal(t, "none", cfg.Compression)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfig_Options(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts, rc, err := DefaultConfig().Options()
		require.NoError(t, err)
		assert.Nil(t, rc)

		o := applyOptions(opts)
		assert.Equal(t, DefaultPrecision, o.precision)
		assert.True(t, o.rehash)
		assert.Equal(t, DefaultOrdinalCostRatio, o.ordinalCostRatio)
		assert.Equal(t, codec.CompressionLZ4, o.compression)
		assert.Equal(t, codec.Default, o.jsonCodec)
		assert.Nil(t, o.memory)
	})

	t.Run("json codec", func(t *testing.T) {
		cfg, err := ParseConfig([]byte("json_codec: json\n"))
		require.NoError(t, err)
		opts, _, err := cfg.Options()
		require.NoError(t, err)
		assert.Equal(t, codec.JSON{}, applyOptions(opts).jsonCodec)

		cfg.JSONCodec = ""
		opts, _, err = cfg.Options()
		require.NoError(t, err)
		assert.Equal(t, codec.Default, applyOptions(opts).jsonCodec)
	})

	t.Run("controller", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Precision = 11
		cfg.Rehash = false
		cfg.MemoryLimit = 1 << 20
		cfg.MaxShardWorkers = 3
		cfg.Compression = "zstd"
		cfg.Log = LogConfig{Level: "warn", Format: "json"}

		opts, rc, err := cfg.Options()
		require.NoError(t, err)
		require.NotNil(t, rc)
		assert.Equal(t, int64(1<<20), rc.MemoryLimit())

		o := applyOptions(opts)
		assert.Equal(t, uint8(11), o.precision)
		assert.False(t, o.rehash)
		assert.Equal(t, codec.CompressionZSTD, o.compression)
		assert.Same(t, rc, o.memory)

		a, err := New("users", nil, opts...)
		require.NoError(t, err)
		assert.Equal(t, uint8(11), a.Precision())
		require.NoError(t, a.Close())
	})

	t.Run("invalid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Precision = 0
		_, _, err := cfg.Options()
		assert.ErrorIs(t, err, ErrInvalidPrecision)
	})
}

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"1024", 1024, false},
		{"4Ki", 4 << 10, false},
		{"256Mi", 256 << 20, false},
		{" 2 Gi ", 2 << 30, false},
		{"1.5Gi", 0, true},
		{"10MB", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseByteSize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
