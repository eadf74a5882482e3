package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}
	_, ok := ByName("xml")
	assert.False(t, ok)
}

func TestCodecsAgree(t *testing.T) {
	v := map[string]any{"name": "distinct_users", "value": uint64(42)}

	std, err := JSON{}.Marshal(v)
	require.NoError(t, err)
	fast, err := Default.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, string(std), string(fast))

	var out struct {
		Name  string `json:"name"`
		Value uint64 `json:"value"`
	}
	require.NoError(t, Default.Unmarshal(fast, &out))
	assert.Equal(t, "distinct_users", out.Name)
	assert.Equal(t, uint64(42), out.Value)
}
