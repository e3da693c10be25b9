package translate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/mcpsync/internal/errors"
)

func TestTOMLToJSON(t *testing.T) {
	input := []byte(`model = "o3"

[mcp_servers.fs]
command = "npx"
args = ["-y", "pkg"]
startup_timeout_ms = 20000

[mcp_servers.fs.env]
TOKEN = "x"
`)
	out, err := TOMLToJSON(input)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"model": "o3",
		"mcp_servers": {"fs": {"command": "npx", "args": ["-y","pkg"], "startup_timeout_ms": 20000, "env": {"TOKEN": "x"}}}
	}`, string(out))
}

func TestTOMLToJSON_Empty(t *testing.T) {
	out, err := TOMLToJSON([]byte("  \n"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}

func TestTOMLToJSON_Invalid(t *testing.T) {
	_, err := TOMLToJSON([]byte("this is = = not toml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidFormat))
}

func TestJSONToTOML_KeepsIntegers(t *testing.T) {
	out, err := JSONToTOML([]byte(`{"mcp_servers":{"fs":{"command":"npx","startup_timeout_ms":20000,"ratio":0.5}}}`))
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "startup_timeout_ms = 20000")
	assert.NotContains(t, text, "20000.0")
	assert.Contains(t, text, "ratio = 0.5")
	assert.Contains(t, text, "[mcp_servers.fs]")
}

func TestJSONToTOML_RoundTrip(t *testing.T) {
	original := []byte(`{"a":{"b":["x","y"],"n":3,"ok":true}}`)
	tomlOut, err := JSONToTOML(original)
	require.NoError(t, err)

	back, err := TOMLToJSON(tomlOut)
	require.NoError(t, err)
	assert.JSONEq(t, string(original), string(back))
}

func TestJSONToYAML(t *testing.T) {
	out, err := JSONToYAML([]byte(`{"tool":"amp","servers":2}`))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(out), "tool: amp"), "got %s", out)
	assert.True(t, strings.Contains(string(out), "servers: 2"), "got %s", out)
}
