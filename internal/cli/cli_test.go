package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("defaults leave overrides empty", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse(nil, &out)
		require.NoError(t, err)
		assert.False(t, exit)
		assert.Empty(t, cfg.ConfigPath)
		assert.Empty(t, cfg.ListenAddr)
		assert.Empty(t, cfg.LogLevel)
		assert.Empty(t, cfg.LogFormat)
	})

	t.Run("all flags populate the config", func(t *testing.T) {
		var out bytes.Buffer
		cfg, _, err := Parse([]string{
			"-config", "close.hcl",
			"-listen", ":9090",
			"-log-level", "DEBUG",
			"-log-format", "json",
		}, &out)
		require.NoError(t, err)
		assert.Equal(t, "close.hcl", cfg.ConfigPath)
		assert.Equal(t, ":9090", cfg.ListenAddr)
		assert.Equal(t, "debug", cfg.LogLevel, "levels normalize to lower case")
		assert.Equal(t, "json", cfg.LogFormat)
	})

	t.Run("help requests a clean exit", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse([]string{"-help"}, &out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	})

	t.Run("invalid log format", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"-log-format", "xml"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})

	t.Run("invalid log level", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"-log-level", "loud"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})

	t.Run("unknown flag", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"-bogus"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})
}
