package logger

import (
	"log/slog"
	"testing"

	"github.com/askdb/askdb/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseLevel(tc.name), "level name %q", tc.name)
	}
}

func TestSetup(t *testing.T) {
	log := Setup(config.ServerConfig{LogLevel: "debug"})
	require.NotNil(t, log)
	assert.True(t, log.Enabled(t.Context(), slog.LevelDebug))

	log = Setup(config.ServerConfig{LogLevel: "warn", Dev: true})
	require.NotNil(t, log)
	assert.False(t, log.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, log.Enabled(t.Context(), slog.LevelWarn))
}
