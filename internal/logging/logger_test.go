package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/quickspace/internal/config"
)

func TestProdLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, &config.AppConfig{AppEnv: "prod", LogLevel: slog.LevelInfo})

	log.Debug("hidden")
	log.Info("weather refreshed", "city", "Oslo")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "weather refreshed", entry["msg"])
	assert.Equal(t, "quickspace", entry["app"])
	assert.Equal(t, "prod", entry["env"])
	assert.Equal(t, "Oslo", entry["city"])
}

func TestDevLoggerIsText(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, &config.AppConfig{AppEnv: "dev", LogLevel: slog.LevelDebug})

	log.Debug("media session changed")

	out := buf.String()
	assert.Contains(t, out, "media session changed")
	assert.False(t, strings.HasPrefix(out, "{"))
}
