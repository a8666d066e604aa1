package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/stakesync/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("debug"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("chatty"), "Unknown levels fall back to info")
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("it writes JSON with a British timestamp", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var out bytes.Buffer
		log := logger.NewFromConfig(logger.Config{LogLevel: "info", Output: &out})

		// Act
		log.Info("Polling started", slog.String("key", "delegator/user"))

		// Assert
		var entry map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &entry))
		assert.Equal(t, "Polling started", entry["msg"])
		assert.Equal(t, "delegator/user", entry["key"])

		_, err := time.Parse(logger.BritishTimeFormat, entry["time"].(string))
		assert.NoError(t, err)
	})

	t.Run("it writes text when human friendly and filters by level", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var out bytes.Buffer
		log := logger.NewFromConfig(logger.Config{LogLevel: "warn", LogHumanFriendly: true, Output: &out})

		// Act
		log.Info("hidden")
		log.Warn("Polling error", slog.String("key", "operator/user"))

		// Assert
		assert.NotContains(t, out.String(), "hidden")
		assert.True(t, strings.Contains(out.String(), "key=operator/user"))
	})
}
