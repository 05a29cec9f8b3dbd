package logx

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

// keepGlobals restores zerolog's package state after a test changes it.
func keepGlobals(t *testing.T) {
	t.Helper()
	logger, marshal := log.Logger, zerolog.CallerMarshalFunc
	t.Cleanup(func() {
		log.Logger = logger
		zerolog.CallerMarshalFunc = marshal
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("json lines at level", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, "warn", false)
		require.NoError(t, err)

		logger.Info().Msg("hidden")
		logger.Warn().Int("generation", 3).Msg("shown")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "shown", line["message"])
		require.Equal(t, "warn", line["level"])
		require.EqualValues(t, 3, line["generation"])
		require.Contains(t, line, "caller")
	})

	t.Run("default level is info", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, "", false)
		require.NoError(t, err)

		logger.Debug().Msg("hidden")

		require.Zero(t, buf.Len())
	})

	t.Run("unknown level", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := NewLogger(&buf, "loud", false)
		require.Error(t, err)
	})

	t.Run("console output", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, "INFO", true)
		require.NoError(t, err)

		logger.Info().Msg("ready")

		require.Contains(t, buf.String(), "ready")
		require.Contains(t, buf.String(), "logx_test.go")
	})

	t.Run("console logger leaves caller format alone", func(t *testing.T) {
		keepGlobals(t)
		zerolog.CallerMarshalFunc = func(uintptr, string, int) string { return "unchanged" }

		var buf bytes.Buffer
		logger, err := NewLogger(&buf, "info", true)
		require.NoError(t, err)
		logger.Info().Msg("ready")

		require.Equal(t, "unchanged", zerolog.CallerMarshalFunc(0, "/src/logx/logx.go", 7))
		require.Contains(t, buf.String(), "unchanged")
	})
}

func TestSetup(t *testing.T) {
	t.Run("console installs the global logger", func(t *testing.T) {
		keepGlobals(t)

		require.NoError(t, Setup("debug", true))

		require.Equal(t, zerolog.DebugLevel, log.Logger.GetLevel())
		caller := zerolog.CallerMarshalFunc(0, "/src/milestone/logx/logx.go", 7)
		require.Equal(t, "logx.go:7", strings.TrimSpace(caller))
		require.Len(t, caller, 24)
	})

	t.Run("json keeps full caller paths", func(t *testing.T) {
		keepGlobals(t)
		before := zerolog.CallerMarshalFunc(0, "/src/milestone/logx/logx.go", 7)

		require.NoError(t, Setup("warn", false))

		require.Equal(t, zerolog.WarnLevel, log.Logger.GetLevel())
		require.Equal(t, before, zerolog.CallerMarshalFunc(0, "/src/milestone/logx/logx.go", 7))
	})

	t.Run("unknown level keeps the old logger", func(t *testing.T) {
		keepGlobals(t)
		level := log.Logger.GetLevel()

		require.Error(t, Setup("loud", true))

		require.Equal(t, level, log.Logger.GetLevel())
	})
}
