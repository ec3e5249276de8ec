package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "engine.log")

	logger, err := NewLogger(LoggerConfig{Level: "info", OutputPath: path, Format: "json", Service: "settlement-engine"})
	require.NoError(t, err)

	logger.Info("reconciliation completed")
	logger.Debug("hidden")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"reconciliation completed"`)
	assert.Contains(t, string(data), `"service":"settlement-engine"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(LoggerConfig{Level: "loud", OutputPath: "stderr"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))
	assert.True(t, logger.Core().Enabled(0))
}
