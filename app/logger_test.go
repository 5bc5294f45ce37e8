package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "info", LogFormatJSON)
	require.NoError(t, err)

	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.With("module", "relayer").Info("delivered message", "origin", 1)
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "delivered message", line["message"])
	assert.Equal(t, "relayer", line["module"])
	assert.Equal(t, "info", line["level"])
}

func TestNewLoggerRejectsBadOptions(t *testing.T) {
	_, err := NewLogger(&bytes.Buffer{}, "loud", LogFormatPlain)
	require.Error(t, err)

	_, err = NewLogger(&bytes.Buffer{}, "info", "xml")
	require.Error(t, err)
}
