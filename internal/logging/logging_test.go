package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dayahead-sim/internal/config"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("bid dropped", "bid", "DE/ccgt#3")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "bid dropped", rec["msg"])
	assert.Equal(t, "DE/ccgt#3", rec["bid"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LogConfig{}, &buf)
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("cleared", "area", "FR")
	assert.Contains(t, buf.String(), "msg=cleared area=FR")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewRejectsUnknown(t *testing.T) {
	_, err := New(config.LogConfig{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
	_, err = New(config.LogConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}
