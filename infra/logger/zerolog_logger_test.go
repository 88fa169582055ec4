package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger("dispatch", Options{Level: "debug", Format: "json", Output: &buf})

	l.Debugw("coupling changed", map[string]any{"coupling": "series", "channel": 0})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "dispatch", entry["component"])
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "series", entry["coupling"])
	assert.Equal(t, "coupling changed", entry["message"])
}

func TestZerologLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger("x", Options{Level: "warn", Format: "json", Output: &buf})

	l.Debugf("hidden")
	l.Infof("hidden")
	l.Warnf("shown %d", 1)
	l.Errorf("shown %d", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.NotContains(t, buf.String(), "hidden")
}

func TestZerologLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger("sim", Options{Format: "console", Output: &buf})
	l.Infof("ready %s", "ok")
	assert.Contains(t, buf.String(), "ready ok")
}

func TestConfigure(t *testing.T) {
	assert.Error(t, Configure(Options{Level: "loud"}))

	var buf bytes.Buffer
	require.NoError(t, Configure(Options{Level: "error", Format: "json", Output: &buf}))
	t.Cleanup(func() { _ = Configure(Options{}) })

	l := New("cfg")
	l.Infof("dropped")
	l.Errorf("kept")
	assert.Contains(t, buf.String(), "kept")
	assert.NotContains(t, buf.String(), "dropped")
}
