package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesTypedFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, &Config{Level: "info"})
	require.NoError(t, err)

	l.With(String("env", "test")).Info("trained",
		String("ticker", "AAPL"),
		Int("closes", 250),
		Duration("took", 1500*time.Millisecond),
		Error(errors.New("boom")),
	)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "trained", entry["message"])
	assert.Equal(t, "test", entry["env"])
	assert.Equal(t, "AAPL", entry["ticker"])
	assert.EqualValues(t, 250, entry["closes"])
	assert.EqualValues(t, 1500, entry["took"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, &Config{Level: "warn"})
	require.NoError(t, err)

	l.Info("dropped")
	l.Debug("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept")
	assert.Contains(t, buf.String(), `"kept"`)
}

func TestLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNopDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop().With(Bool("x", true)).Error("ignored", Strings("k", []string{"a"}))
	})
}
