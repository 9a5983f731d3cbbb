package logger

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLogger_ReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	l := NewIsolatedLogger(path)

	l.Debug("EventRelay", "dropped below info", nil)
	l.Info("EventRelay", "TURN_COMPLETED", map[string]interface{}{"session_id": "s-1"})
	l.Warn("EventRelay", "Failed to relay event", nil)
	l.Error("EventRelay", "Failed to decode event", map[string]interface{}{"error": "bad json"})
	require.NoError(t, l.Sync())

	entries, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Failed to decode event", entries[0].Message)
	assert.Equal(t, "TURN_COMPLETED", entries[2].Message)
	assert.Equal(t, "EventRelay", entries[2].Module)
	assert.Equal(t, "s-1", entries[2].Details["session_id"])

	warns, err := l.GetLogs("WARN", 10, 0)
	require.NoError(t, err)
	require.Len(t, warns, 1)

	paged, err := l.GetLogs("", 1, 1)
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "Failed to relay event", paged[0].Message)

	found, err := l.GetLogById(entries[1].Id)
	require.NoError(t, err)
	assert.Equal(t, entries[1].Message, found.Message)

	_, err = l.GetLogById("nope")
	assert.True(t, errors.Is(err, ErrLogNotFound))
}

func TestGetLogs_MissingFile(t *testing.T) {
	l := NewIsolatedLogger(filepath.Join(t.TempDir(), "never-written.log"))

	entries, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	nop, err := NewNopLogger().GetLogs("", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, nop)
}
