package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOpen_CreatesDatabase verifies a fresh file can be opened and queried
func TestOpen_CreatesDatabase(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.Get(&one, "SELECT 1"))
	assert.Equal(t, 1, one)
}

// TestFormatTime_Nil verifies nil times are stored as NULL
func TestFormatTime_Nil(t *testing.T) {
	assert.Nil(t, FormatTime(nil))
}

// TestParseTime verifies stored timestamps parse back to the same instant
func TestParseTime(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 30, 15, 123456789, time.UTC)

	stored, ok := FormatTime(&now).(string)
	require.True(t, ok)
	assert.True(t, now.Equal(ParseTime(stored)))

	assert.True(t, ParseTime("2024-03-01T12:30:15Z").Equal(now.Truncate(time.Second)))
	assert.True(t, ParseTime("garbage").IsZero())
}

// TestFormatTime_SortsLexically verifies string order matches time order
func TestFormatTime_SortsLexically(t *testing.T) {
	earlier := time.Date(2024, 3, 1, 12, 30, 15, 100000000, time.UTC)
	later := time.Date(2024, 3, 1, 12, 30, 15, 120000000, time.UTC)

	a := FormatTime(&earlier).(string)
	b := FormatTime(&later).(string)
	assert.Less(t, a, b)
}
