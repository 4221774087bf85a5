package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)

func TestResolveRange_Lookback(t *testing.T) {
	since, until, err := resolveRange(14, "", "", testNow)

	require.NoError(t, err)
	assert.Equal(t, "2025-10-01", since)
	assert.Equal(t, "2025-10-15", until)
}

func TestResolveRange_ExplicitDates(t *testing.T) {
	since, until, err := resolveRange(14, "2025-09-01", "2025-09-30", testNow)

	require.NoError(t, err)
	assert.Equal(t, "2025-09-01", since)
	assert.Equal(t, "2025-09-30", until)
}

func TestResolveRange_StartOnlyEndsToday(t *testing.T) {
	since, until, err := resolveRange(14, "2025-10-10", "", testNow)

	require.NoError(t, err)
	assert.Equal(t, "2025-10-10", since)
	assert.Equal(t, "2025-10-15", until)
}

func TestResolveRange_EndOnlyUsesLookback(t *testing.T) {
	since, until, err := resolveRange(7, "", "2025-09-30", testNow)

	require.NoError(t, err)
	assert.Equal(t, "2025-09-23", since)
	assert.Equal(t, "2025-09-30", until)
}

func TestResolveRange_MalformedDateFails(t *testing.T) {
	_, _, err := resolveRange(14, "not-a-date", "", testNow)
	assert.Error(t, err)

	_, _, err = resolveRange(14, "", "also-bad", testNow)
	assert.Error(t, err)
}

func TestResolveRange_InvertedRangeFails(t *testing.T) {
	_, _, err := resolveRange(14, "2025-10-10", "2025-10-01", testNow)

	assert.Error(t, err)
}
