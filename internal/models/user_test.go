package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTodayLayout(t *testing.T) {
	today := Today()

	parsed, err := time.Parse(DateLayout, today)
	require.NoError(t, err)
	require.Equal(t, today, parsed.Format(DateLayout))
}

func TestNeedsDailyReset(t *testing.T) {
	user := &User{LastActiveDate: "2026-08-30"}

	require.True(t, user.NeedsDailyReset("2026-08-31"))
	require.False(t, user.NeedsDailyReset("2026-08-30"))

	// a fresh user with no recorded date always resets
	require.True(t, (&User{}).NeedsDailyReset("2026-08-31"))
}

func TestUnlocked(t *testing.T) {
	user := &User{LastRenewDate: "2026-08-31"}

	require.True(t, user.Unlocked("2026-08-31"))

	// yesterday's check-in lapses at the date rollover
	require.False(t, user.Unlocked("2026-09-01"))
	require.False(t, (&User{}).Unlocked("2026-08-31"))
}
