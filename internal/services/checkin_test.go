package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchesCheckinCode(t *testing.T) {
	require.True(t, MatchesCheckinCode("SUNRISE", "sunrise"))
	require.True(t, MatchesCheckinCode("sunrise", "SUNRISE"))
	require.True(t, MatchesCheckinCode("SunRise", "  sunrise  "))
	require.False(t, MatchesCheckinCode("SUNRISE", "sunset"))
	require.False(t, MatchesCheckinCode("SUNRISE", ""))

	// no code configured means nothing unlocks
	require.False(t, MatchesCheckinCode("", ""))
	require.False(t, MatchesCheckinCode("", "anything"))
}
