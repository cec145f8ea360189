package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAdminChatIDs(t *testing.T) {
	require.Equal(t, []int64{1, 2, 3}, ParseAdminChatIDs("1,2,3"))
	require.Equal(t, []int64{42}, ParseAdminChatIDs(" 42 "))
	require.Equal(t, []int64{7, 9}, ParseAdminChatIDs("7, junk, 9,"))
	require.Nil(t, ParseAdminChatIDs(""))
}

func TestIsAdmin(t *testing.T) {
	bot, err := NewBot("token", "", []int64{10, 20}, "")
	require.NoError(t, err)

	require.True(t, bot.IsAdmin(10))
	require.True(t, bot.IsAdmin(20))
	require.False(t, bot.IsAdmin(30))
}
