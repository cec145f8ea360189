package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProviderOrder(t *testing.T) {
	require.Equal(t, []Provider{ProviderGPLinks, ProviderShrinkMe, ProviderShrinkEarn}, Providers)
}

func TestProviderValid(t *testing.T) {
	for _, provider := range Providers {
		require.True(t, provider.Valid())
	}

	require.False(t, Provider("bitly").Valid())
	require.False(t, Provider("").Valid())
}
