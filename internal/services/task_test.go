package services

import (
	"testing"

	"apexearn/internal/models"

	"github.com/stretchr/testify/require"
)

func TestProviderForCount(t *testing.T) {
	cases := []struct {
		count    int
		provider models.Provider
		ok       bool
	}{
		{0, models.ProviderGPLinks, true},
		{1, models.ProviderGPLinks, true},
		{2, models.ProviderShrinkMe, true},
		{3, models.ProviderShrinkMe, true},
		{4, models.ProviderShrinkEarn, true},
		{5, models.ProviderShrinkEarn, true},
		{6, "", false},
		{7, "", false},
		{-1, "", false},
	}

	for _, tc := range cases {
		provider, ok := ProviderForCount(tc.count)
		require.Equal(t, tc.ok, ok, "count %d", tc.count)
		require.Equal(t, tc.provider, provider, "count %d", tc.count)
	}
}

func TestPickRandomTaskSingle(t *testing.T) {
	tasks := []models.Task{{ID: 7, Provider: models.ProviderGPLinks}}

	task, err := pickRandomTask(tasks)
	require.NoError(t, err)
	require.Equal(t, int64(7), task.ID)
}

func TestPickRandomTaskMembership(t *testing.T) {
	tasks := []models.Task{{ID: 1}, {ID: 2}, {ID: 3}}
	ids := map[int64]bool{1: true, 2: true, 3: true}

	for i := 0; i < 20; i++ {
		task, err := pickRandomTask(tasks)
		require.NoError(t, err)
		require.True(t, ids[task.ID], "picked unknown task %d", task.ID)
	}
}
