package services

import (
	"context"
	"time"

	"apexearn/internal/datastore"
	"apexearn/internal/models"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type Stats struct {
	TotalUsers         int                     `json:"total_users"`
	UsersJoinedToday   int                     `json:"users_joined_today"`
	TotalCompletions   int                     `json:"total_completions"`
	TasksPerProvider   map[models.Provider]int `json:"tasks_per_provider"`
	PendingWithdrawals int                     `json:"pending_withdrawals"`
	TotalUserBalance   float64                 `json:"total_user_balance"`
}

type ServiceStats struct {
	postgresDB *bun.DB
}

func NewServiceStats(container *do.Injector) (*ServiceStats, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	return &ServiceStats{postgresDB}, nil
}

func (service *ServiceStats) Collect(ctx context.Context) (*Stats, error) {
	stats := &Stats{TasksPerProvider: map[models.Provider]int{}}

	var err error
	if stats.TotalUsers, err = datastore.CountUsers(ctx, service.postgresDB); err != nil {
		return nil, err
	}

	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	if stats.UsersJoinedToday, err = datastore.CountUsersJoinedSince(ctx, service.postgresDB, midnight); err != nil {
		return nil, err
	}

	if stats.TotalCompletions, err = datastore.CountCompletions(ctx, service.postgresDB); err != nil {
		return nil, err
	}

	for _, provider := range models.Providers {
		count, err := datastore.CountTasksByProvider(ctx, service.postgresDB, provider)
		if err != nil {
			return nil, err
		}
		stats.TasksPerProvider[provider] = count
	}

	if stats.PendingWithdrawals, err = datastore.CountPendingWithdrawals(ctx, service.postgresDB); err != nil {
		return nil, err
	}

	if stats.TotalUserBalance, err = datastore.SumUserBalances(ctx, service.postgresDB); err != nil {
		return nil, err
	}

	return stats, nil
}
