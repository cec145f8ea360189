package services

import (
	"context"
	"database/sql"
	"errors"

	"apexearn/internal/datastore"
	"apexearn/internal/interfaces"
	"apexearn/internal/models"
	"apexearn/internal/pkg/caching"

	"github.com/go-redis/redis_rate/v10"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceReward struct {
	postgresDB *bun.DB
	cache      caching.Cache
	limiter    interfaces.Limiter

	serviceUser *ServiceUser
}

func NewServiceReward(container *do.Injector) (*ServiceReward, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	limiter, err := do.Invoke[interfaces.Limiter](container)
	if err != nil {
		return nil, err
	}

	serviceUser, err := do.Invoke[*ServiceUser](container)
	if err != nil {
		return nil, err
	}

	return &ServiceReward{postgresDB, cache, limiter, serviceUser}, nil
}

// Redeem validates a submitted verification code and credits the reward at
// most once per (user, task) pair. Task codes compare case-sensitively; only
// the daily check-in code is case-insensitive, and that asymmetry is
// deliberate.
//
// Crediting is not guarded by any in-process lock: the completion insert's
// reported row count inside datastore.RedeemTask is the sole gate, so two
// racing submissions of the correct code credit exactly once.
func (service *ServiceReward) Redeem(ctx context.Context, userID int64, taskID int64, submittedCode string) (*models.Task, error) {
	err := service.limiter.Allow(ctx, LimitKeyCodeSubmit(userID), redis_rate.PerMinute(CODE_SUBMIT_RATE_LIMIT_PER_MINUTE))
	if err != nil {
		return nil, err
	}

	user, err := service.serviceUser.FindUserByIDNoCache(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotRegistered
	}
	if err != nil {
		return nil, err
	}
	if user.IsBanned {
		return nil, ErrUserBanned
	}

	// tasks are immutable once created; deletion invalidates the key
	task, err := caching.UseCache(ctx, service.cache, DBKeyTask(taskID), CACHE_TTL_5_MINS, func() (*models.Task, error) {
		return datastore.GetTaskByID(ctx, service.postgresDB, taskID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		// deleted by an admin mid-flow
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}

	if submittedCode != task.VerificationCode {
		// no mutation; the user may retry with a new code
		return nil, ErrWrongCode
	}

	credited, err := datastore.RedeemTask(ctx, service.postgresDB, userID, task)
	if errors.Is(err, datastore.ErrDailyLimitReached) {
		return nil, ErrDailyLimitReached
	}
	if err != nil {
		return nil, err
	}
	if !credited {
		return nil, ErrAlreadyCompleted
	}

	_ = service.serviceUser.cache.Delete(ctx, DBKeyUser(userID))

	return task, nil
}
