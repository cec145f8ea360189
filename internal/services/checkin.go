package services

import (
	"context"
	"strings"

	"apexearn/internal/datastore"
	"apexearn/internal/models"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceCheckin struct {
	postgresDB *bun.DB

	serviceConfig *ServiceConfig
	serviceUser   *ServiceUser
}

func NewServiceCheckin(container *do.Injector) (*ServiceCheckin, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	serviceUser, err := do.Invoke[*ServiceUser](container)
	if err != nil {
		return nil, err
	}

	return &ServiceCheckin{postgresDB, serviceConfig, serviceUser}, nil
}

// MatchesCheckinCode compares case-insensitively. Task verification codes
// are exact matches; the daily code is the one deliberate exception.
func MatchesCheckinCode(stored, submitted string) bool {
	return stored != "" && strings.EqualFold(strings.TrimSpace(submitted), stored)
}

// Unlock moves the user's gate to UNLOCKED for the current calendar day.
// The unlock holds for the stored date only and lapses implicitly at the
// next date; there is no sliding 24h window.
func (service *ServiceCheckin) Unlock(ctx context.Context, userID int64, submittedCode string) error {
	code, err := service.serviceConfig.GetConfigString(ctx, CONFIG_CHECKIN_CODE)
	if err != nil {
		return err
	}

	if !MatchesCheckinCode(code, submittedCode) {
		return ErrWrongCode
	}

	if err := datastore.SetRenewDate(ctx, service.postgresDB, userID, models.Today()); err != nil {
		return err
	}

	return service.serviceUser.cache.Delete(ctx, DBKeyUser(userID))
}

// SetCode overwrites the current check-in code. No history, no expiry: the
// stored value is valid until the next overwrite.
func (service *ServiceCheckin) SetCode(ctx context.Context, code string) error {
	return service.serviceConfig.SetConfig(ctx, CONFIG_CHECKIN_CODE, strings.TrimSpace(code))
}
