package services

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"apexearn/internal/datastore"
	"apexearn/internal/models"
	"apexearn/internal/pkg/caching"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type ServiceUser struct {
	postgresDB *bun.DB
	cache      caching.Cache

	serviceConfig *ServiceConfig
	bot           *Bot
}

func NewServiceUser(container *do.Injector) (*ServiceUser, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	bot, err := do.Invoke[*Bot](container)
	if err != nil {
		return nil, err
	}

	return &ServiceUser{postgresDB, cache, serviceConfig, bot}, nil
}

func (service *ServiceUser) FindUserByID(ctx context.Context, userID int64) (*models.User, error) {
	callback := func() (*models.User, error) {
		return datastore.FindUserByID(ctx, service.postgresDB, userID)
	}
	return caching.UseCache(ctx, service.cache, DBKeyUser(userID), CACHE_TTL_1_MIN, callback)
}

func (service *ServiceUser) FindUserByIDNoCache(ctx context.Context, userID int64) (*models.User, error) {
	return datastore.FindUserByID(ctx, service.postgresDB, userID)
}

// RegisterUser creates the account once the email step has been passed.
// Duplicate registrations for the same account id are no-ops. A referrer
// captured from the /start payload is recorded here; it earns nothing until
// the referee's first successful withdrawal.
func (service *ServiceUser) RegisterUser(ctx context.Context, userID int64, firstName, username, email string, referrerID int64) (*models.User, error) {
	email = strings.TrimSpace(email)
	if !emailRegex.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	existing, err := datastore.FindUserByEmail(ctx, service.postgresDB, email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if existing != nil && existing.ID != userID {
		return nil, ErrInvalidEmail
	}

	user := &models.User{
		ID:                  userID,
		FirstName:           firstName,
		Username:            strings.ToLower(username),
		Email:               &email,
		JoiningDate:         time.Now(),
		LastActiveDate:      models.Today(),
		DailyCompletedTasks: []int64{},
	}

	created, err := datastore.CreateUser(ctx, service.postgresDB, user)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, ErrAlreadyRegistered
	}

	log.Println("RegisterUser:", "user:", user.ID, "username:", user.Username)

	if referrerID != 0 {
		if err := service.AddReferral(ctx, userID, referrerID); err != nil {
			log.Println("AddReferral skipped:", err, "user:", userID, "referrer:", referrerID)
		}
	}

	return user, nil
}

// AddReferral links referee to referrer at registration time only. The
// back-reference is write-once; self-referrals are rejected.
func (service *ServiceUser) AddReferral(ctx context.Context, refereeID, referrerID int64) error {
	if refereeID == referrerID {
		return ErrSelfReferral
	}

	referrer, err := service.FindUserByID(ctx, referrerID)
	if err != nil || referrer == nil {
		return ErrUserNotRegistered
	}

	err = datastore.AddReferral(ctx, service.postgresDB, refereeID, referrerID)
	if err != nil {
		return err
	}

	_ = service.cache.Delete(ctx, DBKeyUser(refereeID))
	_ = service.cache.Delete(ctx, DBKeyUser(referrerID))

	go func() {
		err := service.bot.SendMsg(referrerID, "🎉 A friend joined with your referral link! You will earn a bonus when they make their first withdrawal.")
		if err != nil {
			log.Println(err)
		}
	}()

	return nil
}

func (service *ServiceUser) SetBanned(ctx context.Context, userID int64, banned bool) error {
	err := datastore.SetUserBanned(ctx, service.postgresDB, userID, banned)
	if err != nil {
		return err
	}

	return service.cache.Delete(ctx, DBKeyUser(userID))
}

// CreditBalance is the admin adjustment path. A deduction that would take
// the balance below zero is refused at the store, not clamped.
func (service *ServiceUser) CreditBalance(ctx context.Context, userID int64, amount float64) error {
	err := datastore.ChangeUserBalance(ctx, service.postgresDB, userID, amount)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrInsufficientBalance
	}
	if err != nil {
		return err
	}

	return service.cache.Delete(ctx, DBKeyUser(userID))
}

// ListUsers pages through accounts oldest first.
func (service *ServiceUser) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return datastore.GetUsersSortedByJoiningDate(ctx, service.postgresDB, limit, offset)
}

func (service *ServiceUser) CountReferrals(ctx context.Context, userID int64) (int, error) {
	return datastore.CountReferralsByUser(ctx, service.postgresDB, userID)
}
