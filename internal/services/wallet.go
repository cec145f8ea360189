package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"apexearn/internal/datastore"
	"apexearn/internal/models"

	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceWallet struct {
	postgresDB *bun.DB
	rs         *redsync.Redsync

	serviceUser   *ServiceUser
	serviceConfig *ServiceConfig
	bot           *Bot
}

func NewServiceWallet(container *do.Injector) (*ServiceWallet, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	rs, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}

	serviceUser, err := do.Invoke[*ServiceUser](container)
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

	return &ServiceWallet{postgresDB, rs, serviceUser, serviceConfig, bot}, nil
}

// WithdrawalFloor returns the minimum amount for the user's next
// withdrawal: a lower first-time floor, a higher one afterwards.
func WithdrawalFloor(withdrawCount int, minFirst, minNext float64) float64 {
	if withdrawCount == 0 {
		return minFirst
	}
	return minNext
}

// ValidateWithdrawal applies the tier and balance rules without mutating
// anything. BelowMinimum and InsufficientBalance are distinct outcomes.
func ValidateWithdrawal(user *models.User, amount, minFirst, minNext float64) error {
	if amount <= 0 {
		return ErrBelowMinimum
	}
	if amount < WithdrawalFloor(user.WithdrawCount, minFirst, minNext) {
		return ErrBelowMinimum
	}
	if amount > user.Balance {
		return ErrInsufficientBalance
	}
	return nil
}

// RequestWithdrawal deducts optimistically at request time, before any
// operator decision. The deduction and the pending row are written in one
// transaction, and the deduction itself is gated on the balance still
// covering the amount, so a double-tap cannot overdraw and a crash cannot
// strand a deduction without a recorded request.
func (service *ServiceWallet) RequestWithdrawal(ctx context.Context, userID int64, amount float64, upi string) (*models.Withdrawal, error) {
	mutex := service.rs.NewMutex(LockKeyUserWithdraw(userID))
	if err := mutex.TryLock(); err != nil {
		return nil, ErrUserLock
	}
	//nolint:errcheck
	defer mutex.Unlock()

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

	minFirst := service.serviceConfig.GetConfigFloat(ctx, CONFIG_MIN_FIRST_WITHDRAWAL, DEFAULT_MIN_FIRST_WITHDRAWAL)
	minNext := service.serviceConfig.GetConfigFloat(ctx, CONFIG_MIN_NEXT_WITHDRAWAL, DEFAULT_MIN_NEXT_WITHDRAWAL)

	if err := ValidateWithdrawal(user, amount, minFirst, minNext); err != nil {
		return nil, err
	}

	withdrawal := &models.Withdrawal{
		ID:     uuid.NewString(),
		UserID: userID,
		Amount: amount,
		UPI:    upi,
		Status: models.WithdrawalStatusPending,
	}

	applied, err := datastore.CreateWithdrawalRequest(ctx, service.postgresDB, withdrawal)
	if err != nil {
		return nil, err
	}
	if !applied {
		// the conditional update lost to a concurrent deduction
		return nil, ErrInsufficientBalance
	}

	_ = service.serviceUser.cache.Delete(ctx, DBKeyUser(userID))

	go service.notifyAdmins(withdrawal, user)

	return withdrawal, nil
}

// Approve finalizes a pending request. The status flip and, for the
// account's first successful withdrawal, the referrer's one-time bonus
// commit together; a failure rolls both back so the request stays pending
// and retryable.
func (service *ServiceWallet) Approve(ctx context.Context, withdrawalID string) (*models.Withdrawal, error) {
	mutex := service.rs.NewMutex(LockKeyWithdrawalDecision(withdrawalID))
	if err := mutex.TryLock(); err != nil {
		return nil, ErrUserLock
	}
	//nolint:errcheck
	defer mutex.Unlock()

	reward := service.serviceConfig.GetConfigFloat(ctx, CONFIG_REFERRAL_REWARD, DEFAULT_REFERRAL_REWARD)

	withdrawal, referrerID, err := datastore.ApproveWithdrawal(ctx, service.postgresDB, withdrawalID, reward)
	if err != nil {
		return nil, err
	}
	if withdrawal == nil {
		return nil, ErrNotPending
	}

	if referrerID != 0 {
		_ = service.serviceUser.cache.Delete(ctx, DBKeyUser(referrerID))

		go func() {
			err := service.bot.SendMsg(referrerID, fmt.Sprintf("🎁 Referral bonus! ₹%.2f has been added to your balance.", reward))
			if err != nil {
				log.Println(err)
			}
		}()
	}

	go func() {
		err := service.bot.SendMsg(withdrawal.UserID, fmt.Sprintf("✅ Your withdrawal of ₹%.2f to %s has been approved.", withdrawal.Amount, withdrawal.UPI))
		if err != nil {
			log.Println(err)
		}
	}()

	return withdrawal, nil
}

// Decline refunds the optimistic deduction exactly: balance back up,
// total_withdrawn and withdraw_count back down, in the same transaction as
// the status flip. Withdraw-then-decline is the identity on all three
// fields.
func (service *ServiceWallet) Decline(ctx context.Context, withdrawalID string) (*models.Withdrawal, error) {
	mutex := service.rs.NewMutex(LockKeyWithdrawalDecision(withdrawalID))
	if err := mutex.TryLock(); err != nil {
		return nil, ErrUserLock
	}
	//nolint:errcheck
	defer mutex.Unlock()

	withdrawal, err := datastore.DeclineWithdrawal(ctx, service.postgresDB, withdrawalID)
	if err != nil {
		return nil, err
	}
	if withdrawal == nil {
		return nil, ErrNotPending
	}

	_ = service.serviceUser.cache.Delete(ctx, DBKeyUser(withdrawal.UserID))

	go func() {
		err := service.bot.SendMsg(withdrawal.UserID, fmt.Sprintf("❌ Your withdrawal of ₹%.2f was declined. The amount has been returned to your balance.", withdrawal.Amount))
		if err != nil {
			log.Println(err)
		}
	}()

	return withdrawal, nil
}

func (service *ServiceWallet) GetPending(ctx context.Context) ([]models.Withdrawal, error) {
	return datastore.GetPendingWithdrawals(ctx, service.postgresDB)
}

func (service *ServiceWallet) notifyAdmins(withdrawal *models.Withdrawal, user *models.User) {
	text := fmt.Sprintf(
		"💸 Withdrawal request\n\nUser: %s (%d)\nAmount: ₹%.2f\nUPI: %s\nID: %s",
		user.FirstName, user.ID, withdrawal.Amount, withdrawal.UPI, withdrawal.ID,
	)
	if err := service.bot.NotifyAdmins(text, withdrawal.ID); err != nil {
		log.Println("notifyAdmins:", err)
	}
}
