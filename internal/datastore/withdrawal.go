package datastore

import (
	"context"
	"time"

	"apexearn/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableWithdrawal(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Withdrawal)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Withdrawal)(nil)).Index("index_withdrawal_status").IfNotExists().Column("status").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Withdrawal)(nil)).Index("index_withdrawal_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// CreateWithdrawalRequest deducts the amount and records the pending request
// in one transaction, so a crash can never leave a deduction without a
// matching row. The deduction is gated on the balance still covering the
// amount; when the gate loses, nothing is written and applied is false.
// withdrawal.First is set from the post-deduction withdraw_count.
func CreateWithdrawalRequest(ctx context.Context, db *bun.DB, withdrawal *models.Withdrawal) (applied bool, err error) {
	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, errTx := tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("balance = balance - ?", withdrawal.Amount).
			Set("total_withdrawn = total_withdrawn + ?", withdrawal.Amount).
			Set("withdraw_count = withdraw_count + 1").
			Set("last_withdraw_upi = ?", withdrawal.UPI).
			Where("id = ?", withdrawal.UserID).
			Where("balance >= ?", withdrawal.Amount).
			Exec(ctx)
		if errTx != nil {
			return errTx
		}

		rows, errTx := res.RowsAffected()
		if errTx != nil {
			return errTx
		}
		if rows == 0 {
			return nil
		}
		applied = true

		var count int
		errTx = tx.NewSelect().
			Model((*models.User)(nil)).
			Column("withdraw_count").
			Where("id = ?", withdrawal.UserID).
			Scan(ctx, &count)
		if errTx != nil {
			return errTx
		}
		withdrawal.First = count == 1

		_, errTx = tx.NewInsert().Model(withdrawal).Exec(ctx)
		return errTx
	})
	return applied, err
}

func GetWithdrawalByID(ctx context.Context, db *bun.DB, id string) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := db.NewSelect().Model(&withdrawal).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

func GetPendingWithdrawals(ctx context.Context, db *bun.DB) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	err := db.NewSelect().
		Model(&withdrawals).
		Where("status = ?", models.WithdrawalStatusPending).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return withdrawals, nil
}

func CountPendingWithdrawals(ctx context.Context, db *bun.DB) (int, error) {
	return db.NewSelect().Model((*models.Withdrawal)(nil)).Where("status = ?", models.WithdrawalStatusPending).Count(ctx)
}

// decideWithdrawalTx flips a pending request to its final status. The status
// guard makes concurrent approve/decline taps resolve to a single winner:
// only the call that reports a changed row may move money or fire the
// referral bonus, and it does so inside the same transaction so a failure
// rolls the flip back too.
func decideWithdrawalTx(ctx context.Context, tx bun.Tx, id string, status string) (*models.Withdrawal, error) {
	res, err := tx.NewUpdate().
		Model((*models.Withdrawal)(nil)).
		Set("status = ?", status).
		Set("decided_at = ?", time.Now()).
		Where("id = ?", id).
		Where("status = ?", models.WithdrawalStatusPending).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, nil
	}

	var withdrawal models.Withdrawal
	err = tx.NewSelect().Model(&withdrawal).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

// ApproveWithdrawal finalizes a pending request and, when it was the user's
// first withdrawal, pays the referrer's one-time bonus, all in one
// transaction. Returns the decided row (nil when the request was not
// pending) and the referrer credited, if any.
func ApproveWithdrawal(ctx context.Context, db *bun.DB, id string, referralReward float64) (withdrawal *models.Withdrawal, referrerID int64, err error) {
	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		decided, errTx := decideWithdrawalTx(ctx, tx, id, models.WithdrawalStatusApproved)
		if errTx != nil || decided == nil {
			return errTx
		}
		withdrawal = decided

		if !withdrawal.First {
			return nil
		}

		var referredBy *int64
		errTx = tx.NewSelect().
			Model((*models.User)(nil)).
			Column("referred_by").
			Where("id = ?", withdrawal.UserID).
			Scan(ctx, &referredBy)
		if errTx != nil {
			return errTx
		}
		if referredBy == nil {
			return nil
		}

		if errTx := CreditReferralBonus(ctx, tx, *referredBy, referralReward); errTx != nil {
			return errTx
		}
		referrerID = *referredBy

		return nil
	})
	return withdrawal, referrerID, err
}

// DeclineWithdrawal flips the request and restores the deduction exactly in
// one transaction: a failed refund rolls the flip back, so the request stays
// pending and the decline is retryable. Returns nil when the request was not
// pending.
func DeclineWithdrawal(ctx context.Context, db *bun.DB, id string) (withdrawal *models.Withdrawal, err error) {
	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		decided, errTx := decideWithdrawalTx(ctx, tx, id, models.WithdrawalStatusDeclined)
		if errTx != nil || decided == nil {
			return errTx
		}
		withdrawal = decided

		return RefundWithdrawal(ctx, tx, withdrawal.UserID, withdrawal.Amount)
	})
	return withdrawal, err
}
