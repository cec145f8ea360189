package datastore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"apexearn/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableUser(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.User)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.User)(nil)).Index("index_user_email").Unique().IfNotExists().Column("email").Where("email IS NOT NULL").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.User)(nil)).Index("index_user_referred_by").IfNotExists().Column("referred_by").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewRaw(`
		alter table "user"
			add if not exists chat_status varchar default null;
		alter table "user"
			alter column joining_date set default current_timestamp;`).Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func FindUserByID(ctx context.Context, db *bun.DB, userID int64) (*models.User, error) {
	var user models.User
	err := db.NewSelect().Model(&user).Where("id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByEmail(ctx context.Context, db *bun.DB, email string) (*models.User, error) {
	var user models.User
	err := db.NewSelect().Model(&user).Where("email = ?", email).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts the user unless the account id already exists.
// Duplicate registrations are no-ops; the returned flag reports whether a
// row was actually created.
func CreateUser(ctx context.Context, db *bun.DB, user *models.User) (bool, error) {
	res, err := db.NewInsert().Model(user).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// ResetDailyProgress zeroes the daily counters the first time it runs on a
// new calendar date. The date guard makes it a no-op on repeat calls, so two
// concurrent handlers reset at most once.
func ResetDailyProgress(ctx context.Context, db *bun.DB, userID int64, today string) error {
	_, err := db.NewUpdate().
		Model((*models.User)(nil)).
		Set("daily_task_count = 0").
		Set("daily_completed_tasks = '{}'").
		Set("last_active_date = ?", today).
		Where("id = ?", userID).
		Where("last_active_date IS DISTINCT FROM ?", today).
		Exec(ctx)
	return err
}

func SetUserBanned(ctx context.Context, db *bun.DB, userID int64, banned bool) error {
	res, err := db.NewUpdate().
		Model((*models.User)(nil)).
		Set("is_banned = ?", banned).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func SetRenewDate(ctx context.Context, db *bun.DB, userID int64, today string) error {
	_, err := db.NewUpdate().
		Model((*models.User)(nil)).
		Set("last_renew_date = ?", today).
		Where("id = ?", userID).
		Exec(ctx)
	return err
}

// ChangeUserBalance applies a relative adjustment, refusing any change that
// would take the balance below zero. Used for admin adjustments; task
// rewards go through RedeemTask instead.
func ChangeUserBalance(ctx context.Context, db *bun.DB, userID int64, amount float64) error {
	res, err := db.NewUpdate().
		Model((*models.User)(nil)).
		Set("balance = balance + ?", amount).
		Where("id = ?", userID).
		Where("balance + ? >= 0", amount).
		Exec(ctx)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// CreditReferralBonus adds the reward to both balance and referral_earnings
// of the referrer in one statement. Takes bun.IDB so it can run inside the
// approval transaction.
func CreditReferralBonus(ctx context.Context, idb bun.IDB, referrerID int64, reward float64) error {
	_, err := idb.NewUpdate().
		Model((*models.User)(nil)).
		Set("balance = balance + ?", reward).
		Set("referral_earnings = referral_earnings + ?", reward).
		Where("id = ?", referrerID).
		Exec(ctx)
	return err
}

// AddReferral links the referee to the referrer and bumps the referrer's
// count. The referred_by guard keeps the back-reference write-once.
func AddReferral(ctx context.Context, db *bun.DB, refereeID, referrerID int64) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("referred_by = ?", referrerID).
			Where("id = ?", refereeID).
			Where("referred_by IS NULL").
			Exec(ctx)
		if err != nil {
			return err
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return errors.New("user already has a referrer")
		}

		_, err = tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("referral_count = referral_count + 1").
			Where("id = ?", referrerID).
			Exec(ctx)
		return err
	})
}

// RefundWithdrawal reverses the withdrawal deduction exactly: withdraw then
// refund is the identity on balance, total_withdrawn and withdraw_count.
// Takes bun.IDB so it can run inside the decline transaction.
func RefundWithdrawal(ctx context.Context, idb bun.IDB, userID int64, amount float64) error {
	_, err := idb.NewUpdate().
		Model((*models.User)(nil)).
		Set("balance = balance + ?", amount).
		Set("total_withdrawn = total_withdrawn - ?", amount).
		Set("withdraw_count = withdraw_count - 1").
		Where("id = ?", userID).
		Exec(ctx)
	return err
}

func CountUsers(ctx context.Context, db *bun.DB) (int, error) {
	return db.NewSelect().Model((*models.User)(nil)).Count(ctx)
}

func CountUsersJoinedSince(ctx context.Context, db *bun.DB, since time.Time) (int, error) {
	return db.NewSelect().Model((*models.User)(nil)).Where("joining_date >= ?", since).Count(ctx)
}

func SumUserBalances(ctx context.Context, db *bun.DB) (float64, error) {
	var total sql.NullFloat64
	err := db.NewSelect().
		Model((*models.User)(nil)).
		ColumnExpr("SUM(balance)").
		Scan(ctx, &total)
	if err != nil {
		return 0, err
	}
	return total.Float64, nil
}

func CountReferralsByUser(ctx context.Context, db *bun.DB, userID int64) (int, error) {
	return db.NewSelect().Model((*models.User)(nil)).Where("referred_by = ?", userID).Count(ctx)
}

func GetUsersSortedByJoiningDate(ctx context.Context, db *bun.DB, limit, offset int) ([]*models.User, error) {
	var users []*models.User
	err := db.NewSelect().Model(&users).Order("joining_date ASC").Limit(limit).Offset(offset).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetBroadcastableUsers pages through users whose chat is still reachable.
func GetBroadcastableUsers(ctx context.Context, db *bun.DB, limit, offset int) ([]*models.User, error) {
	var users []*models.User
	err := db.NewSelect().Model(&users).Where("chat_status IS NULL").Order("joining_date ASC").Limit(limit).Offset(offset).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func UpdateUserChatStatus(ctx context.Context, db *bun.DB, userID int64, status string) error {
	_, err := db.NewUpdate().
		Model((*models.User)(nil)).
		Set("chat_status = ?", status).
		Where("id = ?", userID).
		Exec(ctx)
	return err
}
