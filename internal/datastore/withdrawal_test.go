package datastore

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"apexearn/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

func openTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("Skipping test: TEST_DB_DSN not set")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if err := db.Ping(); err != nil {
		t.Skip("Skipping test: database not available")
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, CreateTableUser(ctx, db))
	require.NoError(t, CreateTableTask(ctx, db))
	require.NoError(t, CreateTableTaskCompletion(ctx, db))
	require.NoError(t, CreateTableWithdrawal(ctx, db))
	require.NoError(t, CreateTableConfig(ctx, db))

	return db
}

func createTestUser(t *testing.T, db *bun.DB, balance float64) *models.User {
	t.Helper()

	user := &models.User{
		ID:                  time.Now().UnixNano(),
		FirstName:           "test",
		Balance:             balance,
		JoiningDate:         time.Now(),
		LastActiveDate:      models.Today(),
		DailyCompletedTasks: []int64{},
	}

	created, err := CreateUser(context.Background(), db, user)
	require.NoError(t, err)
	require.True(t, created)

	return user
}

func requestTestWithdrawal(t *testing.T, db *bun.DB, userID int64, amount float64) *models.Withdrawal {
	t.Helper()

	withdrawal := &models.Withdrawal{
		ID:     uuid.NewString(),
		UserID: userID,
		Amount: amount,
		UPI:    "test@upi",
		Status: models.WithdrawalStatusPending,
	}

	applied, err := CreateWithdrawalRequest(context.Background(), db, withdrawal)
	require.NoError(t, err)
	require.True(t, applied)

	return withdrawal
}

func TestWithdrawThenDeclineIsIdentity(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, 30)

	withdrawal := requestTestWithdrawal(t, db, user.ID, 20)
	require.True(t, withdrawal.First)

	deducted, err := FindUserByID(ctx, db, user.ID)
	require.NoError(t, err)
	require.Equal(t, 10.0, deducted.Balance)
	require.Equal(t, 20.0, deducted.TotalWithdrawn)
	require.Equal(t, 1, deducted.WithdrawCount)

	declined, err := DeclineWithdrawal(ctx, db, withdrawal.ID)
	require.NoError(t, err)
	require.NotNil(t, declined)
	require.Equal(t, models.WithdrawalStatusDeclined, declined.Status)

	restored, err := FindUserByID(ctx, db, user.ID)
	require.NoError(t, err)
	require.Equal(t, 30.0, restored.Balance)
	require.Equal(t, 0.0, restored.TotalWithdrawn)
	require.Equal(t, 0, restored.WithdrawCount)

	// the decline restored the zero count, so the next request is first again
	retry := requestTestWithdrawal(t, db, user.ID, 20)
	require.True(t, retry.First)

	// and a repeated decline of the old request finds nothing pending
	again, err := DeclineWithdrawal(ctx, db, withdrawal.ID)
	require.NoError(t, err)
	require.Nil(t, again)
}

func TestInsufficientBalanceLeavesNothingBehind(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, 5)

	withdrawal := &models.Withdrawal{
		ID:     uuid.NewString(),
		UserID: user.ID,
		Amount: 20,
		UPI:    "test@upi",
		Status: models.WithdrawalStatusPending,
	}

	applied, err := CreateWithdrawalRequest(ctx, db, withdrawal)
	require.NoError(t, err)
	require.False(t, applied)

	unchanged, err := FindUserByID(ctx, db, user.ID)
	require.NoError(t, err)
	require.Equal(t, 5.0, unchanged.Balance)
	require.Equal(t, 0, unchanged.WithdrawCount)

	_, err = GetWithdrawalByID(ctx, db, withdrawal.ID)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestApproveWithdrawalPaysReferrerOnce(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	referrer := createTestUser(t, db, 0)
	referee := createTestUser(t, db, 10)
	require.NoError(t, AddReferral(ctx, db, referee.ID, referrer.ID))

	withdrawal := requestTestWithdrawal(t, db, referee.ID, 10)
	require.True(t, withdrawal.First)

	approved, referrerID, err := ApproveWithdrawal(ctx, db, withdrawal.ID, 0.5)
	require.NoError(t, err)
	require.NotNil(t, approved)
	require.Equal(t, models.WithdrawalStatusApproved, approved.Status)
	require.Equal(t, referrer.ID, referrerID)

	paid, err := FindUserByID(ctx, db, referrer.ID)
	require.NoError(t, err)
	require.Equal(t, 0.5, paid.Balance)
	require.Equal(t, 0.5, paid.ReferralEarnings)

	// a second tap loses the status-flip race and pays nothing
	again, againReferrer, err := ApproveWithdrawal(ctx, db, withdrawal.ID, 0.5)
	require.NoError(t, err)
	require.Nil(t, again)
	require.Zero(t, againReferrer)

	unchanged, err := FindUserByID(ctx, db, referrer.ID)
	require.NoError(t, err)
	require.Equal(t, 0.5, unchanged.Balance)
}

func TestChangeUserBalanceRefusesNegative(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, 5)

	require.ErrorIs(t, ChangeUserBalance(ctx, db, user.ID, -10), sql.ErrNoRows)

	unchanged, err := FindUserByID(ctx, db, user.ID)
	require.NoError(t, err)
	require.Equal(t, 5.0, unchanged.Balance)

	require.NoError(t, ChangeUserBalance(ctx, db, user.ID, -5))
	drained, err := FindUserByID(ctx, db, user.ID)
	require.NoError(t, err)
	require.Equal(t, 0.0, drained.Balance)

	require.ErrorIs(t, ChangeUserBalance(ctx, db, user.ID+1, 3), sql.ErrNoRows)
}
