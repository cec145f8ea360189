package services

import (
	"testing"

	"apexearn/internal/models"

	"github.com/stretchr/testify/require"
)

func TestWithdrawalFloor(t *testing.T) {
	require.Equal(t, 2.0, WithdrawalFloor(0, 2.0, 20.0))
	require.Equal(t, 20.0, WithdrawalFloor(1, 2.0, 20.0))
	require.Equal(t, 20.0, WithdrawalFloor(5, 2.0, 20.0))
}

func TestValidateWithdrawal(t *testing.T) {
	firstTimer := &models.User{Balance: 10}
	returning := &models.User{Balance: 50, WithdrawCount: 2}

	require.NoError(t, ValidateWithdrawal(firstTimer, 2.0, 2.0, 20.0))
	require.NoError(t, ValidateWithdrawal(firstTimer, 10.0, 2.0, 20.0))
	require.NoError(t, ValidateWithdrawal(returning, 20.0, 2.0, 20.0))

	require.ErrorIs(t, ValidateWithdrawal(firstTimer, 0, 2.0, 20.0), ErrBelowMinimum)
	require.ErrorIs(t, ValidateWithdrawal(firstTimer, -5, 2.0, 20.0), ErrBelowMinimum)
	require.ErrorIs(t, ValidateWithdrawal(firstTimer, 1.99, 2.0, 20.0), ErrBelowMinimum)
	require.ErrorIs(t, ValidateWithdrawal(returning, 19.99, 2.0, 20.0), ErrBelowMinimum)

	// below-minimum wins over insufficient-balance when both apply
	broke := &models.User{Balance: 1, WithdrawCount: 1}
	require.ErrorIs(t, ValidateWithdrawal(broke, 5.0, 2.0, 20.0), ErrBelowMinimum)

	require.ErrorIs(t, ValidateWithdrawal(firstTimer, 10.01, 2.0, 20.0), ErrInsufficientBalance)
	require.ErrorIs(t, ValidateWithdrawal(returning, 50.01, 2.0, 20.0), ErrInsufficientBalance)
}
