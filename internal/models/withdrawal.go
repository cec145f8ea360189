package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
	WithdrawalStatusDeclined = "declined"
)

// Withdrawal is an optimistically deducted payout request awaiting an
// operator decision. The balance is taken at request time; decline reverses
// the deduction exactly.
type Withdrawal struct {
	bun.BaseModel `bun:"table:withdrawal"`

	ID     string  `bun:"id,pk" json:"id"`
	UserID int64   `bun:"user_id" json:"user_id"`
	Amount float64 `bun:"amount" json:"amount"`
	UPI    string  `bun:"upi" json:"upi"`
	Status string  `bun:"status" json:"status"`

	// First marks a request that took the user's withdraw_count from 0 to 1.
	// The referral bonus fires when such a request is approved.
	First bool `bun:"first" json:"first"`

	CreatedAt time.Time  `bun:"created_at,default:current_timestamp" json:"created_at"`
	DecidedAt *time.Time `bun:"decided_at" json:"decided_at"`
}
