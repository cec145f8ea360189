package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Dates (LastActiveDate, LastRenewDate) are UTC calendar days formatted as
// 2006-01-02. The daily reset and the check-in unlock both compare these
// strings against "today" in UTC.
const DateLayout = "2006-01-02"

type User struct {
	bun.BaseModel `bun:"table:user"`

	ID        int64   `bun:"id,pk" json:"id"`
	FirstName string  `bun:"first_name" json:"first_name"`
	Username  string  `bun:"username" json:"username"`
	Email     *string `bun:"email" json:"email"`

	Balance         float64 `bun:"balance" json:"balance"`
	TotalWithdrawn  float64 `bun:"total_withdrawn" json:"total_withdrawn"`
	WithdrawCount   int     `bun:"withdraw_count" json:"withdraw_count"`
	LastWithdrawUPI *string `bun:"last_withdraw_upi" json:"last_withdraw_upi"`

	ReferredBy       *int64  `bun:"referred_by" json:"referred_by"`
	ReferralCount    int     `bun:"referral_count" json:"referral_count"`
	ReferralEarnings float64 `bun:"referral_earnings" json:"referral_earnings"`

	IsBanned            bool      `bun:"is_banned" json:"is_banned"`
	JoiningDate         time.Time `bun:"joining_date,default:current_timestamp" json:"joining_date"`
	LastActiveDate      string    `bun:"last_active_date" json:"last_active_date"`
	DailyTaskCount      int       `bun:"daily_task_count" json:"daily_task_count"`
	DailyCompletedTasks []int64   `bun:"daily_completed_tasks,array" json:"daily_completed_tasks"`
	LastRenewDate       string    `bun:"last_renew_date" json:"last_renew_date"`

	// Broadcast delivery state: blocked, chat_not_found, deactivated.
	ChatStatus *string `bun:"chat_status" json:"chat_status"`
}

// Today returns the current UTC calendar day in DateLayout.
func Today() string {
	return time.Now().UTC().Format(DateLayout)
}

// NeedsDailyReset reports whether the daily counters are stale for today.
func (u *User) NeedsDailyReset(today string) bool {
	return u.LastActiveDate != today
}

// Unlocked reports whether the user has entered today's check-in code.
func (u *User) Unlocked(today string) bool {
	return u.LastRenewDate == today
}
