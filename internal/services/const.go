package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUserNotRegistered = errors.New("user not registered")
var ErrUserBanned = errors.New("user banned")
var ErrTasksLocked = errors.New("tasks locked for today")
var ErrDailyLimitReached = errors.New("daily task limit reached")
var ErrNoTasksAvailable = errors.New("no tasks available")
var ErrTaskNotFound = errors.New("task not found")
var ErrWrongCode = errors.New("wrong verification code")
var ErrAlreadyCompleted = errors.New("task already completed")
var ErrBelowMinimum = errors.New("amount below withdrawal minimum")
var ErrInsufficientBalance = errors.New("insufficient balance")
var ErrInvalidEmail = errors.New("invalid email address")
var ErrAlreadyRegistered = errors.New("user already registered")
var ErrNotPending = errors.New("withdrawal already decided")
var ErrSelfReferral = errors.New("user cannot refer himself")
var ErrUserLock = errors.New("user locked")

const (
	CONFIG_CHECKIN_CODE         = "CHECKIN_CODE"
	CONFIG_ADMIN_CHAT_ID        = "ADMIN_CHAT_ID"
	CONFIG_REFERRAL_REWARD      = "REFERRAL_REWARD"
	CONFIG_MIN_FIRST_WITHDRAWAL = "MIN_FIRST_WITHDRAWAL"
	CONFIG_MIN_NEXT_WITHDRAWAL  = "MIN_NEXT_WITHDRAWAL"
	CONFIG_FORCE_JOIN_CHANNEL   = "FORCE_JOIN_CHANNEL"
	CONFIG_SUPPORT_CONTACT      = "SUPPORT_CONTACT"

	// Defaults when the config row is missing.
	DEFAULT_REFERRAL_REWARD      = 0.5
	DEFAULT_MIN_FIRST_WITHDRAWAL = 2.0
	DEFAULT_MIN_NEXT_WITHDRAWAL  = 20.0

	DAILY_TASK_LIMIT   = 6
	TASKS_PER_PROVIDER = 2

	CODE_SUBMIT_RATE_LIMIT_PER_MINUTE = 10

	CACHE_TTL_1_MIN  = 1 * time.Minute
	CACHE_TTL_5_MINS = 5 * time.Minute
)

func LockKeyUserWithdraw(userID int64) string {
	return fmt.Sprintf("lock:user-withdraw:%d", userID)
}

func LockKeyWithdrawalDecision(withdrawalID string) string {
	return fmt.Sprintf("lock:withdrawal-decision:%s", withdrawalID)
}

// db
func DBKeyUser(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

func DBKeyTask(taskID int64) string {
	return fmt.Sprintf("task:%d", taskID)
}

func DBKeyConfig(key string) string {
	return fmt.Sprintf("config:%s", strings.ToLower(key))
}

func LimitKeyCodeSubmit(userID int64) string {
	return fmt.Sprintf("limit:code_submit:%d", userID)
}
