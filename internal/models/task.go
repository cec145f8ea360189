package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Provider string

const (
	ProviderGPLinks    Provider = "gplinks"
	ProviderShrinkMe   Provider = "shrinkme"
	ProviderShrinkEarn Provider = "shrinkearn"
)

// Providers lists the categories in their fixed daily order: task counts
// 0-1 are served from the first, 2-3 from the second, 4-5 from the third.
var Providers = []Provider{ProviderGPLinks, ProviderShrinkMe, ProviderShrinkEarn}

func (p Provider) Valid() bool {
	for _, known := range Providers {
		if p == known {
			return true
		}
	}
	return false
}

type Task struct {
	bun.BaseModel `bun:"table:task"`

	ID               int64     `bun:"id,pk,autoincrement" json:"id"`
	Text             string    `bun:"text" json:"text"`
	Reward           float64   `bun:"reward" json:"reward"`
	Link             string    `bun:"link" json:"link"`
	VerificationCode string    `bun:"verification_code" json:"-"`
	Provider         Provider  `bun:"provider" json:"provider"`
	CreatedAt        time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}

// TaskCompletion records a redeemed (user, task) pair. The unique index on
// (user_id, task_id) makes insertion the at-most-once gate for crediting:
// redemption is permanent and global, never daily.
type TaskCompletion struct {
	bun.BaseModel `bun:"table:task_completion"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64     `bun:"user_id" json:"user_id"`
	TaskID    int64     `bun:"task_id" json:"task_id"`
	Reward    float64   `bun:"reward" json:"reward"`
	CreatedAt time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}
