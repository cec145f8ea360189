package models

// PendingKind enumerates the multi-step conversation flows. Free text from a
// user is only meaningful while one of these is set; anything else is
// dispatched as a command.
type PendingKind string

const (
	PendingEmail       PendingKind = "awaiting_email"
	PendingTaskCode    PendingKind = "awaiting_task_code"
	PendingCheckinCode PendingKind = "awaiting_checkin_code"
	PendingWithdrawUPI PendingKind = "awaiting_upi"
)

// PendingState is the transient per-conversation step state. It lives in
// redis with a TTL and is discarded on completion or cancellation; no store
// mutation happens before the final step, so expiry needs no cleanup.
type PendingState struct {
	Kind       PendingKind `msgpack:"kind"`
	ReferrerID int64       `msgpack:"referrer_id,omitempty"`
	TaskID     int64       `msgpack:"task_id,omitempty"`
}
