package redis_store

import (
	"context"
	"fmt"
	"time"

	"apexearn/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// Abandoned conversation steps expire on their own; nothing in postgres
	// needs cleaning up because no mutation happens before the final step.
	PENDING_STATE_TTL = 30 * time.Minute

	BROADCAST_MARKER_TTL = 24 * time.Hour
)

func dbKeyPendingState(userID int64) string {
	return fmt.Sprintf("pending_state:%d", userID)
}

func dbKeyBroadcastSent(batchID string, userID int64) string {
	return fmt.Sprintf("broadcast_sent:%s:%d", batchID, userID)
}

func SetPendingState(ctx context.Context, cmd redis.Cmdable, userID int64, state *models.PendingState) error {
	payload, err := msgpack.Marshal(state)
	if err != nil {
		return err
	}

	return cmd.Set(ctx, dbKeyPendingState(userID), payload, PENDING_STATE_TTL).Err()
}

// GetPendingState returns nil when no step is pending.
func GetPendingState(ctx context.Context, cmd redis.Cmdable, userID int64) (*models.PendingState, error) {
	payload, err := cmd.Get(ctx, dbKeyPendingState(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state models.PendingState
	if err := msgpack.Unmarshal(payload, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

func ClearPendingState(ctx context.Context, cmd redis.Cmdable, userID int64) error {
	return cmd.Del(ctx, dbKeyPendingState(userID)).Err()
}

// Broadcast markers dedupe sends when a batch is re-run after a crash.
func SetBroadcastSent(ctx context.Context, cmd redis.Cmdable, batchID string, userID int64) error {
	return cmd.Set(ctx, dbKeyBroadcastSent(batchID, userID), "1", BROADCAST_MARKER_TTL).Err()
}

func GetBroadcastSent(ctx context.Context, cmd redis.Cmdable, batchID string, userID int64) (bool, error) {
	err := cmd.Get(ctx, dbKeyBroadcastSent(batchID, userID)).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
