package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"apexearn/internal/datastore"
	"apexearn/internal/datastore/redis_store"
	"apexearn/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	tele "gopkg.in/telebot.v3"
)

const (
	STATUS_BLOCKED        = "blocked"
	STATUS_CHAT_NOT_FOUND = "chat_not_found"
	STATUS_DEACTIVATED    = "deactivated"

	broadcastPageSize = 20
)

type ServiceBroadcast struct {
	postgresDB *bun.DB
	redisDB    redis.UniversalClient

	bot *Bot
}

func NewServiceBroadcast(container *do.Injector) (*ServiceBroadcast, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	redisDB, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	bot, err := do.Invoke[*Bot](container)
	if err != nil {
		return nil, err
	}

	return &ServiceBroadcast{postgresDB, redisDB, bot}, nil
}

// SendToAll pages through reachable users and delivers the message with a
// fixed pause between pages. Individual failures never abort the batch:
// blocked and deactivated chats get their status recorded and the loop
// moves on. Redis markers keyed by batchID make a re-run after a crash
// skip users already served.
func (service *ServiceBroadcast) SendToAll(ctx context.Context, batchID string, text string) (int, error) {
	var sent atomic.Int64
	currentOffset := 0

	for {
		users, err := datastore.GetBroadcastableUsers(ctx, service.postgresDB, broadcastPageSize, currentOffset)
		if err != nil {
			return int(sent.Load()), err
		}

		if len(users) == 0 {
			break
		}

		waitgroup := sync.WaitGroup{}

		for _, user := range users {
			delivered, err := redis_store.GetBroadcastSent(ctx, service.redisDB, batchID, user.ID)
			if err != nil {
				log.Println("broadcast marker read failed:", err, "user:", user.ID)
			}
			if delivered {
				continue
			}

			waitgroup.Add(1)
			go func(user *models.User) {
				defer waitgroup.Done()

				if err := service.bot.SendMsg(user.ID, text); err != nil {
					service.recordSendFailure(ctx, user.ID, err)
					return
				}

				sent.Add(1)
				if err := redis_store.SetBroadcastSent(ctx, service.redisDB, batchID, user.ID); err != nil {
					log.Println("broadcast marker write failed:", err, "user:", user.ID)
				}
			}(user)
		}
		waitgroup.Wait()

		currentOffset += broadcastPageSize
		time.Sleep(1 * time.Second)
	}

	return int(sent.Load()), nil
}

func (service *ServiceBroadcast) recordSendFailure(ctx context.Context, userID int64, sendErr error) {
	var status string
	switch {
	case errors.Is(sendErr, tele.ErrBlockedByUser):
		status = STATUS_BLOCKED
	case errors.Is(sendErr, tele.ErrChatNotFound):
		status = STATUS_CHAT_NOT_FOUND
	case errors.Is(sendErr, tele.ErrUserIsDeactivated):
		status = STATUS_DEACTIVATED
	default:
		log.Println("broadcast send failed:", sendErr, "user:", userID)
		return
	}

	if err := datastore.UpdateUserChatStatus(ctx, service.postgresDB, userID, status); err != nil {
		log.Println("chat status update failed:", err, "user:", userID)
	}
}
