package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"apexearn/internal/datastore/redis_store"
	"apexearn/internal/models"
	"apexearn/internal/pkg/limiter"
	"apexearn/internal/services"

	tele "gopkg.in/telebot.v3"
)

// handleText routes free text by the sender's pending conversation step.
// Steps that fail validation keep their state so the user can retry without
// restarting the flow; /cancel drops the state at any point.
func handleText(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()

	state, err := redis_store.GetPendingState(ctx, redisDB, sender.ID)
	if err != nil {
		log.Println("GetPendingState:", err, "user:", sender.ID)
		return c.Send("Something went wrong, please try again.")
	}

	if state == nil {
		return c.Send("I did not get that. Use /tasks to get a task or /support for help.")
	}

	text := strings.TrimSpace(c.Text())

	switch state.Kind {
	case models.PendingEmail:
		return handleEmailStep(ctx, c, state, text)
	case models.PendingTaskCode:
		return handleTaskCodeStep(ctx, c, state, text)
	case models.PendingCheckinCode:
		return handleCheckinCodeStep(ctx, c, text)
	case models.PendingWithdrawUPI:
		return handleWithdrawStep(ctx, c, text)
	default:
		clearState(ctx, sender.ID)
		return c.Send("I did not get that. Use /tasks to get a task or /support for help.")
	}
}

func handleEmailStep(ctx context.Context, c tele.Context, state *models.PendingState, email string) error {
	sender := c.Sender()

	_, err := serviceUser.RegisterUser(ctx, sender.ID, sender.FirstName, sender.Username, email, state.ReferrerID)
	switch {
	case errors.Is(err, services.ErrInvalidEmail):
		// state stays, the user retries in place
		return c.Send("❌ That does not look like a valid email. Please send it again.")
	case errors.Is(err, services.ErrAlreadyRegistered):
		clearState(ctx, sender.ID)
		return c.Send("You are already registered! Use /tasks to continue.")
	case err != nil:
		log.Println("RegisterUser:", err, "user:", sender.ID)
		return c.Send("Something went wrong, please try again.")
	}

	clearState(ctx, sender.ID)
	return c.Send("🎉 Registration complete!\n\nUse /checkin to unlock today's tasks and start earning.")
}

func handleTaskCodeStep(ctx context.Context, c tele.Context, state *models.PendingState, code string) error {
	sender := c.Sender()

	task, err := serviceReward.Redeem(ctx, sender.ID, state.TaskID, code)
	switch {
	case errors.Is(err, limiter.ErrRateLimited):
		return c.Send("⏳ Too many attempts, please wait a minute and try again.")
	case errors.Is(err, services.ErrWrongCode):
		// state stays, the user retries in place
		return c.Send("❌ Wrong code. Check the link again and resend the code, or /cancel.")
	case errors.Is(err, services.ErrTaskNotFound):
		clearState(ctx, sender.ID)
		return c.Send("This task no longer exists. Use /tasks to get a new one.")
	case errors.Is(err, services.ErrAlreadyCompleted):
		clearState(ctx, sender.ID)
		return c.Send("You already completed this task. Use /tasks for the next one.")
	case errors.Is(err, services.ErrDailyLimitReached):
		clearState(ctx, sender.ID)
		return c.Send("✅ You have finished all 6 tasks for today. Come back tomorrow!")
	case errors.Is(err, services.ErrUserBanned):
		clearState(ctx, sender.ID)
		return c.Send("🚫 Your account has been suspended.")
	case err != nil:
		log.Println("Redeem:", err, "user:", sender.ID, "task:", state.TaskID)
		return c.Send("Something went wrong, please try again.")
	}

	clearState(ctx, sender.ID)
	return c.Send(fmt.Sprintf("✅ Correct! ₹%.2f has been added to your balance.\n\nUse /tasks for the next task.", task.Reward))
}

func handleCheckinCodeStep(ctx context.Context, c tele.Context, code string) error {
	sender := c.Sender()

	err := serviceCheckin.Unlock(ctx, sender.ID, code)
	switch {
	case errors.Is(err, services.ErrWrongCode):
		// state stays, the user retries in place
		return c.Send("❌ Wrong check-in code. Please try again, or /cancel.")
	case err != nil:
		log.Println("Unlock:", err, "user:", sender.ID)
		return c.Send("Something went wrong, please try again.")
	}

	clearState(ctx, sender.ID)
	return c.Send("🔓 Tasks unlocked for today! Use /tasks to get your first one.")
}

func handleWithdrawStep(ctx context.Context, c tele.Context, text string) error {
	sender := c.Sender()

	parts := strings.Fields(text)
	if len(parts) != 2 {
		return c.Send("Please send the amount and UPI id in one message, for example:\n<code>20 yourname@upi</code>", tele.ModeHTML)
	}

	amount, err := strconv.ParseFloat(parts[0], 64)
	if err != nil || amount <= 0 {
		return c.Send("That amount does not look right. Please send a number, for example:\n<code>20 yourname@upi</code>", tele.ModeHTML)
	}

	upi := parts[1]
	if !strings.Contains(upi, "@") {
		return c.Send("That UPI id does not look right. Please send it again, for example:\n<code>20 yourname@upi</code>", tele.ModeHTML)
	}

	withdrawal, err := serviceWallet.RequestWithdrawal(ctx, sender.ID, amount, upi)
	switch {
	case errors.Is(err, services.ErrBelowMinimum):
		// state stays, the user retries in place
		return c.Send("❌ That amount is below your withdrawal minimum. Use /withdraw to see it.")
	case errors.Is(err, services.ErrInsufficientBalance):
		clearState(ctx, sender.ID)
		return c.Send("❌ You do not have enough balance for that amount. Check /balance.")
	case errors.Is(err, services.ErrUserLock):
		return c.Send("⏳ Your previous request is still being processed, please wait a moment.")
	case errors.Is(err, services.ErrUserBanned):
		clearState(ctx, sender.ID)
		return c.Send("🚫 Your account has been suspended.")
	case err != nil:
		log.Println("RequestWithdrawal:", err, "user:", sender.ID)
		return c.Send("Something went wrong, please try again.")
	}

	clearState(ctx, sender.ID)
	return c.Send(fmt.Sprintf("📨 Withdrawal request of ₹%.2f submitted!\n\nYou will be notified once it is reviewed. Request id: <code>%s</code>", withdrawal.Amount, withdrawal.ID), tele.ModeHTML)
}

func clearState(ctx context.Context, userID int64) {
	if err := redis_store.ClearPendingState(ctx, redisDB, userID); err != nil {
		log.Println("ClearPendingState:", err, "user:", userID)
	}
}
