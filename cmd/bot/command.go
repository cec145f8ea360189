package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"apexearn/internal/datastore/redis_store"
	"apexearn/internal/models"
	"apexearn/internal/services"

	tele "gopkg.in/telebot.v3"
)

const welcomeText = `👋 Welcome to ApexEarn!

Complete simple link tasks and earn real money.

/tasks - get your next task
/checkin - unlock today's tasks
/balance - your balance
/withdraw - request a withdrawal
/refer - your referral link
/support - contact support
/cancel - cancel the current step`

func commandStart(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()

	_, err := serviceUser.FindUserByID(ctx, sender.ID)
	if err == nil {
		return c.Send("Welcome back! 🎉\n\nUse /tasks to get your next task.")
	}

	var referrerID int64
	if payload := c.Message().Payload; payload != "" {
		referrerID, _ = strconv.ParseInt(payload, 10, 64)
	}

	state := &models.PendingState{Kind: models.PendingEmail, ReferrerID: referrerID}
	if err := redis_store.SetPendingState(ctx, redisDB, sender.ID, state); err != nil {
		log.Println("SetPendingState:", err, "user:", sender.ID)
		return c.Send("Something went wrong, please try /start again.")
	}

	return c.Send(welcomeText + "\n\n📧 To register, please send me your email address.")
}

func commandTasks(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()

	if !membership.IsMember(ctx, sender.ID) {
		channel, _ := serviceConfig.GetConfigString(ctx, services.CONFIG_FORCE_JOIN_CHANNEL)
		text := "🔒 Please join our channel first, then try /tasks again."
		if channel != "" {
			markup := &tele.ReplyMarkup{
				InlineKeyboard: [][]tele.InlineButton{{
					{Text: "📢 Join channel", URL: "https://t.me/" + channel},
				}},
			}
			return c.Send(text, markup)
		}
		return c.Send(text)
	}

	task, err := serviceTask.NextTask(ctx, sender.ID)
	switch {
	case errors.Is(err, services.ErrUserNotRegistered):
		return c.Send("You are not registered yet. Use /start to register.")
	case errors.Is(err, services.ErrUserBanned):
		return c.Send("🚫 Your account has been suspended.")
	case errors.Is(err, services.ErrTasksLocked):
		return c.Send("🔐 Tasks are locked. Use /checkin and enter today's code to unlock them.")
	case errors.Is(err, services.ErrDailyLimitReached):
		return c.Send("✅ You have finished all 6 tasks for today. Come back tomorrow!")
	case errors.Is(err, services.ErrNoTasksAvailable):
		return c.Send("😴 No tasks available right now, please check back later.")
	case err != nil:
		log.Println("NextTask:", err, "user:", sender.ID)
		return c.Send("Something went wrong, please try again.")
	}

	markup := &tele.ReplyMarkup{
		InlineKeyboard: [][]tele.InlineButton{
			{{Text: "🔗 Open link", URL: task.Link}},
			{{Text: "✍️ Submit code", Unique: "submitcode", Data: strconv.FormatInt(task.ID, 10)}},
		},
	}

	text := fmt.Sprintf("📋 <b>Task #%d</b>\n\n%s\n\n💰 Reward: ₹%.2f\n\nOpen the link, find the verification code and submit it here.", task.ID, task.Text, task.Reward)
	return c.Send(text, markup, tele.ModeHTML)
}

func callbackSubmitCode(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()

	taskID, err := strconv.ParseInt(c.Data(), 10, 64)
	if err != nil {
		return c.Send("Invalid task, use /tasks to get a fresh one.")
	}

	state := &models.PendingState{Kind: models.PendingTaskCode, TaskID: taskID}
	if err := redis_store.SetPendingState(ctx, redisDB, sender.ID, state); err != nil {
		log.Println("SetPendingState:", err, "user:", sender.ID)
		return c.Send("Something went wrong, please try again.")
	}

	return c.Send("✍️ Send me the verification code for this task.")
}

func commandBalance(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()

	user, err := serviceUser.FindUserByID(ctx, sender.ID)
	if err != nil {
		return c.Send("You are not registered yet. Use /start to register.")
	}

	text := fmt.Sprintf(
		"💰 <b>Your balance</b>\n\nBalance: ₹%.2f\nTotal withdrawn: ₹%.2f\nTasks today: %d/%d\nReferrals: %d (₹%.2f earned)",
		user.Balance, user.TotalWithdrawn, user.DailyTaskCount, services.DAILY_TASK_LIMIT, user.ReferralCount, user.ReferralEarnings,
	)
	return c.Send(text, tele.ModeHTML)
}

func commandCheckin(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()

	user, err := serviceUser.FindUserByID(ctx, sender.ID)
	if err != nil {
		return c.Send("You are not registered yet. Use /start to register.")
	}

	if user.Unlocked(models.Today()) {
		return c.Send("✅ Today's tasks are already unlocked. Use /tasks to continue.")
	}

	state := &models.PendingState{Kind: models.PendingCheckinCode}
	if err := redis_store.SetPendingState(ctx, redisDB, sender.ID, state); err != nil {
		log.Println("SetPendingState:", err, "user:", sender.ID)
		return c.Send("Something went wrong, please try again.")
	}

	return c.Send("🔑 Send me today's check-in code to unlock your tasks.")
}

func commandWithdraw(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()

	user, err := serviceUser.FindUserByID(ctx, sender.ID)
	if err != nil {
		return c.Send("You are not registered yet. Use /start to register.")
	}
	if user.IsBanned {
		return c.Send("🚫 Your account has been suspended.")
	}

	minFirst := serviceConfig.GetConfigFloat(ctx, services.CONFIG_MIN_FIRST_WITHDRAWAL, services.DEFAULT_MIN_FIRST_WITHDRAWAL)
	minNext := serviceConfig.GetConfigFloat(ctx, services.CONFIG_MIN_NEXT_WITHDRAWAL, services.DEFAULT_MIN_NEXT_WITHDRAWAL)
	floor := services.WithdrawalFloor(user.WithdrawCount, minFirst, minNext)

	state := &models.PendingState{Kind: models.PendingWithdrawUPI}
	if err := redis_store.SetPendingState(ctx, redisDB, sender.ID, state); err != nil {
		log.Println("SetPendingState:", err, "user:", sender.ID)
		return c.Send("Something went wrong, please try again.")
	}

	text := fmt.Sprintf(
		"💸 <b>Withdrawal</b>\n\nBalance: ₹%.2f\nMinimum: ₹%.2f\n\nSend the amount and your UPI id in one message, for example:\n<code>%.2f yourname@upi</code>",
		user.Balance, floor, floor,
	)
	return c.Send(text, tele.ModeHTML)
}

func commandRefer(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()

	user, err := serviceUser.FindUserByID(ctx, sender.ID)
	if err != nil {
		return c.Send("You are not registered yet. Use /start to register.")
	}

	link := fmt.Sprintf("https://t.me/%s?start=%d", botUsername, sender.ID)
	text := fmt.Sprintf(
		"👥 <b>Refer and earn</b>\n\nShare your link:\n%s\n\nReferrals: %d\nEarned: ₹%.2f\n\nYou earn a bonus when a referred friend completes their first withdrawal.",
		link, user.ReferralCount, user.ReferralEarnings,
	)
	return c.Send(text, tele.ModeHTML)
}

func commandSupport(c tele.Context) error {
	ctx := context.Background()

	contact, err := serviceConfig.GetConfigString(ctx, services.CONFIG_SUPPORT_CONTACT)
	if err != nil || contact == "" {
		return c.Send("ℹ️ Support is currently unavailable, please try again later.")
	}

	return c.Send("🛟 For help, contact " + contact)
}

func commandCancel(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()

	if err := redis_store.ClearPendingState(ctx, redisDB, sender.ID); err != nil {
		log.Println("ClearPendingState:", err, "user:", sender.ID)
	}

	return c.Send("Cancelled. Use /tasks whenever you are ready.")
}
