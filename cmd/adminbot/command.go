package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"apexearn/internal/models"
	"apexearn/internal/services"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v3"
)

const helpText = `🛠 Operator commands

/newtask Text, Reward, Link, Code - create a task for every provider
/deltask <id> - delete a task
/setcode <code> - set today's check-in code
/ban <user id> - suspend a user
/unban <user id> - reinstate a user
/credit <user id> <amount> - adjust a balance
/users [page] - list accounts, oldest first
/listtasks - tasks with completion counts
/stats - platform stats
/pending - pending withdrawals
/broadcast <text> - message all users`

func commandHelp(c tele.Context) error {
	return c.Send(helpText)
}

// commandNewTask expects a comma separated template: text, reward, link,
// verification code. One task per provider gets created from it.
func commandNewTask(c tele.Context) error {
	ctx := context.Background()

	parts := strings.SplitN(c.Message().Payload, ",", 4)
	if len(parts) != 4 {
		return c.Send("Usage: /newtask Text, Reward, Link, Code")
	}

	text := strings.TrimSpace(parts[0])
	link := strings.TrimSpace(parts[2])
	code := strings.TrimSpace(parts[3])

	reward, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || reward <= 0 {
		return c.Send("Reward must be a positive number.")
	}

	if text == "" || code == "" {
		return c.Send("Text and code must not be empty.")
	}

	if !strings.HasPrefix(link, "http") {
		return c.Send("Link must start with http or https.")
	}

	created, err := serviceTask.CreateTasksFromTemplate(ctx, text, reward, link, code)
	if err != nil {
		log.Println("CreateTasksFromTemplate:", err)
		return c.Send(fmt.Sprintf("Created %d task(s) before failing: %v", len(created), err))
	}

	lines := make([]string, 0, len(created))
	for _, task := range created {
		lines = append(lines, fmt.Sprintf("#%d %s", task.ID, task.Provider))
	}
	return c.Send("✅ Created:\n" + strings.Join(lines, "\n"))
}

func commandDelTask(c tele.Context) error {
	ctx := context.Background()

	taskID, err := strconv.ParseInt(strings.TrimSpace(c.Message().Payload), 10, 64)
	if err != nil {
		return c.Send("Usage: /deltask <id>")
	}

	err = serviceTask.DeleteTask(ctx, taskID)
	if errors.Is(err, services.ErrTaskNotFound) {
		return c.Send("No task with that id.")
	}
	if err != nil {
		log.Println("DeleteTask:", err, "task:", taskID)
		return c.Send("Something went wrong.")
	}

	return c.Send(fmt.Sprintf("🗑 Task #%d deleted.", taskID))
}

func commandSetCode(c tele.Context) error {
	ctx := context.Background()

	code := strings.TrimSpace(c.Message().Payload)
	if code == "" {
		return c.Send("Usage: /setcode <code>")
	}

	if err := serviceCheckin.SetCode(ctx, code); err != nil {
		log.Println("SetCode:", err)
		return c.Send("Something went wrong.")
	}

	return c.Send("🔑 Check-in code updated.")
}

func commandBan(c tele.Context) error {
	return setBanned(c, true)
}

func commandUnban(c tele.Context) error {
	return setBanned(c, false)
}

func setBanned(c tele.Context, banned bool) error {
	ctx := context.Background()

	userID, err := strconv.ParseInt(strings.TrimSpace(c.Message().Payload), 10, 64)
	if err != nil {
		if banned {
			return c.Send("Usage: /ban <user id>")
		}
		return c.Send("Usage: /unban <user id>")
	}

	if err := serviceUser.SetBanned(ctx, userID, banned); err != nil {
		log.Println("SetBanned:", err, "user:", userID)
		return c.Send("No user with that id.")
	}

	if banned {
		return c.Send(fmt.Sprintf("🚫 User %d banned.", userID))
	}
	return c.Send(fmt.Sprintf("✅ User %d unbanned.", userID))
}

func commandCredit(c tele.Context) error {
	ctx := context.Background()

	parts := strings.Fields(c.Message().Payload)
	if len(parts) != 2 {
		return c.Send("Usage: /credit <user id> <amount>")
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return c.Send("Usage: /credit <user id> <amount>")
	}

	amount, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || amount == 0 {
		return c.Send("Amount must be a non-zero number.")
	}

	err = serviceUser.CreditBalance(ctx, userID, amount)
	if errors.Is(err, services.ErrInsufficientBalance) {
		return c.Send("Refused: no such user, or the balance would go negative.")
	}
	if err != nil {
		log.Println("CreditBalance:", err, "user:", userID)
		return c.Send("Something went wrong.")
	}

	return c.Send(fmt.Sprintf("💰 Adjusted user %d by ₹%.2f.", userID, amount))
}

const usersPageSize = 20

func commandUsers(c tele.Context) error {
	ctx := context.Background()

	page, _ := strconv.Atoi(strings.TrimSpace(c.Message().Payload))
	if page < 1 {
		page = 1
	}

	users, err := serviceUser.ListUsers(ctx, usersPageSize, (page-1)*usersPageSize)
	if err != nil {
		log.Println("ListUsers:", err)
		return c.Send("Something went wrong.")
	}

	if len(users) == 0 {
		return c.Send("No users on this page.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 Users, page %d\n\n", page)
	for _, user := range users {
		banned := ""
		if user.IsBanned {
			banned = " 🚫"
		}
		fmt.Fprintf(&sb, "%d %s — ₹%.2f%s\n", user.ID, user.FirstName, user.Balance, banned)
	}

	return c.Send(sb.String())
}

func commandListTasks(c tele.Context) error {
	ctx := context.Background()

	overviews, err := serviceTask.ListTaskOverviews(ctx)
	if err != nil {
		log.Println("ListTaskOverviews:", err)
		return c.Send("Something went wrong.")
	}

	if len(overviews) == 0 {
		return c.Send("No tasks yet. Use /newtask to create some.")
	}

	var sb strings.Builder
	sb.WriteString("📋 Tasks\n\n")
	for _, overview := range overviews {
		fmt.Fprintf(&sb, "#%d [%s] ₹%.2f — %d completions\n", overview.Task.ID, overview.Task.Provider, overview.Task.Reward, overview.Completions)
	}

	return c.Send(sb.String())
}

func commandStats(c tele.Context) error {
	ctx := context.Background()

	stats, err := serviceStats.Collect(ctx)
	if err != nil {
		log.Println("Collect:", err)
		return c.Send("Something went wrong.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 <b>Platform stats</b>\n\n")
	fmt.Fprintf(&sb, "Users: %d (+%d today)\n", stats.TotalUsers, stats.UsersJoinedToday)
	fmt.Fprintf(&sb, "Completions: %d\n", stats.TotalCompletions)
	for _, provider := range models.Providers {
		fmt.Fprintf(&sb, "Tasks (%s): %d\n", provider, stats.TasksPerProvider[provider])
	}
	fmt.Fprintf(&sb, "Pending withdrawals: %d\n", stats.PendingWithdrawals)
	fmt.Fprintf(&sb, "Total user balance: ₹%.2f", stats.TotalUserBalance)

	return c.Send(sb.String(), tele.ModeHTML)
}

func commandPending(c tele.Context) error {
	ctx := context.Background()

	withdrawals, err := serviceWallet.GetPending(ctx)
	if err != nil {
		log.Println("GetPending:", err)
		return c.Send("Something went wrong.")
	}

	if len(withdrawals) == 0 {
		return c.Send("No pending withdrawals. 🎉")
	}

	for _, withdrawal := range withdrawals {
		markup := &tele.ReplyMarkup{
			InlineKeyboard: [][]tele.InlineButton{{
				{Text: "✅ Approve", Unique: "wd_approve", Data: withdrawal.ID},
				{Text: "❌ Decline", Unique: "wd_decline", Data: withdrawal.ID},
			}},
		}

		text := fmt.Sprintf(
			"💸 User %d\nAmount: ₹%.2f\nUPI: %s\nRequested: %s\nID: %s",
			withdrawal.UserID, withdrawal.Amount, withdrawal.UPI,
			withdrawal.CreatedAt.Format("2006-01-02 15:04"), withdrawal.ID,
		)
		if err := c.Send(text, markup); err != nil {
			return err
		}
	}

	return nil
}

func callbackApprove(c tele.Context) error {
	ctx := context.Background()

	withdrawal, err := serviceWallet.Approve(ctx, c.Data())
	if errors.Is(err, services.ErrNotPending) {
		return c.Edit("This withdrawal has already been decided.")
	}
	if errors.Is(err, services.ErrUserLock) {
		return c.Send("This withdrawal is being decided elsewhere, try again in a moment.")
	}
	if err != nil {
		log.Println("Approve:", err, "withdrawal:", c.Data())
		return c.Send("Something went wrong.")
	}

	return c.Edit(fmt.Sprintf("✅ Approved ₹%.2f for user %d.", withdrawal.Amount, withdrawal.UserID))
}

func callbackDecline(c tele.Context) error {
	ctx := context.Background()

	withdrawal, err := serviceWallet.Decline(ctx, c.Data())
	if errors.Is(err, services.ErrNotPending) {
		return c.Edit("This withdrawal has already been decided.")
	}
	if errors.Is(err, services.ErrUserLock) {
		return c.Send("This withdrawal is being decided elsewhere, try again in a moment.")
	}
	if err != nil {
		log.Println("Decline:", err, "withdrawal:", c.Data())
		return c.Send("Something went wrong.")
	}

	return c.Edit(fmt.Sprintf("❌ Declined ₹%.2f for user %d, amount refunded.", withdrawal.Amount, withdrawal.UserID))
}

func commandBroadcast(c tele.Context) error {
	text := strings.TrimSpace(c.Message().Payload)
	if text == "" {
		return c.Send("Usage: /broadcast <text>")
	}

	batchID := uuid.NewString()
	chatID := c.Chat().ID

	go func() {
		sent, err := serviceBroadcast.SendToAll(context.Background(), batchID, text)
		report := fmt.Sprintf("📣 Broadcast %s finished: %d delivered.", batchID, sent)
		if err != nil {
			report = fmt.Sprintf("📣 Broadcast %s stopped after %d deliveries: %v", batchID, sent, err)
		}
		if err := botService.SendAdminMsg(report); err != nil {
			log.Println("broadcast report:", err, "chat:", chatID)
		}
	}()

	return c.Send(fmt.Sprintf("📣 Broadcast %s started.", batchID))
}
