package services

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"
)

// Bot wraps outbound Telegram delivery: user notifications, operator
// alerts and the force-join membership check. User messages go out through
// the user-facing bot token; operator alerts go through the admin bot so
// their inline buttons land where the admin bot can handle them.
type Bot struct {
	token        string
	adminToken   string
	adminChatIDs []int64
	forceChannel string
}

func NewBot(token string, adminToken string, adminChatIDs []int64, forceChannel string) (*Bot, error) {
	if adminToken == "" {
		adminToken = token
	}
	return &Bot{token, adminToken, adminChatIDs, forceChannel}, nil
}

// ParseAdminChatIDs reads a comma separated id list, the same format the
// ADMIN_CHAT_ID config row uses.
func ParseAdminChatIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (bot *Bot) IsAdmin(userID int64) bool {
	for _, id := range bot.adminChatIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (bot *Bot) client() (*tele.Bot, error) {
	pref := tele.Settings{
		Token:  bot.token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	return tele.NewBot(pref)
}

func (bot *Bot) adminClient() (*tele.Bot, error) {
	pref := tele.Settings{
		Token:  bot.adminToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	return tele.NewBot(pref)
}

func (bot *Bot) SendMsg(chatID int64, text string) error {
	b, err := bot.client()
	if err != nil {
		return err
	}

	_, err = b.Send(&tele.User{ID: chatID}, text, &tele.SendOptions{
		ParseMode: tele.ModeHTML,
	})
	return err
}

// SendAdminMsg delivers a plain notice to every operator chat.
func (bot *Bot) SendAdminMsg(text string) error {
	b, err := bot.adminClient()
	if err != nil {
		return err
	}

	for _, chatID := range bot.adminChatIDs {
		_, err := b.Send(&tele.User{ID: chatID}, text)
		if err != nil {
			log.Println("SendAdminMsg send failed:", err, "chat:", chatID)
		}
	}

	return nil
}

// NotifyAdmins fans a withdrawal alert out to every operator chat with
// inline approve/decline buttons. Per-recipient failures are logged and
// swallowed so one dead chat never blocks the rest.
func (bot *Bot) NotifyAdmins(text string, withdrawalID string) error {
	b, err := bot.adminClient()
	if err != nil {
		return err
	}

	markup := &tele.ReplyMarkup{
		InlineKeyboard: [][]tele.InlineButton{{
			{Text: "✅ Approve", Unique: "wd_approve", Data: withdrawalID},
			{Text: "❌ Decline", Unique: "wd_decline", Data: withdrawalID},
		}},
	}

	for _, chatID := range bot.adminChatIDs {
		_, err := b.Send(&tele.User{ID: chatID}, text, &tele.SendOptions{ReplyMarkup: markup})
		if err != nil {
			log.Println("NotifyAdmins send failed:", err, "chat:", chatID)
		}
	}

	return nil
}

// IsMember checks force-join channel membership and fails closed: any
// lookup error reads as "not a member". With no channel configured the
// gate stays open.
func (bot *Bot) IsMember(ctx context.Context, userID int64) bool {
	if bot.forceChannel == "" {
		// no force-join configured, gate stays open
		return true
	}

	b, err := bot.client()
	if err != nil {
		return false
	}

	chat, err := b.ChatByUsername(bot.forceChannel)
	if err != nil {
		return false
	}

	member, err := b.ChatMemberOf(chat, &tele.User{ID: userID})
	if err != nil {
		return false
	}

	switch member.Role {
	case tele.Creator, tele.Administrator, tele.Member:
		return true
	default:
		return false
	}
}
