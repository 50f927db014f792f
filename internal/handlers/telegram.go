package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-tips/internal/logger"
	"daily-tips/internal/middleware"
	"daily-tips/internal/models"
	"daily-tips/internal/tips"
)

const (
	botHistorySize    = 10
	botCommandTimeout = 15 * time.Second
)

// Bot answers chat commands from the same service as the HTTP API.
type Bot struct {
	api     *tgbotapi.BotAPI
	users   middleware.UserStore
	tips    TipService
	baseURL string
	log     *logger.Logger
}

func NewBot(token string, users middleware.UserStore, tipService TipService, baseURL string, log *logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	log.Info("telegram bot authorized", "account", api.Self.UserName)

	return &Bot{api: api, users: users, tips: tipService, baseURL: baseURL, log: log}, nil
}

// Run polls for updates until ctx is done.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}

			cmdCtx, cancel := context.WithTimeout(ctx, botCommandTimeout)
			reply := b.reply(cmdCtx, update.Message)
			cancel()

			msg := tgbotapi.NewMessage(update.Message.Chat.ID, reply)
			msg.ParseMode = tgbotapi.ModeHTML
			msg.DisableWebPagePreview = true
			if _, err := b.api.Send(msg); err != nil {
				b.log.Error("failed to send telegram message", "chat_id", update.Message.Chat.ID, "error", err)
			}
		}
	}
}

func (b *Bot) reply(ctx context.Context, message *tgbotapi.Message) string {
	if !message.IsCommand() {
		return helpText
	}

	user, err := b.users.UpsertUser(ctx, message.From.ID, message.From.UserName)
	if err != nil {
		b.log.Error("failed to upsert telegram user", "telegram_id", message.From.ID, "error", err)
		return "Something went wrong, try again later."
	}
	if !user.IsActive {
		return "Your account is disabled."
	}

	switch message.Command() {
	case "start", "help":
		return helpText
	case "today":
		res, err := b.tips.Today(ctx, tips.TodayRequest{User: *user, Channel: models.ChannelTelegram})
		if err != nil {
			return b.failure("today", err)
		}
		return formatToday(res)
	case "history":
		page, err := b.tips.History(ctx, user.ID, 1, botHistorySize, nil)
		if err != nil {
			return b.failure("history", err)
		}
		return formatHistory(page)
	case "remaining":
		out, err := b.tips.Remaining(ctx, user.ID)
		if err != nil {
			return b.failure("remaining", err)
		}
		return formatRemaining(out)
	case "feed":
		if b.baseURL == "" {
			return "The feed link is not available yet."
		}
		return fmt.Sprintf("Your feed: %s/rss/%s", strings.TrimRight(b.baseURL, "/"), user.RSSUUID)
	default:
		return "I don't know that command"
	}
}

func (b *Bot) failure(op string, err error) string {
	if errors.Is(err, tips.ErrInvalidTimezone) {
		return "Unknown timezone."
	}
	b.log.Error("telegram command failed", "command", op, "error", err)
	return "Something went wrong, try again later."
}

const helpText = "/today - today's tips\n/history - recently delivered tips\n/remaining - unseen tips per topic\n/feed - your RSS link"

func formatToday(res *tips.TodayResult) string {
	if len(res.Data) == 0 {
		return "No tips for today. Subscribe to a topic first."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Tips for %s</b>\n", res.Date)
	for _, tt := range res.Data {
		fmt.Fprintf(&sb, "\n<b>%s</b>\n", html.EscapeString(tt.Topic.Name))
		for _, tip := range tt.Tips {
			fmt.Fprintf(&sb, "• <i>%s</i>\n%s\n", html.EscapeString(tip.Title), html.EscapeString(tip.Body))
			if tip.SourceURL != nil && *tip.SourceURL != "" {
				fmt.Fprintf(&sb, "<a href=\"%s\">source</a>\n", html.EscapeString(*tip.SourceURL))
			}
		}
	}
	return sb.String()
}

func formatHistory(page *tips.HistoryPage) string {
	if len(page.Items) == 0 {
		return "Nothing delivered yet."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Last %d of %d</b>\n", len(page.Items), page.Total)
	for _, it := range page.Items {
		mark := ""
		if it.Status == models.StatusRead {
			mark = " ✓"
		}
		fmt.Fprintf(&sb, "%s [%s] %s%s\n",
			it.DeliveredAt.Format("2006-01-02"), html.EscapeString(it.Topic.Name), html.EscapeString(it.Tip.Title), mark)
	}
	return sb.String()
}

func formatRemaining(out []models.TopicRemaining) string {
	if len(out) == 0 {
		return "You have no subscriptions."
	}
	var sb strings.Builder
	for _, r := range out {
		fmt.Fprintf(&sb, "<b>%s</b>: %d\n", html.EscapeString(r.Name), r.Remaining)
	}
	return sb.String()
}
