package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fibo_bot/internal/models"
	"fibo_bot/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier публикует итог цикла.
type Notifier interface {
	Publish(ctx context.Context, r models.CycleReport) error
}

// Log пишет каждое сообщение отчёта в лог с уровнем по типу.
type Log struct{}

func NewLog() *Log { return &Log{} }

func (Log) Publish(_ context.Context, r models.CycleReport) error {
	for _, m := range r.Messages {
		switch m.Type {
		case models.MessageError:
			logger.Error("[%s] %s: %s", r.MarketID, m.Source, m.Text)
		case models.MessageWarning:
			logger.Warn("[%s] %s: %s", r.MarketID, m.Source, m.Text)
		default:
			logger.Info("[%s] %s %s: %s", r.MarketID, m.Type, m.Source, m.Text)
		}
	}
	return nil
}

// Telegram шлёт отчёт в чат, только если в нём есть S/W/E.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

// NewTelegramWithBot для своего endpoint и тестов.
func NewTelegramWithBot(bot *tgbot.BotAPI, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

func (t *Telegram) Publish(_ context.Context, r models.CycleReport) error {
	if t == nil || t.bot == nil || t.chatID == 0 || !r.Notable() {
		return nil
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, Format(r))); err != nil {
		return fmt.Errorf("telegram.Publish %s: %w", r.MarketID, err)
	}
	return nil
}

// Multi раздаёт отчёт всем; ошибки собираются, но не прерывают остальных.
type Multi []Notifier

func (m Multi) Publish(ctx context.Context, r models.CycleReport) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Publish(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var typeMark = map[models.MessageType]string{
	models.MessageInfo:    "ℹ️",
	models.MessageSuccess: "✅",
	models.MessageWarning: "⚠️",
	models.MessageError:   "❗️",
}

// Format текст отчёта для чата.
func Format(r models.CycleReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s", r.MarketID)
	if r.MarketClosed {
		b.WriteString(" (рынок закрыт)")
	}
	b.WriteString("\n")
	if !r.Signal.IsNone() {
		fmt.Fprintf(&b, "Сигнал %s %s: close=%.2f SL=%.2f TP=%.2f\n",
			r.Signal.Strategy, r.Signal.Direction, r.Signal.Close, r.Signal.StopLoss, r.Signal.TakeProfit)
	}
	for _, m := range r.Messages {
		if m.Type == models.MessageInfo {
			continue
		}
		fmt.Fprintf(&b, "%s %s %s: %s\n", typeMark[m.Type], m.Time.UTC().Format(time.TimeOnly), m.Source, m.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}
