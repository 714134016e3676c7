package notify

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"aura/internal/events"
)

type TelegramClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender posts a summary of each event to the staff chats.
type TelegramSender struct {
	client  TelegramClient
	chatIDs []int64
	limiter *rate.Limiter
}

// Telegram allows about 30 messages per second per bot.
const telegramRate = 25

func NewTelegramSender(token string, chatIDs []int64, debug bool) (*TelegramSender, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	api.Debug = debug
	return NewTelegramSenderWithClient(api, chatIDs, rate.NewLimiter(telegramRate, telegramRate)), nil
}

func NewTelegramSenderWithClient(client TelegramClient, chatIDs []int64, limiter *rate.Limiter) *TelegramSender {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &TelegramSender{client: client, chatIDs: chatIDs, limiter: limiter}
}

func (s *TelegramSender) Name() string { return "telegram" }

// Send tries every chat and reports all failures together.
func (s *TelegramSender) Send(ctx context.Context, e events.Event) error {
	text := Summary(e)
	var errs []error
	for _, id := range s.chatIDs {
		if err := s.limiter.Wait(ctx); err != nil {
			return errors.Join(append(errs, err)...)
		}
		msg := tgbotapi.NewMessage(id, text)
		msg.DisableWebPagePreview = true
		if _, err := s.client.Send(msg); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
