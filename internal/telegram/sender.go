package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// apiClient is the slice of the bot API the gateway talks to. Tests
// substitute a fake that captures outbound requests.
type apiClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChat(cfg tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
}

// Telegram caps bots around 30 messages per second overall; stay under
// it so a large fan-out is throttled instead of erroring out.
const (
	sendsPerSecond = 25
	sendBurst      = 5
)

// Sender is the rate-limited outbound side of the transport. It
// implements alert.Messenger and alert.NameResolver.
type Sender struct {
	api     apiClient
	limiter *rate.Limiter
}

// NewSender wraps an API client with the shared outbound rate limiter.
func NewSender(api apiClient) *Sender {
	return &Sender{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(sendsPerSecond), sendBurst),
	}
}

// Deliver sends any chattable through the rate limiter.
func (s *Sender) Deliver(ctx context.Context, c tgbotapi.Chattable) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := s.api.Send(c)
	return err
}

// SendText implements alert.Messenger.
func (s *Sender) SendText(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	return s.Deliver(ctx, msg)
}

// SendCoordinates implements alert.Messenger.
func (s *Sender) SendCoordinates(ctx context.Context, chatID int64, lat, lon float64) error {
	return s.Deliver(ctx, tgbotapi.NewLocation(chatID, lat, lon))
}

// AnswerCallback acknowledges a callback query so the client stops its
// spinner. Rate limiting does not apply; answers are cheap and urgent.
func (s *Sender) AnswerCallback(id string) error {
	_, err := s.api.Request(tgbotapi.NewCallback(id, ""))
	return err
}

// DisplayName implements alert.NameResolver using the chat profile.
func (s *Sender) DisplayName(_ context.Context, chatID int64) (string, error) {
	chat, err := s.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return "", fmt.Errorf("get chat %d: %w", chatID, err)
	}
	return chatDisplayName(chat), nil
}

func chatDisplayName(chat tgbotapi.Chat) string {
	name := strings.TrimSpace(strings.TrimSpace(chat.FirstName) + " " + strings.TrimSpace(chat.LastName))
	if name != "" {
		return name
	}
	if chat.UserName != "" {
		return "@" + chat.UserName
	}
	if chat.Title != "" {
		return chat.Title
	}
	return ""
}
