package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"audaxtracker/internal/remote"
)

// Transport is the outbound message path. It satisfies
// [remote.Messenger].
//
// The Telegram Bot API has no context support; ctx parameters are
// accepted for interface compatibility and ignored.
type Transport struct {
	api    *tgbotapi.BotAPI
	logger *slog.Logger
}

// NewTransport wraps a Bot API client as an outbound transport.
func NewTransport(api *tgbotapi.BotAPI, logger *slog.Logger) *Transport {
	return &Transport{api: api, logger: logger}
}

// SendMessage delivers rendered HTML text to the chat with the given id.
func (t *Transport) SendMessage(_ context.Context, chatID string, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}

	msg := tgbotapi.NewMessage(id, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.api.Send(msg); err != nil {
		return classifyError(err)
	}
	return nil
}

// SendDocument delivers a file payload with a caption, used for
// diagnostic error reports to the operator chat.
func (t *Transport) SendDocument(_ context.Context, chatID string, filename string, content []byte, caption string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}

	doc := tgbotapi.NewDocument(id, tgbotapi.FileBytes{Name: filename, Bytes: content})
	doc.Caption = caption
	doc.ParseMode = tgbotapi.ModeHTML
	if _, err := t.api.Send(doc); err != nil {
		return classifyError(err)
	}
	return nil
}

// classifyError maps Telegram API errors that mean "this recipient is
// gone for good" to [remote.ErrRecipientUnreachable]. Everything else is
// passed through unchanged.
func classifyError(err error) error {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == 403:
		// "Forbidden: bot was blocked by the user",
		// "Forbidden: user is deactivated"
		return fmt.Errorf("%w: %s", remote.ErrRecipientUnreachable, apiErr.Message)
	case apiErr.Code == 400 && strings.Contains(apiErr.Message, "chat not found"):
		return fmt.Errorf("%w: %s", remote.ErrRecipientUnreachable, apiErr.Message)
	default:
		return err
	}
}
