package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"audaxtracker/internal/i18n"
)

// Callback data of the admin panel buttons.
const (
	callbackReloadConfiguration = "admin-reload-configuration"
	callbackStartFetching       = "admin-start-fetching"
	callbackStopFetching        = "admin-stop-fetching"
)

// handleAdmin shows the control panel, but only to the operator chat.
func (b *Bot) handleAdmin(ctx context.Context, msg *tgbotapi.Message) error {
	if b.cfg.AdminChatID == 0 || msg.From.ID != b.cfg.AdminChatID {
		b.logger.Warn("refusing /admin for a non-operator chat", "chat_id", msg.From.ID)
		return nil
	}

	lang := b.langOf(msg.From)
	reply := tgbotapi.NewMessage(msg.Chat.ID, b.adminPanelText(lang))
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyMarkup = b.adminKeyboard(lang)
	_, err := b.api.Send(reply)
	return err
}

// handleCallback processes an admin panel button press and refreshes the
// panel message in place.
func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	// Acknowledge first so the client stops showing a spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		b.logger.Warn("failed to answer a callback query", "error", err)
	}

	if q.From == nil || b.cfg.AdminChatID == 0 || q.From.ID != b.cfg.AdminChatID {
		b.logger.Warn("ignoring a callback from a non-operator chat")
		return nil
	}
	if q.Message == nil {
		return nil
	}

	lang := b.langOf(q.From)
	chatID := q.Message.Chat.ID
	messageID := q.Message.MessageID

	switch q.Data {
	case callbackReloadConfiguration:
		b.editPanel(chatID, messageID, b.cat.T(lang, i18n.MsgAdminReloading), lang)
		if ok := b.engine.ReloadConfiguration(ctx); !ok {
			b.editPanel(chatID, messageID, b.cat.T(lang, i18n.MsgAdminReloadFailed), lang)
			return nil
		}
		note := b.cat.T(lang, i18n.MsgAdminReloaded, b.store.ControlCount(), b.store.ParticipantCount())
		b.editPanel(chatID, messageID, note+"\n\n"+b.adminPanelText(lang), lang)

	case callbackStartFetching:
		if err := b.scheduler.Start(ctx); err != nil {
			return err
		}
		note := b.cat.T(lang, i18n.MsgAdminFetchingStarted)
		b.editPanel(chatID, messageID, note+"\n\n"+b.adminPanelText(lang), lang)

	case callbackStopFetching:
		b.scheduler.Stop()
		note := b.cat.T(lang, i18n.MsgAdminFetchingStopped)
		b.editPanel(chatID, messageID, note+"\n\n"+b.adminPanelText(lang), lang)

	default:
		b.logger.Warn("unknown callback data", "data", q.Data)
	}
	return nil
}

// adminPanelText renders the state summary shown inside the panel.
func (b *Bot) adminPanelText(lang string) string {
	var lines []string
	if event := b.store.Event(); event.Valid {
		lines = append(lines,
			"<b>"+event.Name(lang)+"</b>",
			b.formatter.EventStatus(lang, time.Now()))
	}

	fetching := b.cat.T(lang, i18n.MsgAdminFetchingOff)
	if b.scheduler.Running() {
		fetching = b.cat.T(lang, i18n.MsgAdminFetchingOn)
	}
	lines = append(lines,
		fmt.Sprintf("Controls: %d", b.store.ControlCount()),
		fmt.Sprintf("Participants: %d", b.store.ParticipantCount()),
		fmt.Sprintf("Subscribers: %d", len(b.store.Subscriptions())),
		fetching)

	return b.cat.T(lang, i18n.MsgAdminPanel, strings.Join(lines, "\n"))
}

// adminKeyboard builds the panel buttons for the current fetching state.
func (b *Bot) adminKeyboard(lang string) tgbotapi.InlineKeyboardMarkup {
	toggle := tgbotapi.NewInlineKeyboardButtonData(
		b.cat.T(lang, i18n.MsgButtonStartFetching), callbackStartFetching)
	if b.scheduler.Running() {
		toggle = tgbotapi.NewInlineKeyboardButtonData(
			b.cat.T(lang, i18n.MsgButtonStopFetching), callbackStopFetching)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				b.cat.T(lang, i18n.MsgButtonReload), callbackReloadConfiguration)),
		tgbotapi.NewInlineKeyboardRow(toggle),
	)
}

// editPanel replaces the panel message text and keyboard; failures are
// logged only, the panel can always be reopened with /admin.
func (b *Bot) editPanel(chatID int64, messageID int, text, lang string) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, b.adminKeyboard(lang))
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("failed to edit the admin panel", "error", err)
	}
}
