package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"audaxtracker/config"
	"audaxtracker/internal/format"
	"audaxtracker/internal/i18n"
	"audaxtracker/internal/remote"
	"audaxtracker/internal/state"
)

// pendingAction is the conversation step a chat is in after /add or
// /remove: the bot is waiting for a frame plate number.
type pendingAction int

const (
	actionNone pendingAction = iota
	actionAdd
	actionRemove
)

// Bot receives Telegram updates and dispatches them to the command
// handlers. It owns the per-chat conversation state and the error
// reporting path; all domain work happens in the store and the engine.
type Bot struct {
	api       *tgbotapi.BotAPI
	transport *Transport
	store     *state.Store
	engine    *remote.Engine
	scheduler *remote.Scheduler
	formatter *format.Formatter
	cat       *i18n.Catalog
	cfg       *config.Config
	logger    *slog.Logger

	mu      sync.Mutex
	pending map[int64]pendingAction
}

// New wires the bot's inbound side.
func New(api *tgbotapi.BotAPI, transport *Transport, store *state.Store, engine *remote.Engine,
	scheduler *remote.Scheduler, formatter *format.Formatter, cat *i18n.Catalog,
	cfg *config.Config, logger *slog.Logger) *Bot {
	return &Bot{
		api:       api,
		transport: transport,
		store:     store,
		engine:    engine,
		scheduler: scheduler,
		formatter: formatter,
		cat:       cat,
		cfg:       cfg,
		logger:    logger,
		pending:   make(map[int64]pendingAction),
	}
}

// Run registers the command menu and processes updates until ctx is
// cancelled.
//
// Updates are handled sequentially; together with the store's internal
// mutex this keeps state mutations single-writer even while the fetch
// scheduler runs concurrently.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register bot commands: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("listening for updates", "bot", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) registerCommands() error {
	lang := b.cat.Default()
	commands := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "add", Description: b.cat.T(lang, i18n.MsgCmdAddDescription)},
		tgbotapi.BotCommand{Command: "remove", Description: b.cat.T(lang, i18n.MsgCmdRemoveDescription)},
		tgbotapi.BotCommand{Command: "status", Description: b.cat.T(lang, i18n.MsgCmdStatusDescription)},
	)
	_, err := b.api.Request(commands)
	return err
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.CallbackQuery != nil:
		err = b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		err = b.handleMessage(ctx, update.Message)
	default:
		return
	}
	if err != nil {
		b.reportError(ctx, update, err)
	}
}

// reply sends rendered HTML text to a chat.
func (b *Bot) reply(ctx context.Context, chatID int64, text string) error {
	return b.transport.SendMessage(ctx, strconv.FormatInt(chatID, 10), text)
}

// langOf resolves a Telegram user's locale to a supported language.
func (b *Bot) langOf(user *tgbotapi.User) string {
	return b.cat.Resolve(user.LanguageCode)
}

// reportError handles an unexpected handler failure: log it under a
// fresh error reference, send a diagnostic document to the operator
// chat, and give the user a generic reply carrying only the reference.
func (b *Bot) reportError(ctx context.Context, update tgbotapi.Update, handlerErr error) {
	errorID := uuid.NewString()

	// Log before anything else, so the fault is visible even if the
	// reporting below breaks too.
	b.logger.Error("error while handling an update", "error_id", errorID, "error", handlerErr)

	if b.cfg.AdminChatID != 0 {
		updateJSON, err := json.MarshalIndent(update, "", "  ")
		if err != nil {
			updateJSON = []byte(fmt.Sprintf("unserializable update: %v", err))
		}
		body := fmt.Sprintf("error reference %s\n\n%v\n\nupdate:\n%s", errorID, handlerErr, updateJSON)

		lang := b.cat.Default()
		err = b.transport.SendDocument(ctx, strconv.FormatInt(b.cfg.AdminChatID, 10),
			fmt.Sprintf("audax-tracker-error-%s.txt", errorID),
			[]byte(body),
			b.cat.T(lang, i18n.MsgErrorReportCaption, errorID))
		if err != nil {
			b.logger.Error("failed to deliver error report", "error_id", errorID, "error", err)
		}
	}

	if update.Message != nil && update.Message.From != nil {
		lang := b.langOf(update.Message.From)
		text := b.cat.T(lang, i18n.MsgInternalError, errorID)
		if err := b.reply(ctx, update.Message.Chat.ID, text); err != nil {
			b.logger.Error("failed to deliver the error reply", "error_id", errorID, "error", err)
		}
	}
}
