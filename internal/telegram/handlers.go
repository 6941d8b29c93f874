package telegram

import (
	"context"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"audaxtracker/internal/i18n"
	"audaxtracker/internal/metrics"
)

// handleMessage routes one incoming message: a command, or the frame
// plate number a previous /add or /remove asked for.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID

	if cmd := msg.Command(); cmd != "" {
		// A command while the bot is waiting for a number means the user
		// bailed out of the conversation.
		if b.takePending(chatID) != actionNone {
			return b.reply(ctx, chatID, b.cat.T(b.langOf(msg.From), i18n.MsgAbort))
		}

		switch cmd {
		case "start", "help":
			return b.handleStart(ctx, msg)
		case "add":
			return b.handleAdd(ctx, msg)
		case "remove":
			return b.handleRemove(ctx, msg)
		case "status":
			return b.handleStatus(ctx, msg)
		case "admin":
			return b.handleAdmin(ctx, msg)
		default:
			return nil
		}
	}

	if action := b.takePending(chatID); action != actionNone {
		return b.receivedNumber(ctx, msg, action)
	}
	return nil
}

// setPending records which conversation step a chat is in.
func (b *Bot) setPending(chatID int64, action pendingAction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[chatID] = action
}

// takePending returns and clears the chat's conversation step.
func (b *Bot) takePending(chatID int64) pendingAction {
	b.mu.Lock()
	defer b.mu.Unlock()
	action := b.pending[chatID]
	delete(b.pending, chatID)
	return action
}

// handleStart welcomes the user and explains the commands.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	user := msg.From

	switch {
	case b.cfg.AdminChatID == 0:
		b.logger.Info("welcoming user, is this the admin?", "username", user.UserName, "chat_id", user.ID)
	case user.ID == b.cfg.AdminChatID:
		b.logger.Info("welcoming the admin user", "username", user.UserName, "chat_id", user.ID)
	default:
		b.logger.Info("welcoming user", "username", user.UserName, "chat_id", user.ID)
	}

	lang := b.langOf(user)
	lines := []string{b.cat.T(lang, i18n.MsgWelcome, b.cfg.MaxSubscriptions)}
	if b.cfg.ParticipantListURL != "" {
		lines = append(lines, "", b.cat.T(lang, i18n.MsgWelcomeList, b.cfg.ParticipantListURL))
	}
	return b.reply(ctx, msg.Chat.ID, strings.Join(lines, "\n"))
}

// handleAdd starts the conversation that subscribes the user to a
// participant, unless they are at the subscription cap already.
func (b *Bot) handleAdd(ctx context.Context, msg *tgbotapi.Message) error {
	lang := b.langOf(msg.From)

	sub, ok := b.store.Subscription(strconv.FormatInt(msg.From.ID, 10))
	if ok && len(sub.Numbers) >= b.cfg.MaxSubscriptions {
		return b.reply(ctx, msg.Chat.ID, b.cat.T(lang, i18n.MsgSubscriptionLimit, b.cfg.MaxSubscriptions))
	}

	b.setPending(msg.Chat.ID, actionAdd)
	return b.reply(ctx, msg.Chat.ID, b.cat.T(lang, i18n.MsgAskNumberSubscribe))
}

// handleRemove starts the conversation that unsubscribes the user from a
// participant.
func (b *Bot) handleRemove(ctx context.Context, msg *tgbotapi.Message) error {
	b.setPending(msg.Chat.ID, actionRemove)
	return b.reply(ctx, msg.Chat.ID, b.cat.T(b.langOf(msg.From), i18n.MsgAskNumberUnsub))
}

// receivedNumber finishes an /add or /remove conversation with the frame
// plate number the user typed.
func (b *Bot) receivedNumber(ctx context.Context, msg *tgbotapi.Message, action pendingAction) error {
	user := msg.From
	lang := b.langOf(user)
	subscriberID := strconv.FormatInt(user.ID, 10)
	number := strings.TrimSpace(msg.Text)

	if !b.store.HasParticipant(number) {
		return b.reply(ctx, msg.Chat.ID, b.cat.T(lang, i18n.MsgNoSuchParticipant))
	}

	participant, _ := b.store.Participant(number)

	switch action {
	case actionAdd:
		if b.store.HasSubscription(subscriberID, number) {
			return b.reply(ctx, msg.Chat.ID, b.cat.T(lang, i18n.MsgAlreadySubscribed))
		}
		if err := b.store.AddSubscription(subscriberID, lang, number); err != nil {
			return err
		}
		return b.reply(ctx, msg.Chat.ID,
			b.cat.T(lang, i18n.MsgSubscriptionAdded, participant.FramePlateNumber, participant.Name))

	case actionRemove:
		if !b.store.HasSubscription(subscriberID, number) {
			return b.reply(ctx, msg.Chat.ID, b.cat.T(lang, i18n.MsgNotSubscribed))
		}
		if err := b.store.RemoveSubscription(subscriberID, number); err != nil {
			return err
		}
		metrics.SubscriptionsRemoved.WithLabelValues("unsubscribed").Inc()
		return b.reply(ctx, msg.Chat.ID,
			b.cat.T(lang, i18n.MsgSubscriptionRemoved, participant.FramePlateNumber, participant.Name))

	default:
		b.logger.Error("unknown conversation action", "action", int(action))
		return nil
	}
}

// handleStatus renders the event header and the last known status of
// every participant the user follows.
func (b *Bot) handleStatus(ctx context.Context, msg *tgbotapi.Message) error {
	user := msg.From
	lang := b.langOf(user)
	subscriberID := strconv.FormatInt(user.ID, 10)

	var lines []string
	if event := b.store.Event(); event.Valid {
		lines = append(lines,
			"<b>"+event.Name(lang)+"</b>",
			b.formatter.EventStatus(lang, time.Now()),
			"")
	}

	sub, ok := b.store.Subscription(subscriberID)
	if !ok {
		lines = append(lines, b.cat.T(lang, i18n.MsgStatusEmpty))
	} else {
		lines = append(lines, b.cat.T(lang, i18n.MsgStatusHeader))
		for _, number := range sub.Numbers {
			if participant, ok := b.store.Participant(number); ok {
				lines = append(lines, b.formatter.ParticipantStatus(lang, participant))
			}
		}
	}

	return b.reply(ctx, msg.Chat.ID, strings.Join(lines, "\n"))
}
