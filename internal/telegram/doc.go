// Package telegram adapts the bot to the Telegram Bot API: the outbound
// transport used by the sync pipeline, the inbound command handlers, and
// the error reporting to the operator chat.
//
// The package contains no domain logic; it renders nothing itself beyond
// wiring catalog texts to chats, and it translates Telegram's
// blocked/deactivated delivery errors into the transport-neutral
// [remote.ErrRecipientUnreachable].
package telegram
