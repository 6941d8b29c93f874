// Package i18n holds the bot's message catalog and language resolution.
//
// The catalog is a closed set of templates owned by this repository, one
// per supported language, with English as the final fallback. Subscriber
// locales outside the supported set resolve to the configured default
// language.
package i18n
