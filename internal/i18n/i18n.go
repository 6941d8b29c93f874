package i18n

import (
	"fmt"
	"slices"
)

// Catalog resolves subscriber locales and renders catalog messages.
type Catalog struct {
	defaultLang string
	supported   []string
}

// New creates a Catalog with the given default and supported languages.
// The default language must be one of the supported ones; config
// validation guarantees that for configured values.
func New(defaultLang string, supported []string) *Catalog {
	return &Catalog{defaultLang: defaultLang, supported: slices.Clone(supported)}
}

// Default returns the default language code.
func (c *Catalog) Default() string {
	return c.defaultLang
}

// Resolve maps a subscriber's locale to a supported language, falling
// back to the default language for anything outside the supported set.
func (c *Catalog) Resolve(code string) string {
	if slices.Contains(c.supported, code) {
		return code
	}
	return c.defaultLang
}

// T renders the catalog message key in the given language, applying
// fmt.Sprintf with args. Missing translations fall back to English.
func (c *Catalog) T(lang, key string, args ...any) string {
	tmpl := lookup(lang, key)
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// Plural renders the plural form of the message key appropriate for n.
// The count is passed to the selected template as its only argument.
func (c *Catalog) Plural(lang string, key string, n int) string {
	forms, ok := plurals[lang][key]
	if !ok {
		forms = plurals["en"][key]
	}
	if len(forms) == 0 {
		return key
	}
	i := pluralIndex(lang, n)
	if i >= len(forms) {
		i = len(forms) - 1
	}
	return fmt.Sprintf(forms[i], n)
}

// Month returns the localized month name for a 1-based month index.
func (c *Catalog) Month(lang string, month int) string {
	names, ok := months[lang]
	if !ok {
		names = months["en"]
	}
	if month < 1 || month > 12 {
		return ""
	}
	return names[month-1]
}

func lookup(lang, key string) string {
	if msg, ok := messages[lang][key]; ok {
		return msg
	}
	if msg, ok := messages["en"][key]; ok {
		return msg
	}
	return key
}

// pluralIndex selects the plural form index for n. English and the other
// two-form languages use [one, other]; Russian uses the standard
// three-form rule [one, few, many].
func pluralIndex(lang string, n int) int {
	if n < 0 {
		n = -n
	}
	if lang == "ru" {
		switch {
		case n%10 == 1 && n%100 != 11:
			return 0
		case n%10 >= 2 && n%10 <= 4 && (n%100 < 12 || n%100 > 14):
			return 1
		default:
			return 2
		}
	}
	if n == 1 {
		return 0
	}
	return 1
}
