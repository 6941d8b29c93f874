package i18n

import (
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	cat := New("en", []string{"en", "ru"})

	tests := []struct {
		code string
		want string
	}{
		{"ru", "ru"},
		{"en", "en"},
		{"de", "en"},
		{"", "en"},
	}
	for _, tt := range tests {
		if got := cat.Resolve(tt.code); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestT_FallsBackToEnglish(t *testing.T) {
	cat := New("en", []string{"en", "ru"})

	en := cat.T("en", MsgAbort)
	ru := cat.T("ru", MsgAbort)
	if en == ru {
		t.Errorf("expected distinct translations, got %q twice", en)
	}

	// An unsupported language renders the English template.
	if got := cat.T("de", MsgAbort); got != en {
		t.Errorf("T(de) = %q, want English %q", got, en)
	}

	// An unknown key comes back verbatim rather than panicking.
	if got := cat.T("en", "no_such_key"); got != "no_such_key" {
		t.Errorf("T(unknown key) = %q", got)
	}
}

func TestT_Formatting(t *testing.T) {
	cat := New("en", []string{"en", "ru"})

	got := cat.T("en", MsgSubscriptionAdded, "101", "Alice Post")
	if !strings.Contains(got, "101 Alice Post") {
		t.Errorf("T(MsgSubscriptionAdded) = %q", got)
	}
}

func TestPlural_English(t *testing.T) {
	cat := New("en", []string{"en", "ru"})

	tests := []struct {
		n    int
		want string
	}{
		{1, "1 hour"},
		{0, "0 hours"},
		{5, "5 hours"},
	}
	for _, tt := range tests {
		if got := cat.Plural("en", PluralHours, tt.n); got != tt.want {
			t.Errorf("Plural(en, hours, %d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestPlural_Russian(t *testing.T) {
	cat := New("en", []string{"en", "ru"})

	tests := []struct {
		n    int
		want string
	}{
		{1, "1 час"},
		{2, "2 часа"},
		{5, "5 часов"},
		{11, "11 часов"},
		{21, "21 час"},
		{22, "22 часа"},
		{112, "112 часов"},
	}
	for _, tt := range tests {
		if got := cat.Plural("ru", PluralHours, tt.n); got != tt.want {
			t.Errorf("Plural(ru, hours, %d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestMonth(t *testing.T) {
	cat := New("en", []string{"en", "ru"})

	if got := cat.Month("en", 7); got != "July" {
		t.Errorf("Month(en, 7) = %q, want July", got)
	}
	if got := cat.Month("ru", 7); got != "июля" {
		t.Errorf("Month(ru, 7) = %q, want июля", got)
	}
	if got := cat.Month("en", 13); got != "" {
		t.Errorf("Month(en, 13) = %q, want empty", got)
	}
}

// TestEnglishCatalogComplete ensures every key known to any language has
// an English fallback, which the lookup path relies on.
func TestEnglishCatalogComplete(t *testing.T) {
	en := messages["en"]
	for lang, msgs := range messages {
		for key := range msgs {
			if _, ok := en[key]; !ok {
				t.Errorf("key %q exists in %q but not in en", key, lang)
			}
		}
	}
	for lang, forms := range plurals {
		for key := range forms {
			if _, ok := plurals["en"][key]; !ok {
				t.Errorf("plural %q exists in %q but not in en", key, lang)
			}
		}
	}
}
