package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"audaxtracker/internal/format"
	"audaxtracker/internal/i18n"
	"audaxtracker/internal/state"
)

// fakeMessenger records outbound messages and can fail per recipient.
type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[string]error
}

type sentMessage struct {
	chatID string
	text   string
}

func (m *fakeMessenger) SendMessage(_ context.Context, chatID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.fail[chatID]; ok {
		return err
	}
	m.sent = append(m.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (m *fakeMessenger) messages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

// fakeEndpoint serves a swappable JSON response.
type fakeEndpoint struct {
	mu   sync.Mutex
	body string
}

func (f *fakeEndpoint) set(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.body = body
}

func (f *fakeEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, _ = w.Write([]byte(f.body))
}

type engineFixture struct {
	engine    *Engine
	store     *state.Store
	messenger *fakeMessenger
	endpoint  *fakeEndpoint
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	store := state.New(filepath.Join(t.TempDir(), "state.json"), testLogger())
	if err := store.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	endpoint := &fakeEndpoint{body: `{"success": true, "updates": [], "next_since": ""}`}
	srv := httptest.NewServer(endpoint)
	t.Cleanup(srv.Close)

	cat := i18n.New("en", []string{"en", "ru"})
	formatter := format.New(store, cat, time.UTC)
	messenger := &fakeMessenger{fail: make(map[string]error)}
	engine := NewEngine(store, NewClient(srv.URL, "secret", testLogger()), messenger, formatter, cat, testLogger())
	store.OnParticipantsRemoved(engine)

	return &engineFixture{engine: engine, store: store, messenger: messenger, endpoint: endpoint}
}

func (f *engineFixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if err := f.store.SetParticipants(ctx, map[string]string{"101": "Alice Post", "102": "Bob Long"}); err != nil {
		t.Fatal(err)
	}
	err := f.store.SetControls(map[string]state.ControlData{
		"5": {Name: map[string]string{"en": "Mill Bridge"}, Distance: 104.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.store.AddSubscription("42", "en", "101"); err != nil {
		t.Fatal(err)
	}
}

func TestRunCycle_NotifiesSubscriberAndAdvancesCursor(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t)

	f.endpoint.set(`{
		"success": true,
		"updates": [{"frame_plate_number": "101", "control": "5", "checkin_time": "2024-01-01T10:00:00"}],
		"next_since": "2024-01-01T10:05:00"
	}`)

	if err := f.engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	sent := f.messenger.messages()
	if len(sent) != 1 {
		t.Fatalf("got %d messages, want 1", len(sent))
	}
	if sent[0].chatID != "42" {
		t.Errorf("chatID = %q, want 42", sent[0].chatID)
	}
	for _, want := range []string{"101", "Alice Post", "Mill Bridge"} {
		if !strings.Contains(sent[0].text, want) {
			t.Errorf("message %q does not mention %q", sent[0].text, want)
		}
	}

	cursor, ok := f.store.LastFetchCursor()
	if !ok || cursor != "2024-01-01T10:05:00" {
		t.Errorf("cursor = %q, %v; want 2024-01-01T10:05:00, true", cursor, ok)
	}
}

func TestRunCycle_NoNotificationForUnwatchedParticipant(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t)

	f.endpoint.set(`{
		"success": true,
		"updates": [{"frame_plate_number": "102", "control": "5", "checkin_time": "2024-01-01T10:00:00"}],
		"next_since": "2024-01-01T10:05:00"
	}`)

	if err := f.engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if sent := f.messenger.messages(); len(sent) != 0 {
		t.Errorf("got %d messages, want 0", len(sent))
	}
}

func TestRunCycle_RepeatedUpdateNotifiesOnce(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t)

	f.endpoint.set(`{
		"success": true,
		"updates": [{"frame_plate_number": "101", "control": "5", "checkin_time": "2024-01-01T10:00:00"}],
		"next_since": "2024-01-01T10:05:00"
	}`)

	if err := f.engine.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	// The endpoint re-sends the same record on the next poll.
	if err := f.engine.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}

	if sent := f.messenger.messages(); len(sent) != 1 {
		t.Errorf("got %d messages, want 1", len(sent))
	}
}

func TestRunCycle_SoftFailureLeavesCursorAlone(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t)

	if err := f.store.SetLastFetchCursor("2024-01-01T09:00:00"); err != nil {
		t.Fatal(err)
	}

	f.endpoint.set(`{"success": false, "error_message": "database is down"}`)

	// Soft failures are absorbed and retried, not raised.
	for i := 0; i < 2; i++ {
		if err := f.engine.RunCycle(context.Background()); err != nil {
			t.Fatalf("RunCycle() error = %v, want nil for a soft failure", err)
		}
	}

	cursor, _ := f.store.LastFetchCursor()
	if cursor != "2024-01-01T09:00:00" {
		t.Errorf("cursor = %q, want untouched 2024-01-01T09:00:00", cursor)
	}
	if sent := f.messenger.messages(); len(sent) != 0 {
		t.Errorf("got %d messages, want 0", len(sent))
	}
}

func TestRunCycle_MalformedResponseIsFault(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t)

	f.endpoint.set(`{broken`)

	if err := f.engine.RunCycle(context.Background()); err == nil {
		t.Fatal("RunCycle() = nil, want a fault for a malformed response")
	}
}

func TestRunCycle_UnreachableSubscriberDropped(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t)

	f.messenger.fail["42"] = fmt.Errorf("telegram: %w", ErrRecipientUnreachable)
	f.endpoint.set(`{
		"success": true,
		"updates": [{"frame_plate_number": "101", "control": "5", "checkin_time": "2024-01-01T10:00:00"}],
		"next_since": "2024-01-01T10:05:00"
	}`)

	if err := f.engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	if f.store.HasSubscriber("42") {
		t.Error("unreachable subscriber was kept")
	}
	// The cycle still completes and commits its cursor.
	if cursor, _ := f.store.LastFetchCursor(); cursor != "2024-01-01T10:05:00" {
		t.Errorf("cursor = %q, want 2024-01-01T10:05:00", cursor)
	}
}

func TestRunCycle_OtherDeliveryFailureKeepsSubscriber(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t)

	f.messenger.fail["42"] = fmt.Errorf("telegram: flood control")
	f.endpoint.set(`{
		"success": true,
		"updates": [{"frame_plate_number": "101", "control": "5", "checkin_time": "2024-01-01T10:00:00"}],
		"next_since": "2024-01-01T10:05:00"
	}`)

	if err := f.engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if !f.store.HasSubscriber("42") {
		t.Error("subscriber dropped over a transient delivery failure")
	}
}

func TestReloadConfiguration(t *testing.T) {
	f := newEngineFixture(t)

	f.endpoint.set(`{
		"success": true,
		"event": {"name": {"en": "Vyborg 400"}, "start": "2024-07-06T07:00:00", "finish": "2024-07-07T10:00:00"},
		"controls": {"1": {"name": {"en": "Start"}, "distance": 0, "finish": false}},
		"participants": {"101": "Alice Post"}
	}`)

	if ok := f.engine.ReloadConfiguration(context.Background()); !ok {
		t.Fatal("ReloadConfiguration() = false, want true")
	}

	if !f.store.Event().Valid {
		t.Error("event not stored")
	}
	if f.store.ControlCount() != 1 {
		t.Errorf("ControlCount() = %d, want 1", f.store.ControlCount())
	}
	if !f.store.HasParticipant("101") {
		t.Error("participant not stored")
	}
}

func TestReloadConfiguration_RemovedParticipantNotifiesSubscriber(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t)

	// The new start list no longer carries 101.
	f.endpoint.set(`{
		"success": true,
		"event": {"name": {"en": "Vyborg 400"}, "start": "2024-07-06T07:00:00", "finish": "2024-07-07T10:00:00"},
		"controls": {},
		"participants": {"102": "Bob Long"}
	}`)

	if ok := f.engine.ReloadConfiguration(context.Background()); !ok {
		t.Fatal("ReloadConfiguration() = false, want true")
	}

	if f.store.HasSubscriber("42") {
		t.Error("subscription to the removed participant was kept")
	}
	sent := f.messenger.messages()
	if len(sent) != 1 {
		t.Fatalf("got %d messages, want 1 removal notice", len(sent))
	}
	if sent[0].chatID != "42" || !strings.Contains(sent[0].text, "101 Alice Post") {
		t.Errorf("removal notice = %+v", sent[0])
	}
}

func TestReloadConfiguration_EndpointFailure(t *testing.T) {
	f := newEngineFixture(t)
	f.endpoint.set(`{"success": false, "error_message": "nope"}`)

	if ok := f.engine.ReloadConfiguration(context.Background()); ok {
		t.Fatal("ReloadConfiguration() = true, want false")
	}
}
