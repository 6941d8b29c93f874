package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"sync"
)

// ErrCorrupt reports that the snapshot file exists but cannot be parsed.
//
// This is fatal at startup: the process must not silently discard data,
// so callers should surface the error and exit rather than recreate the
// snapshot.
var ErrCorrupt = errors.New("state snapshot is corrupt")

// Snapshot document records. Field names match the on-disk JSON keys and
// the remote endpoint payloads.

type statusRecord struct {
	Control     string  `json:"control"`
	CheckinTime *string `json:"checkin_time"`
}

type participantRecord struct {
	Name            string        `json:"name"`
	LastKnownStatus *statusRecord `json:"last_known_status,omitempty"`
}

type controlRecord struct {
	Name     map[string]string `json:"name"`
	Distance float64           `json:"distance"`
	Finish   bool              `json:"finish"`
}

type eventRecord struct {
	Name   map[string]string `json:"name,omitempty"`
	Start  string            `json:"start,omitempty"`
	Finish string            `json:"finish,omitempty"`
}

type subscriptionRecord struct {
	Lang    string   `json:"lang"`
	Numbers []string `json:"numbers"`
}

type feedStatusRecord struct {
	IsFetching          bool    `json:"is_fetching"`
	LastSuccessfulFetch *string `json:"last_successful_fetch"`
}

type snapshot struct {
	Participants  map[string]*participantRecord  `json:"participants"`
	Controls      map[string]controlRecord       `json:"controls"`
	Event         *eventRecord                   `json:"event,omitempty"`
	Subscriptions map[string]*subscriptionRecord `json:"subscriptions"`
	FeedStatus    feedStatusRecord               `json:"feed_status"`
}

func emptySnapshot() *snapshot {
	return &snapshot{
		Participants:  make(map[string]*participantRecord),
		Controls:      make(map[string]controlRecord),
		Subscriptions: make(map[string]*subscriptionRecord),
	}
}

// Removal describes what one subscriber lost in a configuration reload.
type Removal struct {
	// Lang is the language preference the subscription carried before it
	// was reconciled (the subscription itself may be gone by the time the
	// observer runs).
	Lang string

	// Participants are the dropped participants the subscriber was watching.
	Participants []Participant
}

// RemovalObserver is notified once per configuration reload that dropped
// participants referenced by subscriptions, after the reconciliation is
// complete and persisted. The map is keyed by subscriber id.
type RemovalObserver interface {
	ParticipantsRemoved(ctx context.Context, removed map[string]Removal)
}

// Store is the single source of truth for all persisted domain data.
//
// The snapshot is loaded from disk once (see [Store.Load]) and cached in
// memory; every mutating method rewrites the complete snapshot to disk
// before returning. All methods are safe for concurrent use.
type Store struct {
	path   string
	logger *slog.Logger

	mu       sync.Mutex
	snap     *snapshot
	observer RemovalObserver
}

// New creates a Store backed by the snapshot file at path.
//
// The file is not touched until [Store.Load] or the first mutation.
func New(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load reads the snapshot file into memory.
//
// Load is idempotent: once the snapshot is cached, subsequent calls are
// no-ops. A missing file is not an error; it initializes an empty default
// snapshot (first run). An unparsable file fails with [ErrCorrupt].
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() error {
	if s.snap != nil {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		// First run, no problem, starting from an empty state.
		s.logger.Info("no snapshot file, starting empty", "path", s.path)
		s.snap = emptySnapshot()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read snapshot %s: %w", s.path, err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	if snap.Participants == nil {
		snap.Participants = make(map[string]*participantRecord)
	}
	if snap.Controls == nil {
		snap.Controls = make(map[string]controlRecord)
	}
	if snap.Subscriptions == nil {
		snap.Subscriptions = make(map[string]*subscriptionRecord)
	}
	s.snap = &snap
	return nil
}

// saveLocked rewrites the complete snapshot atomically. Callers hold s.mu.
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// snapLocked returns the cached snapshot for read accessors, lazily
// loading it the way the mutators do. Read accessors cannot report a load
// failure through their signatures; the process is expected to have
// called Load at startup, which is where failures surface.
func (s *Store) snapLocked() *snapshot {
	if err := s.loadLocked(); err != nil {
		s.logger.Error("snapshot load failed in read path", "error", err)
		s.snap = emptySnapshot()
	}
	return s.snap
}

// OnParticipantsRemoved registers the observer invoked after a reload
// drops participants referenced by subscriptions. Only one observer is
// held; a later registration replaces the earlier one.
func (s *Store) OnParticipantsRemoved(obs RemovalObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = obs
}

// IsFetching reports the persisted feed flag.
func (s *Store) IsFetching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapLocked().FeedStatus.IsFetching
}

// SetFetching persists the feed flag.
func (s *Store) SetFetching(fetching bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}
	s.snap.FeedStatus.IsFetching = fetching
	return s.saveLocked()
}

// LastFetchCursor returns the opaque cursor of the last successful fetch,
// or "" and false if no fetch has succeeded yet.
func (s *Store) LastFetchCursor() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cursor := s.snapLocked().FeedStatus.LastSuccessfulFetch
	if cursor == nil {
		return "", false
	}
	return *cursor, true
}

// SetLastFetchCursor persists the polling cursor. The cursor is opaque
// and forwarded verbatim to the remote endpoint on the next poll.
func (s *Store) SetLastFetchCursor(cursor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}
	s.snap.FeedStatus.LastSuccessfulFetch = &cursor
	return s.saveLocked()
}

// SetEvent replaces the event metadata wholesale.
func (s *Store) SetEvent(name map[string]string, start, finish string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}
	s.snap.Event = &eventRecord{Name: name, Start: start, Finish: finish}
	return s.saveLocked()
}

// ControlCount returns the number of known controls.
func (s *Store) ControlCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapLocked().Controls)
}

// SetControls replaces the control set wholesale. The map is keyed by
// control id, matching the remote configuration payload.
func (s *Store) SetControls(controls map[string]ControlData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}
	s.snap.Controls = make(map[string]controlRecord, len(controls))
	for id, c := range controls {
		s.snap.Controls[id] = controlRecord{Name: c.Name, Distance: c.Distance, Finish: c.Finish}
	}
	return s.saveLocked()
}

// ParticipantCount returns the number of known participants.
func (s *Store) ParticipantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapLocked().Participants)
}

// SetParticipants replaces the participant set wholesale, keyed by frame
// plate number with the participant's name as value.
//
// Participants present in both the old and the new set keep their last
// known status; participants absent from the new set are dropped. Every
// subscription referencing a dropped participant loses that number (and
// is deleted entirely once empty). After the reconciled snapshot is
// persisted, the registered [RemovalObserver] is invoked once with the
// affected subscribers.
func (s *Store) SetParticipants(ctx context.Context, participants map[string]string) error {
	s.mu.Lock()
	if err := s.loadLocked(); err != nil {
		s.mu.Unlock()
		return err
	}

	old := s.snap.Participants
	s.snap.Participants = make(map[string]*participantRecord, len(participants))
	for number, name := range participants {
		rec := &participantRecord{Name: name}
		if prev, ok := old[number]; ok {
			rec.LastKnownStatus = prev.LastKnownStatus
		}
		s.snap.Participants[number] = rec
	}

	removed := make(map[string]Participant)
	for number, rec := range old {
		if _, ok := s.snap.Participants[number]; !ok {
			removed[number] = participantView(number, rec)
		}
	}

	packages := make(map[string]Removal)
	if len(removed) == 0 {
		s.logger.Info("no participants were removed")
	} else {
		s.logger.Info("participants removed by reload", "count", len(removed))

		for id, sub := range s.snap.Subscriptions {
			for _, number := range slices.Clone(sub.Numbers) {
				participant, ok := removed[number]
				if !ok {
					continue
				}
				pkg := packages[id]
				pkg.Lang = sub.Lang
				pkg.Participants = append(pkg.Participants, participant)
				packages[id] = pkg

				s.removeSubscriptionLocked(id, number)
			}
		}
	}

	err := s.saveLocked()
	observer := s.observer
	s.mu.Unlock()

	if err != nil {
		return err
	}
	if len(packages) > 0 && observer != nil {
		observer.ParticipantsRemoved(ctx, packages)
	}
	return nil
}

// Subscriptions returns a snapshot of all subscriptions, sorted by
// subscriber id. Mutations after the call do not affect the result.
func (s *Store) Subscriptions() []Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapLocked()
	subs := make([]Subscription, 0, len(snap.Subscriptions))
	for id, rec := range snap.Subscriptions {
		subs = append(subs, subscriptionView(id, rec))
	}
	slices.SortFunc(subs, func(a, b Subscription) int {
		return compareNumbers(a.SubscriberID, b.SubscriberID)
	})
	return subs
}

// Subscription returns the subscription view for one subscriber.
func (s *Store) Subscription(subscriberID string) (Subscription, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.snapLocked().Subscriptions[subscriberID]
	if !ok {
		return Subscription{}, false
	}
	return subscriptionView(subscriberID, rec), true
}

// AddSubscription subscribes subscriberID to the participant with the
// given frame plate number. The insert is idempotent; the stored language
// preference is refreshed unconditionally to the subscriber's current
// locale.
func (s *Store) AddSubscription(subscriberID, lang, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}

	sub, ok := s.snap.Subscriptions[subscriberID]
	if !ok {
		sub = &subscriptionRecord{}
		s.snap.Subscriptions[subscriberID] = sub
	}
	sub.Lang = lang
	if !slices.Contains(sub.Numbers, number) {
		sub.Numbers = append(sub.Numbers, number)
	}

	s.logger.Info("subscribed", "subscriber", subscriberID, "participant", number)
	return s.saveLocked()
}

// RemoveSubscription unsubscribes subscriberID from the given frame plate
// number. The removal is idempotent; a subscriber whose number set
// becomes empty is deleted entirely.
func (s *Store) RemoveSubscription(subscriberID, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}
	if !s.removeSubscriptionLocked(subscriberID, number) {
		return nil
	}
	return s.saveLocked()
}

// removeSubscriptionLocked removes one number from one subscriber and
// reports whether anything changed. Callers hold s.mu.
func (s *Store) removeSubscriptionLocked(subscriberID, number string) bool {
	sub, ok := s.snap.Subscriptions[subscriberID]
	if !ok {
		return false
	}
	i := slices.Index(sub.Numbers, number)
	if i < 0 {
		return false
	}
	sub.Numbers = slices.Delete(sub.Numbers, i, i+1)
	s.logger.Info("unsubscribed", "subscriber", subscriberID, "participant", number)

	if len(sub.Numbers) == 0 {
		delete(s.snap.Subscriptions, subscriberID)
		s.logger.Info("subscriber has no subscriptions left, removed entirely", "subscriber", subscriberID)
	}
	return true
}

// RemoveSubscriber deletes a subscriber's entire subscription entry.
// Used when message delivery reports the recipient as unreachable.
func (s *Store) RemoveSubscriber(subscriberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}
	if _, ok := s.snap.Subscriptions[subscriberID]; !ok {
		return nil
	}
	delete(s.snap.Subscriptions, subscriberID)
	s.logger.Info("subscriber removed entirely", "subscriber", subscriberID)
	return s.saveLocked()
}

// HasSubscriber reports whether the subscriber has any subscription.
func (s *Store) HasSubscriber(subscriberID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.snapLocked().Subscriptions[subscriberID]
	return ok
}

// HasSubscription reports whether the subscriber watches the given number.
func (s *Store) HasSubscription(subscriberID, number string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.snapLocked().Subscriptions[subscriberID]
	return ok && slices.Contains(sub.Numbers, number)
}

// HasParticipant reports whether a participant with the given frame plate
// number exists.
func (s *Store) HasParticipant(number string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.snapLocked().Participants[number]
	return ok
}

// SetParticipantLastKnownStatusIfNewer records a checkin for a
// participant unless a more recent checkin is already stored, and reports
// whether the stored state changed.
//
// checkinTime is an ISO-8601 timestamp; nil means a checkin without a
// time (a DNF record), which is always accepted. Checkin times are
// compared as strings, which orders ISO-8601 timestamps correctly. A
// repeat of the already stored checkin reports no change.
func (s *Store) SetParticipantLastKnownStatusIfNewer(number, controlID string, checkinTime *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return false, err
	}

	rec, ok := s.snap.Participants[number]
	if !ok {
		s.logger.Warn("checkin for unknown participant ignored", "participant", number)
		return false, nil
	}

	if prev := rec.LastKnownStatus; prev != nil {
		if prev.Control == controlID && equalTimes(prev.CheckinTime, checkinTime) {
			return false, nil
		}
		if prev.Control != controlID && prev.CheckinTime != nil && checkinTime != nil && *checkinTime < *prev.CheckinTime {
			s.logger.Info("ignoring stale checkin",
				"participant", number,
				"control", controlID,
				"checkin_time", *checkinTime,
				"stored_control", prev.Control,
				"stored_checkin_time", *prev.CheckinTime)
			return false, nil
		}
	}

	rec.LastKnownStatus = &statusRecord{Control: controlID, CheckinTime: checkinTime}
	if checkinTime != nil {
		s.logger.Info("new last known checkin", "participant", number, "control", controlID, "checkin_time", *checkinTime)
	} else {
		s.logger.Info("new last known checkin without a time", "participant", number, "control", controlID)
	}

	if err := s.saveLocked(); err != nil {
		return false, err
	}
	return true, nil
}

func equalTimes(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
