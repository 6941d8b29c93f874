package state

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ControlData is the input to [Store.SetControls], one entry per control.
type ControlData struct {
	Name     map[string]string
	Distance float64
	Finish   bool
}

// Participant is a read-only view of one tracked participant.
//
// Views are built on demand from the current snapshot and must not be
// cached across operations; the snapshot can change between accesses.
type Participant struct {
	FramePlateNumber string
	Name             string

	// LastKnownControlID is the control of the most recent checkin, or ""
	// if no checkin has been seen.
	LastKnownControlID string

	// LastKnownCheckinTime is the ISO-8601 time of the most recent
	// checkin, or "" for a checkin without a time (a DNF record) and for
	// participants with no checkin at all.
	LastKnownCheckinTime string
}

// Label renders the participant as "number name" for messages.
func (p Participant) Label() string {
	return fmt.Sprintf("%s %s", p.FramePlateNumber, p.Name)
}

// Control is a read-only view of one checkpoint of the route.
type Control struct {
	ID       string
	Distance float64
	Finish   bool

	names map[string]string
}

// Name returns the control name in the given language, falling back to
// English and then to any available language.
func (c Control) Name(lang string) string {
	return localized(c.names, lang)
}

// Event is a read-only view of the event metadata.
type Event struct {
	Start  time.Time
	Finish time.Time

	// Valid reports whether name, start and finish are all present and
	// well-formed. An Event is only usable for rendering when Valid.
	Valid bool

	names map[string]string
}

// Name returns the event name in the given language, falling back to
// English and then to any available language.
func (e Event) Name(lang string) string {
	return localized(e.names, lang)
}

// Subscription is a read-only view of one subscriber's watch list.
type Subscription struct {
	SubscriberID string
	Lang         string

	// Numbers are the watched frame plate numbers, sorted numerically.
	Numbers []string
}

// Participant returns the view of one participant.
func (s *Store) Participant(number string) (Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.snapLocked().Participants[number]
	if !ok {
		return Participant{}, false
	}
	return participantView(number, rec), true
}

// Controls returns all controls ordered along the route (by distance,
// then id).
func (s *Store) Controls() []Control {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapLocked()
	controls := make([]Control, 0, len(snap.Controls))
	for id, rec := range snap.Controls {
		controls = append(controls, Control{ID: id, Distance: rec.Distance, Finish: rec.Finish, names: rec.Name})
	}
	slices.SortFunc(controls, func(a, b Control) int {
		if a.Distance != b.Distance {
			if a.Distance < b.Distance {
				return -1
			}
			return 1
		}
		return compareNumbers(a.ID, b.ID)
	})
	return controls
}

// Control returns the view of one control.
func (s *Store) Control(id string) (Control, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.snapLocked().Controls[id]
	if !ok {
		return Control{}, false
	}
	return Control{ID: id, Distance: rec.Distance, Finish: rec.Finish, names: rec.Name}, true
}

// Event returns the view of the event metadata. Before the first
// configuration reload the returned event is not Valid.
func (s *Store) Event() Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.snapLocked().Event
	if rec == nil || len(rec.Name) == 0 || rec.Start == "" || rec.Finish == "" {
		return Event{}
	}
	start, startErr := ParseTime(rec.Start)
	finish, finishErr := ParseTime(rec.Finish)
	if startErr != nil || finishErr != nil {
		return Event{}
	}
	return Event{Start: start, Finish: finish, Valid: true, names: rec.Name}
}

func participantView(number string, rec *participantRecord) Participant {
	p := Participant{FramePlateNumber: number, Name: rec.Name}
	if rec.LastKnownStatus != nil {
		p.LastKnownControlID = rec.LastKnownStatus.Control
		if rec.LastKnownStatus.CheckinTime != nil {
			p.LastKnownCheckinTime = *rec.LastKnownStatus.CheckinTime
		}
	}
	return p
}

func subscriptionView(id string, rec *subscriptionRecord) Subscription {
	numbers := slices.Clone(rec.Numbers)
	slices.SortFunc(numbers, compareNumbers)
	return Subscription{SubscriberID: id, Lang: rec.Lang, Numbers: numbers}
}

// ParseTime parses the ISO-8601 timestamps used by the remote endpoint.
// The endpoint sends both offset-carrying and local timestamps; local
// ones are interpreted as UTC.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}

// compareNumbers orders frame plate numbers numerically when possible so
// that "9" sorts before "10", falling back to string order.
func compareNumbers(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na - nb
	}
	return strings.Compare(a, b)
}

func localized(names map[string]string, lang string) string {
	if name, ok := names[lang]; ok {
		return name
	}
	if name, ok := names["en"]; ok {
		return name
	}
	langs := make([]string, 0, len(names))
	for l := range names {
		langs = append(langs, l)
	}
	slices.Sort(langs)
	if len(langs) > 0 {
		return names[langs[0]]
	}
	return ""
}
