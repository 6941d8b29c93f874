// Package format renders the bot's message bodies: checkin update
// bundles, participant and event status lines, and removal notices.
//
// All texts come from the i18n catalog; all timestamps are presented in
// the event time zone. The package holds no state of its own and reads
// controls and event metadata from the store at render time.
package format

import (
	"fmt"
	"strings"
	"time"

	"audaxtracker/internal/i18n"
	"audaxtracker/internal/state"
)

// Formatter renders localized message bodies.
type Formatter struct {
	store *state.Store
	cat   *i18n.Catalog
	loc   *time.Location
}

// New creates a Formatter presenting times in the given location.
func New(store *state.Store, cat *i18n.Catalog, loc *time.Location) *Formatter {
	return &Formatter{store: store, cat: cat, loc: loc}
}

// UpdateMessage renders the combined checkin update for one subscriber.
// Participants are rendered in the order given.
func (f *Formatter) UpdateMessage(lang string, participants []state.Participant) string {
	entries := make([]string, 0, len(participants))
	for _, p := range participants {
		entries = append(entries, f.checkinEntry(lang, p))
	}
	return f.cat.T(lang, i18n.MsgCheckinUpdate, strings.Join(entries, "\n"))
}

// checkinEntry renders one line of an update bundle from the
// participant's current last known status.
func (f *Formatter) checkinEntry(lang string, p state.Participant) string {
	var controlName string
	var distance any = ""
	if control, ok := f.store.Control(p.LastKnownControlID); ok {
		controlName = control.Name(lang)
		distance = control.Distance
	}

	checkin := f.cat.T(lang, i18n.MsgDNF)
	if p.LastKnownCheckinTime != "" {
		checkin = f.checkinDayAndTime(lang, p.LastKnownCheckinTime)
	}

	return f.cat.T(lang, i18n.MsgCheckinEntry, p.FramePlateNumber, p.Name, controlName, distance, checkin)
}

// ParticipantStatus renders the status line shown by /status for one
// participant: no checkins yet, finished with a result, on course at a
// control, or off the route.
func (f *Formatter) ParticipantStatus(lang string, p state.Participant) string {
	if p.LastKnownControlID == "" {
		return f.cat.T(lang, i18n.MsgStatusUnknown, p.Label())
	}

	control, ok := f.store.Control(p.LastKnownControlID)
	if !ok {
		return f.cat.T(lang, i18n.MsgStatusUnknown, p.Label())
	}

	if control.Finish && p.LastKnownCheckinTime != "" {
		return f.cat.T(lang, i18n.MsgStatusFinished, p.Label(), f.resultTime(p.LastKnownCheckinTime))
	}

	if p.LastKnownCheckinTime != "" {
		return f.cat.T(lang, i18n.MsgStatusOnCourse, p.Label(), control.Name(lang), control.Distance,
			f.checkinDayAndTime(lang, p.LastKnownCheckinTime))
	}

	return f.cat.T(lang, i18n.MsgStatusAbandoned, p.Label(), control.Name(lang), control.Distance)
}

// EventStatus renders the countdown line for the event: time to start,
// time until the limit, or finished. Returns "" when the event metadata
// is not complete yet.
func (f *Formatter) EventStatus(lang string, now time.Time) string {
	event := f.store.Event()
	if !event.Valid {
		return ""
	}

	now = now.In(f.loc)
	switch {
	case now.Before(event.Start):
		return f.cat.T(lang, i18n.MsgEventBeforeStart, f.remainder(lang, event.Start.Sub(now)))
	case now.Before(event.Finish):
		return f.cat.T(lang, i18n.MsgEventInAir, f.remainder(lang, event.Finish.Sub(now)))
	default:
		return f.cat.T(lang, i18n.MsgEventFinished)
	}
}

// RemovedNotice renders the message telling a subscriber which of their
// participants disappeared from the start list.
func (f *Formatter) RemovedNotice(lang string, participants []state.Participant) string {
	labels := make([]string, 0, len(participants))
	for _, p := range participants {
		labels = append(labels, p.Label())
	}
	return f.cat.T(lang, i18n.MsgRemovedNotice, strings.Join(labels, "\n"))
}

// remainder renders a duration as days, hours and minutes.
func (f *Formatter) remainder(lang string, d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	return f.cat.T(lang, i18n.MsgRemainder,
		f.cat.Plural(lang, i18n.PluralDays, days),
		f.cat.Plural(lang, i18n.PluralHours, hours),
		f.cat.Plural(lang, i18n.PluralMinutes, minutes))
}

// checkinDayAndTime renders a checkin timestamp as month, day, hour and
// minute in the event time zone.
func (f *Formatter) checkinDayAndTime(lang, timestamp string) string {
	t, err := state.ParseTime(timestamp)
	if err != nil {
		return timestamp
	}
	t = t.In(f.loc)
	return f.cat.T(lang, i18n.MsgCheckinTime, f.cat.Month(lang, int(t.Month())), t.Day(), t.Hour(), t.Minute())
}

// resultTime renders the difference between a finish checkin and the
// event start as hours and minutes.
func (f *Formatter) resultTime(timestamp string) string {
	t, err := state.ParseTime(timestamp)
	if err != nil {
		return timestamp
	}
	event := f.store.Event()
	if !event.Valid {
		return timestamp
	}
	total := int(t.Sub(event.Start).Minutes())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
