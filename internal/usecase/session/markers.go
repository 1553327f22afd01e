package session

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// SessionMarker holds the start of an open session
type SessionMarker struct {
	StartedAt time.Time
	Restarts  int
}

// SessionMarkers tracks per-meeting start timestamps used for durations
type SessionMarkers struct {
	markers *xsync.MapOf[string, SessionMarker]
}

// NewSessionMarkers creates an empty marker table
func NewSessionMarkers() *SessionMarkers {
	return &SessionMarkers{markers: xsync.NewMapOf[string, SessionMarker]()}
}

// Start opens the session marker at now. A repeated start resets the marker
// unless preserveExisting is set. previous is the marker that was replaced
// (or kept) and restarted reports whether one existed.
func (m *SessionMarkers) Start(meetingID string, now time.Time, preserveExisting bool) (current, previous SessionMarker, restarted bool) {
	m.markers.Compute(meetingID, func(old SessionMarker, loaded bool) (SessionMarker, bool) {
		if !loaded {
			current = SessionMarker{StartedAt: now}
			return current, false
		}
		restarted = true
		previous = old
		current = SessionMarker{StartedAt: now, Restarts: old.Restarts + 1}
		if preserveExisting {
			current.StartedAt = old.StartedAt
		}
		return current, false
	})
	return current, previous, restarted
}

// Get returns the marker of an open session
func (m *SessionMarkers) Get(meetingID string) (SessionMarker, bool) {
	return m.markers.Load(meetingID)
}

// Take removes and returns the marker of a meeting
func (m *SessionMarkers) Take(meetingID string) (SessionMarker, bool) {
	return m.markers.LoadAndDelete(meetingID)
}

// Len returns the number of open markers
func (m *SessionMarkers) Len() int {
	return m.markers.Size()
}

// withKeyLocked runs fn while holding the bucket lock of meetingID, handing
// over the marker (if any) and removing it. Used to close a session so that
// concurrent closers of the same meeting are serialised.
func (m *SessionMarkers) withKeyLocked(meetingID string, fn func(marker SessionMarker, open bool)) {
	m.markers.Compute(meetingID, func(old SessionMarker, loaded bool) (SessionMarker, bool) {
		fn(old, loaded)
		return SessionMarker{}, true
	})
}

// DurationSeconds returns whole seconds between start and end, never negative.
// A zero start yields 0.
func DurationSeconds(start, end time.Time) int {
	if start.IsZero() || end.Before(start) {
		return 0
	}
	return int(end.Sub(start) / time.Second)
}
