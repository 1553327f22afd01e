package entities

import (
	"errors"
	"testing"
	"time"
)

func TestNewMeeting_InitialStatus(t *testing.T) {
	if got := NewMeeting("h", "d", "u1", true).Status; got != MeetingStatusPending {
		t.Fatalf("scheduled meeting: expected PENDING got %s", got)
	}
	if got := NewMeeting("h", "d", "u1", false).Status; got != MeetingStatusProcessing {
		t.Fatalf("instant meeting: expected PROCESSING got %s", got)
	}
}

func TestMeetingConfirm(t *testing.T) {
	cases := []struct {
		name   string
		from   MeetingStatus
		accept bool
		want   MeetingStatus
		err    bool
	}{
		{"pending accept", MeetingStatusPending, true, MeetingStatusScheduled, false},
		{"pending reject", MeetingStatusPending, false, MeetingStatusCanceled, false},
		{"processing accept", MeetingStatusProcessing, true, MeetingStatusScheduled, false},
		{"processing reject", MeetingStatusProcessing, false, MeetingStatusCanceled, false},
		{"scheduled", MeetingStatusScheduled, true, MeetingStatusScheduled, true},
		{"canceled", MeetingStatusCanceled, true, MeetingStatusCanceled, true},
		{"completed", MeetingStatusCompleted, false, MeetingStatusCompleted, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &Meeting{Status: tc.from}
			err := m.Confirm(tc.accept)
			if tc.err {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("expected ErrInvalidTransition got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Status != tc.want {
				t.Fatalf("expected %s got %s", tc.want, m.Status)
			}
		})
	}
}

func TestMeetingComplete(t *testing.T) {
	m := NewMeeting("h", "d", "u1", true)
	end := time.Now()
	if err := m.Complete(end, -5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Status != MeetingStatusCompleted {
		t.Fatalf("expected COMPLETED got %s", m.Status)
	}
	if m.Duration == nil || *m.Duration != 0 {
		t.Fatalf("negative duration must clamp to 0, got %v", m.Duration)
	}

	// duration is only set once
	if err := m.Complete(end.Add(time.Minute), 60); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition got %v", err)
	}
	if *m.Duration != 0 {
		t.Fatalf("duration changed after completion: %d", *m.Duration)
	}
}

func TestMeetingMarkStarted_Terminal(t *testing.T) {
	m := &Meeting{Status: MeetingStatusCanceled}
	if err := m.MarkStarted(time.Now()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition got %v", err)
	}
}
