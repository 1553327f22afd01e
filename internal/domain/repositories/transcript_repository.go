package repositories

import (
	"context"
	"time"

	"github.com/zainab674/project-plus-sub002/internal/domain/entities"
)

// PersistenceGateway is the durable store the session engine writes to when a
// session ends. Each transcript is an independent record; no transaction spans
// several participants.
type PersistenceGateway interface {
	// WriteTranscript stores one participant's finalized transcript
	WriteTranscript(ctx context.Context, meetingID, participantIdentity, text string, startTime, endTime time.Time) error

	// UpdateMeetingCompletion marks a non-terminal meeting as completed.
	// Meetings that are already terminal are left untouched.
	UpdateMeetingCompletion(ctx context.Context, meetingID string, endTime time.Time, durationSeconds int) error
}

// TranscriptRepository defines read access to stored transcripts
type TranscriptRepository interface {
	// ListByMeeting retrieves transcripts of a meeting ordered by creation time
	ListByMeeting(ctx context.Context, meetingID string) ([]*entities.MeetingTranscript, error)
}
