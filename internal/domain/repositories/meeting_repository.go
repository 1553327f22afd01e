package repositories

import (
	"context"
	"time"

	"github.com/zainab674/project-plus-sub002/internal/domain/entities"
)

// MeetingRepository defines the interface for meeting data access
type MeetingRepository interface {
	// Create creates a meeting together with its participants
	Create(ctx context.Context, meeting *entities.Meeting) error

	// FindByID retrieves a meeting by its ID, participants included.
	// Returns entities.ErrMeetingNotFound when no row exists.
	FindByID(ctx context.Context, id string) (*entities.Meeting, error)

	// ListForUser retrieves meetings created by or involving the user, newest
	// first. A nil isScheduled disables that filter.
	ListForUser(ctx context.Context, userID string, isScheduled *bool) ([]*entities.Meeting, error)

	// TransitionStatus sets status to `to` only while the current status is one
	// of `from`. Returns false when no row matched.
	TransitionStatus(ctx context.Context, id string, from []entities.MeetingStatus, to entities.MeetingStatus) (bool, error)

	// MarkStarted sets start_time for a meeting that is not terminal
	MarkStarted(ctx context.Context, id string, startTime time.Time) error
}

// ParticipantRepository defines the interface for meeting participant votes
type ParticipantRepository interface {
	// FindByMeetingAndUser retrieves one participant.
	// Returns entities.ErrParticipantNotFound when no row exists.
	FindByMeetingAndUser(ctx context.Context, meetingID, userID string) (*entities.MeetingParticipant, error)

	// UpdateVote records the participant's vote
	UpdateVote(ctx context.Context, id string, vote entities.Vote) error

	// ListByMeeting retrieves all participants of a meeting
	ListByMeeting(ctx context.Context, meetingID string) ([]*entities.MeetingParticipant, error)
}
