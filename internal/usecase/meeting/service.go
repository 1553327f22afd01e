package meeting

import (
	"context"

	"github.com/zainab674/project-plus-sub002/internal/domain/entities"
	"github.com/zainab674/project-plus-sub002/internal/infrastructure/external/livekit"
	"github.com/zainab674/project-plus-sub002/internal/usecase/dispatch"
)

// Service defines the interface for meeting use case
type Service interface {
	// CreateMeeting creates a meeting and a pending vote per participant
	CreateMeeting(ctx context.Context, input CreateMeetingInput) (*entities.Meeting, error)

	// GetMeeting retrieves a meeting by ID
	GetMeeting(ctx context.Context, meetingID string) (*entities.Meeting, error)

	// ListMeetings retrieves meetings created by or involving the user
	ListMeetings(ctx context.Context, userID string, isScheduled *bool) ([]*entities.Meeting, error)

	// Vote records a participant's answer; meeting status is not affected
	Vote(ctx context.Context, meetingID, userID string, accept bool) (*entities.MeetingParticipant, error)

	// Join issues a LiveKit token for the meeting room and dispatches the
	// transcription agent. Dispatch failures are reported as warnings.
	Join(ctx context.Context, input JoinInput) (*JoinOutput, error)

	// DispatchAgent explicitly dispatches the transcription agent
	DispatchAgent(ctx context.Context, meetingID, userID string) (*dispatch.EnsureResult, error)

	// DispatchStatus lists the dispatches of the meeting room
	DispatchStatus(ctx context.Context, meetingID, userID string) (*DispatchStatus, error)

	// ListTranscripts retrieves the persisted transcripts of a meeting
	ListTranscripts(ctx context.Context, meetingID string) ([]*entities.MeetingTranscript, error)
}

// Ensure MeetingService implements Service interface
var _ Service = (*MeetingService)(nil)

// CreateMeetingInput represents input for creating a meeting
type CreateMeetingInput struct {
	Heading        string
	Description    string
	CreatorID      string
	TaskID         *int64
	ProjectID      *int64
	IsScheduled    bool
	Date           *string
	Time           *string
	ParticipantIDs []string
}

// JoinInput represents input for joining a meeting room
type JoinInput struct {
	MeetingID   string
	UserID      string
	DisplayName string
}

// JoinOutput carries everything a client needs to enter the room
type JoinOutput struct {
	Token     string
	RoomName  string
	ServerURL string
	Meeting   *entities.Meeting
	Dispatch  *dispatch.EnsureResult
	Warnings  []string
}

// DispatchStatus describes the agents dispatched to a meeting room
type DispatchStatus struct {
	RoomName     string
	AgentName    string
	Dispatches   []*livekit.DispatchInfo
	IsDispatched bool
	// AgentConnected is set once an agent participant is in the room
	AgentConnected bool
}
