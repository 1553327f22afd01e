package session

import (
	"context"

	"github.com/zainab674/project-plus-sub002/internal/domain/entities"
)

// Service defines the interface for the live session use case
type Service interface {
	StartSession(ctx context.Context, meetingID string) (*StartResult, error)
	Ingest(meetingID string, fragment entities.TranscriptFragment) IngestResult
	EndSession(ctx context.Context, meetingID, actorID string) (*EndResult, error)
	RetryPersistence(ctx context.Context, meetingID string, transcripts []entities.FinalizedTranscript) ([]FailedTranscript, error)
	GetStats(meetingID string) Stats
	LastSummary(ctx context.Context, meetingID string) (*entities.SessionSummary, error)
	Confirm(ctx context.Context, meetingID, actorID string, accept bool) (*entities.Meeting, error)
	ActiveSessions() (buffers, markers int)
}

var _ Service = (*Lifecycle)(nil)
