package entities

import "time"

// SessionSummary describes a finished live session of a meeting
type SessionSummary struct {
	MeetingID          string     `json:"meeting_id"`
	SegmentCount       int        `json:"segment_count"`
	ParticipantCount   int        `json:"participant_count"`
	FinalSegments      int        `json:"final_segments"`
	InterimSegments    int        `json:"interim_segments"`
	DurationSeconds    int        `json:"duration_seconds"`
	StartTime          *time.Time `json:"start_time,omitempty"`
	EndTime            time.Time  `json:"end_time"`
	TranscriptCount    int        `json:"transcript_count"`
	FailedParticipants []string   `json:"failed_participants,omitempty"`
	CompletedBy        string     `json:"completed_by,omitempty"`
	// FailedTranscripts are the exact transcripts a retry may write
	FailedTranscripts []FinalizedTranscript `json:"failed_transcripts,omitempty"`
}

// TranscriptArchive is the document exported to object storage when a session ends
type TranscriptArchive struct {
	Summary     SessionSummary        `json:"summary"`
	Transcripts []FinalizedTranscript `json:"transcripts"`
	ArchivedAt  time.Time             `json:"archived_at"`
}

// MeetingEventType names a meeting event published to subscribers
type MeetingEventType string

const (
	MeetingEventStatusChanged    MeetingEventType = "meeting.status_changed"
	MeetingEventSessionStarted   MeetingEventType = "session.started"
	MeetingEventSessionCompleted MeetingEventType = "session.completed"
)

// MeetingEvent is published to notify participants of meeting changes
type MeetingEvent struct {
	Type       MeetingEventType `json:"type"`
	MeetingID  string           `json:"meeting_id"`
	Status     MeetingStatus    `json:"status,omitempty"`
	ActorID    string           `json:"actor_id,omitempty"`
	Recipients []string         `json:"recipients,omitempty"`
	Summary    *SessionSummary  `json:"summary,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}
