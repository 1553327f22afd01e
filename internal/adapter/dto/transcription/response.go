package transcription

import "time"

// IngestResponse acknowledges one fragment
type IngestResponse struct {
	Success     bool   `json:"success"`
	Accepted    bool   `json:"accepted"`
	MeetingID   string `json:"meeting_id"`
	Type        string `json:"type"`
	Participant string `json:"participant"`
	Seq         uint64 `json:"seq,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// StartResponse reports an opened session
type StartResponse struct {
	MeetingID        string    `json:"meeting_id"`
	StartedAt        time.Time `json:"started_at"`
	Restarted        bool      `json:"restarted"`
	DiscardedSeconds int       `json:"discarded_seconds,omitempty"`
}

// StatsResponse is the live or final view of a session
type StatsResponse struct {
	MeetingID             string     `json:"meeting_id"`
	TranscriptionCount    int        `json:"transcription_count"`
	ParticipantCount      int        `json:"participant_count"`
	FinalTranscriptions   int        `json:"final_transcriptions"`
	InterimTranscriptions int        `json:"interim_transcriptions"`
	DurationSeconds       int        `json:"duration_seconds"`
	StartTime             *time.Time `json:"start_time,omitempty"`
	EndTime               *time.Time `json:"end_time,omitempty"`
	Active                bool       `json:"active"`
}

// TranscriptResponse is one finalized participant transcript
type TranscriptResponse struct {
	Participant  string    `json:"participant"`
	Text         string    `json:"text"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	SegmentCount int       `json:"segment_count,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// EndResponse reports the outcome of ending a session
type EndResponse struct {
	MeetingID       string               `json:"meeting_id"`
	Statistics      StatsResponse        `json:"statistics"`
	Saved           int                  `json:"saved"`
	Failed          []TranscriptResponse `json:"failed,omitempty"`
	Completed       bool                 `json:"completed"`
	CompletionError string               `json:"completion_error,omitempty"`
	Noop            bool                 `json:"noop,omitempty"`
}

// RetryResponse reports the transcripts that failed again
type RetryResponse struct {
	MeetingID string               `json:"meeting_id"`
	Saved     int                  `json:"saved"`
	Failed    []TranscriptResponse `json:"failed,omitempty"`
}

// SummaryResponse is the cached summary of the last completed session
type SummaryResponse struct {
	MeetingID          string     `json:"meeting_id"`
	TranscriptionCount int        `json:"transcription_count"`
	ParticipantCount   int        `json:"participant_count"`
	TranscriptCount    int        `json:"transcript_count"`
	DurationSeconds    int        `json:"duration_seconds"`
	StartTime          *time.Time `json:"start_time,omitempty"`
	EndTime            time.Time  `json:"end_time"`
	FailedParticipants []string   `json:"failed_participants,omitempty"`
	CompletedBy        string     `json:"completed_by,omitempty"`
}

// StoredTranscriptResponse is one persisted transcript row
type StoredTranscriptResponse struct {
	ID                    string     `json:"meeting_transcription_id"`
	MeetingID             string     `json:"meeting_id"`
	Participant           string     `json:"participant"`
	Transcribe            string     `json:"transcribe"`
	IsSystemTranscription bool       `json:"is_system_transcription"`
	StartTime             *time.Time `json:"start_time,omitempty"`
	EndTime               *time.Time `json:"end_time,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}
