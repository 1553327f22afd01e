package transcription

import "time"

// IngestRequest is the payload posted by the transcription agent. Field
// checks happen in the session engine, which acknowledges bad fragments.
type IngestRequest struct {
	MeetingID         string            `json:"meeting_id"`
	TranscriptionData TranscriptionData `json:"transcription_data"`
}

// TranscriptionData is one fragment as sent by the agent
type TranscriptionData struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	Participant string `json:"participant"`
	TrackSID    string `json:"trackSid,omitempty"`
	SegmentID   string `json:"segmentId,omitempty"`
}

// RetryRequest carries the transcripts returned as failed by an earlier end call
type RetryRequest struct {
	Transcripts []RetryTranscript `json:"transcripts" validate:"required,min=1,dive"`
}

// RetryTranscript is one participant transcript to persist again
type RetryTranscript struct {
	Participant string    `json:"participant" validate:"required"`
	Text        string    `json:"text" validate:"required"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
}
