package entities

import (
	"time"

	"github.com/google/uuid"
)

// FragmentType distinguishes provisional from committed speech
type FragmentType string

const (
	FragmentInterim FragmentType = "interim"
	FragmentFinal   FragmentType = "final"
)

// Valid reports whether t is a known fragment type
func (t FragmentType) Valid() bool {
	return t == FragmentInterim || t == FragmentFinal
}

// TranscriptFragment is one unit of speech delivered by the transcription agent.
// It only lives in memory while a session is open.
type TranscriptFragment struct {
	Type                FragmentType `json:"type"`
	ParticipantIdentity string       `json:"participant"`
	Text                string       `json:"text"`
	SegmentID           string       `json:"segment_id,omitempty"`
	TrackSID            string       `json:"track_sid,omitempty"`
	Timestamp           time.Time    `json:"timestamp"`
	Seq                 uint64       `json:"seq"`
}

// IsFinal reports whether the fragment is committed text
func (f TranscriptFragment) IsFinal() bool {
	return f.Type == FragmentFinal
}

// FinalizedTranscript is the aggregated text of one participant for one session
type FinalizedTranscript struct {
	ParticipantIdentity string    `json:"participant"`
	Text                string    `json:"text"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	SegmentCount        int       `json:"segment_count"`
	SegmentIDs          []string  `json:"segment_ids,omitempty"`
}

// MeetingTranscript is the stored transcript row for one participant
type MeetingTranscript struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"meeting_transcription_id"`
	MeetingID             string     `gorm:"type:varchar(64);not null;index" json:"meeting_id"`
	ParticipantIdentity   string     `gorm:"type:varchar(255);not null" json:"participant"`
	Transcribe            string     `gorm:"type:text;not null" json:"transcribe"`
	IsSystemTranscription bool       `gorm:"default:false" json:"is_system_transcription"`
	StartTime             *time.Time `json:"start_time,omitempty"`
	EndTime               *time.Time `json:"end_time,omitempty"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for MeetingTranscript
func (MeetingTranscript) TableName() string {
	return "meeting_transcriptions"
}

// NewMeetingTranscript creates a system transcript row
func NewMeetingTranscript(meetingID, participant, text string, start, end time.Time) *MeetingTranscript {
	return &MeetingTranscript{
		ID:                    uuid.New(),
		MeetingID:             meetingID,
		ParticipantIdentity:   participant,
		Transcribe:            text,
		IsSystemTranscription: true,
		StartTime:             &start,
		EndTime:               &end,
		CreatedAt:             time.Now(),
	}
}
