package entities

import (
	"time"

	"github.com/google/uuid"
)

// Vote represents a participant's answer to a meeting invitation
type Vote string

const (
	VotePending  Vote = "PENDING"
	VoteAccepted Vote = "ACCEPTED"
	VoteRejected Vote = "REJECTED"
)

// MeetingParticipant is one invited user of a meeting
type MeetingParticipant struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"meeting_participant_id"`
	MeetingID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_meeting_participant" json:"meeting_id"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_meeting_participant" json:"user_id"`
	Vote      Vote      `gorm:"type:varchar(20);not null;default:'PENDING'" json:"vote"`
	CreatedAt time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for MeetingParticipant
func (MeetingParticipant) TableName() string {
	return "meeting_participants"
}

// NewMeetingParticipant creates a participant with a pending vote
func NewMeetingParticipant(meetingID, userID string) *MeetingParticipant {
	now := time.Now()
	return &MeetingParticipant{
		ID:        uuid.New(),
		MeetingID: meetingID,
		UserID:    userID,
		Vote:      VotePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// VoteFromFlag maps the invitation link flag to a vote
func VoteFromFlag(accepted bool) Vote {
	if accepted {
		return VoteAccepted
	}
	return VoteRejected
}
