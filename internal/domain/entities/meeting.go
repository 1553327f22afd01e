package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MeetingStatus represents the lifecycle status of a meeting
type MeetingStatus string

const (
	MeetingStatusPending    MeetingStatus = "PENDING"
	MeetingStatusProcessing MeetingStatus = "PROCESSING"
	MeetingStatusScheduled  MeetingStatus = "SCHEDULED"
	MeetingStatusCanceled   MeetingStatus = "CANCELED"
	MeetingStatusCompleted  MeetingStatus = "COMPLETED"
)

// IsTerminal reports whether no further transitions are allowed from the status
func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingStatusCanceled || s == MeetingStatusCompleted
}

// Meeting represents a meeting attached to a project task
type Meeting struct {
	ID          string            `gorm:"type:varchar(64);primary_key" json:"meeting_id"`
	Heading     string            `gorm:"type:varchar(255);not null" json:"heading"`
	Description string            `gorm:"type:text" json:"description"`
	UserID      string            `gorm:"type:varchar(64);not null;index" json:"user_id"`
	TaskID      *int64            `gorm:"index" json:"task_id,omitempty"`
	ProjectID   *int64            `gorm:"index" json:"project_id,omitempty"`
	IsScheduled bool              `gorm:"column:is_scheduled;default:false" json:"is_scheduled"`
	Date        *string           `gorm:"type:varchar(32)" json:"date,omitempty"`
	Time        *string           `gorm:"type:varchar(32)" json:"time,omitempty"`
	Status      MeetingStatus     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	StartTime   *time.Time        `json:"start_time,omitempty"`
	EndTime     *time.Time        `json:"end_time,omitempty"`
	Duration    *int              `json:"duration,omitempty"` // seconds
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;default:'{}'" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"default:now()" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"default:now()" json:"updated_at"`

	Participants []*MeetingParticipant `gorm:"foreignKey:MeetingID" json:"participants,omitempty"`
}

// TableName specifies the table name for Meeting
func (Meeting) TableName() string {
	return "meetings"
}

// NewMeeting creates a meeting in its initial status.
// Scheduled meetings wait for votes, instant meetings go live immediately.
func NewMeeting(heading, description, creatorID string, isScheduled bool) *Meeting {
	status := MeetingStatusProcessing
	if isScheduled {
		status = MeetingStatusPending
	}
	now := time.Now()
	return &Meeting{
		ID:          uuid.NewString(),
		Heading:     heading,
		Description: description,
		UserID:      creatorID,
		IsScheduled: isScheduled,
		Status:      status,
		Metadata:    datatypes.JSONMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsTerminal checks if the meeting is canceled or completed
func (m *Meeting) IsTerminal() bool {
	return m.Status.IsTerminal()
}

// IsMember reports whether the user created the meeting or was invited to it
func (m *Meeting) IsMember(userID string) bool {
	if userID == "" {
		return false
	}
	if m.UserID == userID {
		return true
	}
	for _, p := range m.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// Confirm applies the creator's confirmation decision
func (m *Meeting) Confirm(accept bool) error {
	if m.Status != MeetingStatusPending && m.Status != MeetingStatusProcessing {
		return fmt.Errorf("%w: cannot confirm meeting in status %s", ErrInvalidTransition, m.Status)
	}
	if accept {
		m.Status = MeetingStatusScheduled
	} else {
		m.Status = MeetingStatusCanceled
	}
	m.UpdatedAt = time.Now()
	return nil
}

// MarkStarted records the live session start time
func (m *Meeting) MarkStarted(at time.Time) error {
	if m.IsTerminal() {
		return fmt.Errorf("%w: cannot start session for meeting in status %s", ErrInvalidTransition, m.Status)
	}
	m.StartTime = &at
	return nil
}

// Complete marks the meeting as completed. Duration is only ever set here.
func (m *Meeting) Complete(endTime time.Time, durationSeconds int) error {
	if m.IsTerminal() {
		return fmt.Errorf("%w: meeting already %s", ErrInvalidTransition, m.Status)
	}
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	m.Status = MeetingStatusCompleted
	m.EndTime = &endTime
	m.Duration = &durationSeconds
	m.UpdatedAt = time.Now()
	return nil
}
