package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/zainab674/project-plus-sub002/internal/domain/entities"
	"github.com/zainab674/project-plus-sub002/internal/domain/repositories"
)

// transcriptRepository implements TranscriptRepository and PersistenceGateway
type transcriptRepository struct {
	db *gorm.DB
}

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(db *gorm.DB) repositories.TranscriptRepository {
	return &transcriptRepository{db: db}
}

// NewPersistenceGateway creates the store the session engine finalizes into
func NewPersistenceGateway(db *gorm.DB) repositories.PersistenceGateway {
	return &transcriptRepository{db: db}
}

// ListByMeeting retrieves transcripts of a meeting
func (r *transcriptRepository) ListByMeeting(ctx context.Context, meetingID string) ([]*entities.MeetingTranscript, error) {
	var transcripts []*entities.MeetingTranscript
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at ASC").
		Find(&transcripts).Error
	return transcripts, err
}

// WriteTranscript stores one participant's finalized transcript
func (r *transcriptRepository) WriteTranscript(ctx context.Context, meetingID, participantIdentity, text string, startTime, endTime time.Time) error {
	row := entities.NewMeetingTranscript(meetingID, participantIdentity, FormatTranscript(participantIdentity, text), startTime, endTime)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to write transcript for %s: %w", participantIdentity, err)
	}
	return nil
}

// UpdateMeetingCompletion marks a non-terminal meeting as completed
func (r *transcriptRepository) UpdateMeetingCompletion(ctx context.Context, meetingID string, endTime time.Time, durationSeconds int) error {
	if durationSeconds < 0 {
		durationSeconds = 0
	}

	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND status NOT IN ?", meetingID, terminalStatuses).
		Updates(map[string]interface{}{
			"status":     entities.MeetingStatusCompleted,
			"end_time":   endTime,
			"duration":   durationSeconds,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to complete meeting: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// nothing updated: either already terminal or unknown
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.Meeting{}).Where("id = ?", meetingID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check meeting: %w", err)
	}
	if count == 0 {
		return entities.ErrMeetingNotFound
	}
	return nil
}

// FormatTranscript renders the stored text of a participant transcript
func FormatTranscript(participantIdentity, text string) string {
	return fmt.Sprintf("[%s]: %s", participantIdentity, text)
}
