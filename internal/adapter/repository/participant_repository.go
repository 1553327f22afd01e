package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/zainab674/project-plus-sub002/internal/domain/entities"
	"github.com/zainab674/project-plus-sub002/internal/domain/repositories"
)

// participantRepository implements the ParticipantRepository interface
type participantRepository struct {
	db *gorm.DB
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *gorm.DB) repositories.ParticipantRepository {
	return &participantRepository{db: db}
}

// FindByMeetingAndUser retrieves a participant by meeting and user ID
func (r *participantRepository) FindByMeetingAndUser(ctx context.Context, meetingID, userID string) (*entities.MeetingParticipant, error) {
	var participant entities.MeetingParticipant
	err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND user_id = ?", meetingID, userID).
		First(&participant).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrParticipantNotFound
		}
		return nil, err
	}
	return &participant, nil
}

// UpdateVote records the participant's vote
func (r *participantRepository) UpdateVote(ctx context.Context, id string, vote entities.Vote) error {
	result := r.db.WithContext(ctx).
		Model(&entities.MeetingParticipant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"vote":       vote,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return entities.ErrParticipantNotFound
	}
	return nil
}

// ListByMeeting retrieves all participants of a meeting
func (r *participantRepository) ListByMeeting(ctx context.Context, meetingID string) ([]*entities.MeetingParticipant, error) {
	var participants []*entities.MeetingParticipant
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at ASC").
		Find(&participants).Error
	return participants, err
}
