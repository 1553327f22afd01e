package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/zainab674/project-plus-sub002/internal/domain/entities"
	"github.com/zainab674/project-plus-sub002/internal/domain/repositories"
)

var terminalStatuses = []entities.MeetingStatus{
	entities.MeetingStatusCompleted,
	entities.MeetingStatusCanceled,
}

// meetingRepository implements the MeetingRepository interface
type meetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) repositories.MeetingRepository {
	return &meetingRepository{db: db}
}

// Create creates a meeting; participants are inserted with it
func (r *meetingRepository) Create(ctx context.Context, meeting *entities.Meeting) error {
	return r.db.WithContext(ctx).Create(meeting).Error
}

// FindByID retrieves a meeting by its ID
func (r *meetingRepository) FindByID(ctx context.Context, id string) (*entities.Meeting, error) {
	var meeting entities.Meeting
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("id = ?", id).
		First(&meeting).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrMeetingNotFound
		}
		return nil, err
	}
	return &meeting, nil
}

// ListForUser retrieves meetings created by or involving the user
func (r *meetingRepository) ListForUser(ctx context.Context, userID string, isScheduled *bool) ([]*entities.Meeting, error) {
	var meetings []*entities.Meeting

	invited := r.db.Model(&entities.MeetingParticipant{}).
		Select("meeting_id").
		Where("user_id = ?", userID)

	query := r.db.WithContext(ctx).
		Preload("Participants").
		Where(r.db.Where("user_id = ?", userID).Or("id IN (?)", invited))

	if isScheduled != nil {
		query = query.Where("is_scheduled = ?", *isScheduled)
	}

	err := query.Order("created_at DESC").Find(&meetings).Error
	return meetings, err
}

// TransitionStatus moves a meeting between statuses with a compare-and-set
func (r *meetingRepository) TransitionStatus(ctx context.Context, id string, from []entities.MeetingStatus, to entities.MeetingStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkStarted sets the start time of a non-terminal meeting
func (r *meetingRepository) MarkStarted(ctx context.Context, id string, startTime time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND status NOT IN ?", id, terminalStatuses).
		Updates(map[string]interface{}{
			"start_time": startTime,
			"updated_at": time.Now(),
		}).Error
}
