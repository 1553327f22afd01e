package meeting

// CreateMeetingRequest represents the request to create a meeting
type CreateMeetingRequest struct {
	Heading        string   `json:"heading" validate:"required,min=1,max=255"`
	Description    string   `json:"description,omitempty" validate:"max=5000"`
	TaskID         *int64   `json:"task_id,omitempty"`
	ProjectID      *int64   `json:"project_id,omitempty"`
	IsScheduled    bool     `json:"isScheduled"`
	Date           *string  `json:"date,omitempty"`
	Time           *string  `json:"time,omitempty"`
	ParticipantIDs []string `json:"participants,omitempty" validate:"omitempty,max=100,dive,required"`
}

// VoteRequest carries the invitation answer from the query string or body
type VoteRequest struct {
	UserID string `query:"user_id" json:"user_id"`
	Vote   string `query:"vote" json:"vote" validate:"required,oneof=0 1"`
}

// ConfirmRequest carries the creator decision
type ConfirmRequest struct {
	Vote string `query:"vote" json:"vote" validate:"required,oneof=0 1"`
}

// JoinRequest represents the request for a room token
type JoinRequest struct {
	DisplayName string `json:"display_name,omitempty" validate:"max=255"`
}
