package meeting

import "time"

// MeetingResponse represents a meeting in responses
type MeetingResponse struct {
	ID           string                 `json:"meeting_id"`
	Heading      string                 `json:"heading"`
	Description  string                 `json:"description,omitempty"`
	CreatorID    string                 `json:"user_id"`
	TaskID       *int64                 `json:"task_id,omitempty"`
	ProjectID    *int64                 `json:"project_id,omitempty"`
	IsScheduled  bool                   `json:"isScheduled"`
	Date         *string                `json:"date,omitempty"`
	Time         *string                `json:"time,omitempty"`
	Status       string                 `json:"status"`
	StartTime    *time.Time             `json:"start_time,omitempty"`
	EndTime      *time.Time             `json:"end_time,omitempty"`
	Duration     *int                   `json:"duration,omitempty"`
	Participants []*ParticipantResponse `json:"participants,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// ParticipantResponse represents an invited user in responses
type ParticipantResponse struct {
	ID     string `json:"meeting_participant_id"`
	UserID string `json:"user_id"`
	Vote   string `json:"vote"`
}

// JoinResponse carries everything a client needs to enter the room
type JoinResponse struct {
	Token     string           `json:"token"`
	RoomName  string           `json:"room_name"`
	ServerURL string           `json:"server_url"`
	Meeting   *MeetingResponse `json:"meeting"`
	Dispatch  *DispatchInfo    `json:"dispatch,omitempty"`
	Warnings  []string         `json:"warnings,omitempty"`
}

// DispatchInfo describes an agent dispatch
type DispatchInfo struct {
	ID        string `json:"dispatch_id"`
	AgentName string `json:"agent_name"`
	Room      string `json:"room"`
	Created   bool   `json:"created"`
}

// DispatchStatusResponse lists the dispatches of a meeting room
type DispatchStatusResponse struct {
	RoomName       string          `json:"room_name"`
	AgentName      string          `json:"agent_name"`
	IsDispatched   bool            `json:"is_dispatched"`
	AgentConnected bool            `json:"agent_connected"`
	Dispatches     []*DispatchInfo `json:"dispatches"`
}
