package presenter

import (
	"github.com/zainab674/project-plus-sub002/internal/adapter/dto/meeting"
	"github.com/zainab674/project-plus-sub002/internal/domain/entities"
	"github.com/zainab674/project-plus-sub002/internal/infrastructure/external/livekit"
	"github.com/zainab674/project-plus-sub002/internal/usecase/dispatch"
	meetingUsecase "github.com/zainab674/project-plus-sub002/internal/usecase/meeting"
)

// ToMeetingResponse converts a Meeting entity to MeetingResponse DTO
func ToMeetingResponse(m *entities.Meeting) *meeting.MeetingResponse {
	if m == nil {
		return nil
	}

	response := &meeting.MeetingResponse{
		ID:          m.ID,
		Heading:     m.Heading,
		Description: m.Description,
		CreatorID:   m.UserID,
		TaskID:      m.TaskID,
		ProjectID:   m.ProjectID,
		IsScheduled: m.IsScheduled,
		Date:        m.Date,
		Time:        m.Time,
		Status:      string(m.Status),
		StartTime:   m.StartTime,
		EndTime:     m.EndTime,
		Duration:    m.Duration,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}

	for _, p := range m.Participants {
		response.Participants = append(response.Participants, ToParticipantResponse(p))
	}

	return response
}

// ToMeetingListResponse converts a list of meetings
func ToMeetingListResponse(meetings []*entities.Meeting) []*meeting.MeetingResponse {
	out := make([]*meeting.MeetingResponse, 0, len(meetings))
	for _, m := range meetings {
		out = append(out, ToMeetingResponse(m))
	}
	return out
}

// ToParticipantResponse converts a MeetingParticipant entity
func ToParticipantResponse(p *entities.MeetingParticipant) *meeting.ParticipantResponse {
	if p == nil {
		return nil
	}
	return &meeting.ParticipantResponse{
		ID:     p.ID.String(),
		UserID: p.UserID,
		Vote:   string(p.Vote),
	}
}

// ToJoinResponse converts the join output
func ToJoinResponse(out *meetingUsecase.JoinOutput) *meeting.JoinResponse {
	return &meeting.JoinResponse{
		Token:     out.Token,
		RoomName:  out.RoomName,
		ServerURL: out.ServerURL,
		Meeting:   ToMeetingResponse(out.Meeting),
		Dispatch:  ToEnsureResponse(out.Dispatch),
		Warnings:  out.Warnings,
	}
}

// ToEnsureResponse converts a dispatch ensure result
func ToEnsureResponse(r *dispatch.EnsureResult) *meeting.DispatchInfo {
	if r == nil || r.Dispatch == nil {
		return nil
	}
	info := toDispatchInfo(r.Dispatch)
	info.Created = r.Created
	return info
}

// ToDispatchStatusResponse converts the dispatch status of a room
func ToDispatchStatusResponse(s *meetingUsecase.DispatchStatus) *meeting.DispatchStatusResponse {
	response := &meeting.DispatchStatusResponse{
		RoomName:       s.RoomName,
		AgentName:      s.AgentName,
		IsDispatched:   s.IsDispatched,
		AgentConnected: s.AgentConnected,
		Dispatches:     make([]*meeting.DispatchInfo, 0, len(s.Dispatches)),
	}
	for _, d := range s.Dispatches {
		response.Dispatches = append(response.Dispatches, toDispatchInfo(d))
	}
	return response
}

func toDispatchInfo(d *livekit.DispatchInfo) *meeting.DispatchInfo {
	return &meeting.DispatchInfo{
		ID:        d.ID,
		AgentName: d.AgentName,
		Room:      d.Room,
	}
}
