package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/zainab674/project-plus-sub002/errors"
	"github.com/zainab674/project-plus-sub002/internal/adapter/dto/meeting"
	"github.com/zainab674/project-plus-sub002/internal/adapter/presenter"
	meetingUsecase "github.com/zainab674/project-plus-sub002/internal/usecase/meeting"
	"github.com/zainab674/project-plus-sub002/internal/usecase/session"
)

// Meeting handles meeting-related HTTP requests
type Meeting struct {
	meetings meetingUsecase.Service
	sessions session.Service
	logger   *zap.Logger
}

// NewMeetingHandler creates a new meeting handler
func NewMeetingHandler(meetings meetingUsecase.Service, sessions session.Service, logger *zap.Logger) *Meeting {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Meeting{
		meetings: meetings,
		sessions: sessions,
		logger:   logger,
	}
}

// CreateMeeting handles POST /meetings
func (h *Meeting) CreateMeeting(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req meeting.CreateMeetingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	created, err := h.meetings.CreateMeeting(c.Request().Context(), meetingUsecase.CreateMeetingInput{
		Heading:        req.Heading,
		Description:    req.Description,
		CreatorID:      userID,
		TaskID:         req.TaskID,
		ProjectID:      req.ProjectID,
		IsScheduled:    req.IsScheduled,
		Date:           req.Date,
		Time:           req.Time,
		ParticipantIDs: req.ParticipantIDs,
	})
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, ""))
	}

	return HandleStatus(h.logger, c, http.StatusCreated, presenter.ToMeetingResponse(created))
}

// GetMeeting handles GET /meetings/:meeting_id
func (h *Meeting) GetMeeting(c echo.Context) error {
	meetingID := c.Param("meeting_id")
	userID, err := actorID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	m, err := h.meetings.GetMeeting(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, meetingID))
	}
	if !m.IsMember(userID) {
		return HandleError(h.logger, c, errors.ErrMeetingAccessDenied(meetingID))
	}

	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(m))
}

// ListMeetings handles GET /meetings
func (h *Meeting) ListMeetings(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var isScheduled *bool
	if raw := c.QueryParam("is_scheduled"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return HandleError(h.logger, c, errors.ErrInvalidArgument("is_scheduled must be a boolean"))
		}
		isScheduled = &v
	}

	meetings, err := h.meetings.ListMeetings(c.Request().Context(), userID, isScheduled)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, ""))
	}

	return HandleSuccess(h.logger, c, presenter.ToMeetingListResponse(meetings))
}

// Vote handles GET|POST /meetings/:meeting_id/vote?user_id=&vote=1|0
func (h *Meeting) Vote(c echo.Context) error {
	meetingID := c.Param("meeting_id")

	var req meeting.VoteRequest
	if err := bindQueryAndBody(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	if req.UserID == "" {
		req.UserID = c.Request().Header.Get(HeaderUserID)
	}

	participant, err := h.meetings.Vote(c.Request().Context(), meetingID, req.UserID, req.Vote == "1")
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, meetingID))
	}

	return HandleSuccess(h.logger, c, presenter.ToParticipantResponse(participant))
}

// Confirm handles GET|POST /meetings/:meeting_id/confirm?vote=1|0. Only the
// meeting creator may confirm.
func (h *Meeting) Confirm(c echo.Context) error {
	meetingID := c.Param("meeting_id")
	userID, err := actorID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req meeting.ConfirmRequest
	if err := bindQueryAndBody(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	m, err := h.meetings.GetMeeting(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, meetingID))
	}
	if m.UserID != userID {
		return HandleError(h.logger, c, errors.ErrPermissionDenied("only the meeting creator can confirm").WithDetail("meeting_id", meetingID))
	}

	confirmed, err := h.sessions.Confirm(c.Request().Context(), meetingID, userID, req.Vote == "1")
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, meetingID))
	}

	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(confirmed))
}

// Join handles POST /meetings/:meeting_id/token
func (h *Meeting) Join(c echo.Context) error {
	meetingID := c.Param("meeting_id")
	userID, err := actorID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req meeting.JoinRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	out, err := h.meetings.Join(c.Request().Context(), meetingUsecase.JoinInput{
		MeetingID:   meetingID,
		UserID:      userID,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, meetingID))
	}

	return HandleSuccess(h.logger, c, presenter.ToJoinResponse(out))
}

// DispatchAgent handles POST /meetings/:meeting_id/dispatch
func (h *Meeting) DispatchAgent(c echo.Context) error {
	meetingID := c.Param("meeting_id")
	userID, err := actorID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.meetings.DispatchAgent(c.Request().Context(), meetingID, userID)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, meetingID))
	}

	return HandleSuccess(h.logger, c, presenter.ToEnsureResponse(result))
}

// DispatchStatus handles GET /meetings/:meeting_id/dispatch
func (h *Meeting) DispatchStatus(c echo.Context) error {
	meetingID := c.Param("meeting_id")
	userID, err := actorID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	status, err := h.meetings.DispatchStatus(c.Request().Context(), meetingID, userID)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, meetingID))
	}

	return HandleSuccess(h.logger, c, presenter.ToDispatchStatusResponse(status))
}
