package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/zainab674/project-plus-sub002/errors"
	"github.com/zainab674/project-plus-sub002/internal/adapter/dto/transcription"
	"github.com/zainab674/project-plus-sub002/internal/adapter/presenter"
	usecaseErrors "github.com/zainab674/project-plus-sub002/internal/usecase/errors"
	meetingUsecase "github.com/zainab674/project-plus-sub002/internal/usecase/meeting"
	"github.com/zainab674/project-plus-sub002/internal/usecase/session"
)

// Transcription handles live session and transcript HTTP requests
type Transcription struct {
	sessions session.Service
	meetings meetingUsecase.Service
	logger   *zap.Logger
}

// NewTranscriptionHandler creates a new transcription handler
func NewTranscriptionHandler(sessions session.Service, meetings meetingUsecase.Service, logger *zap.Logger) *Transcription {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transcription{
		sessions: sessions,
		meetings: meetings,
		logger:   logger,
	}
}

// Ingest handles POST /transcription/livekit. Malformed fragments are
// acknowledged with accepted=false so the agent does not retry them.
func (h *Transcription) Ingest(c echo.Context) error {
	var req transcription.IngestRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload().WithDetail("bind", err.Error()))
	}

	result := h.sessions.Ingest(req.MeetingID, presenter.ToFragment(req.TranscriptionData))

	return c.JSON(http.StatusOK, &transcription.IngestResponse{
		Success:     true,
		Accepted:    result.Accepted,
		MeetingID:   req.MeetingID,
		Type:        req.TranscriptionData.Type,
		Participant: req.TranscriptionData.Participant,
		Seq:         result.Fragment.Seq,
		Reason:      result.Reason,
	})
}

// Start handles POST /transcription/start/:meeting_id
func (h *Transcription) Start(c echo.Context) error {
	meetingID := c.Param("meeting_id")

	result, err := h.sessions.StartSession(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, meetingID))
	}

	return HandleSuccess(h.logger, c, presenter.ToStartResponse(result))
}

// End handles POST /transcription/end/:meeting_id
func (h *Transcription) End(c echo.Context) error {
	meetingID := c.Param("meeting_id")
	userID, err := h.authorize(c, meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.sessions.EndSession(c.Request().Context(), meetingID, userID)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, meetingID))
	}

	return HandleSuccess(h.logger, c, presenter.ToEndResponse(meetingID, result))
}

// Retry handles POST /transcription/end/:meeting_id/retry
func (h *Transcription) Retry(c echo.Context) error {
	meetingID := c.Param("meeting_id")
	if _, err := h.authorize(c, meetingID); err != nil {
		return HandleError(h.logger, c, err)
	}

	var req transcription.RetryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	failed, err := h.sessions.RetryPersistence(c.Request().Context(), meetingID, presenter.ToFinalizedTranscripts(req))
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, meetingID))
	}

	return HandleSuccess(h.logger, c, &transcription.RetryResponse{
		MeetingID: meetingID,
		Saved:     len(req.Transcripts) - len(failed),
		Failed:    presenter.ToFailedResponses(failed),
	})
}

// Stats handles GET /transcription/stats/:meeting_id
func (h *Transcription) Stats(c echo.Context) error {
	meetingID := c.Param("meeting_id")
	if _, err := h.authorize(c, meetingID); err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToStatsResponse(h.sessions.GetStats(meetingID)))
}

// Summary handles GET /transcription/summary/:meeting_id
func (h *Transcription) Summary(c echo.Context) error {
	meetingID := c.Param("meeting_id")
	if _, err := h.authorize(c, meetingID); err != nil {
		return HandleError(h.logger, c, err)
	}

	summary, err := h.sessions.LastSummary(c.Request().Context(), meetingID)
	if err != nil {
		if stdErrors.Is(err, usecaseErrors.ErrSummaryNotFound) {
			return HandleError(h.logger, c, errors.ErrSummaryNotFound(meetingID))
		}
		return HandleError(h.logger, c, errors.ErrCacheFailed("get session summary", err))
	}

	return HandleSuccess(h.logger, c, presenter.ToSummaryResponse(summary))
}

// ListTranscripts handles GET /transcription/meeting/:meeting_id
func (h *Transcription) ListTranscripts(c echo.Context) error {
	meetingID := c.Param("meeting_id")
	if _, err := h.authorize(c, meetingID); err != nil {
		return HandleError(h.logger, c, err)
	}

	rows, err := h.meetings.ListTranscripts(c.Request().Context(), meetingID)
	if err != nil {
		if stdErrors.Is(err, usecaseErrors.ErrInvalidInput) {
			return HandleError(h.logger, c, toAppError(err, meetingID))
		}
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("list transcripts", err))
	}

	return HandleSuccess(h.logger, c, presenter.ToStoredTranscriptResponses(rows))
}

// authorize resolves the acting user and checks meeting membership
func (h *Transcription) authorize(c echo.Context, meetingID string) (string, error) {
	userID, err := actorID(c)
	if err != nil {
		return "", err
	}
	meeting, err := h.meetings.GetMeeting(c.Request().Context(), meetingID)
	if err != nil {
		return "", toAppError(err, meetingID)
	}
	if !meeting.IsMember(userID) {
		return "", errors.ErrMeetingAccessDenied(meetingID)
	}
	return userID, nil
}
