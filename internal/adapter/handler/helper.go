package handler

import (
	stdErrors "errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/zainab674/project-plus-sub002/errors"
	"github.com/zainab674/project-plus-sub002/internal/usecase/dispatch"
	usecaseErrors "github.com/zainab674/project-plus-sub002/internal/usecase/errors"
)

// HeaderUserID carries the acting user, set by the upstream gateway
const HeaderUserID = "X-User-ID"

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    errors.ErrorCode  `json:"code"`
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
	Info    string            `json:"info,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

// actorID returns the acting user from the gateway header
func actorID(c echo.Context) (string, error) {
	userID := strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
	if userID == "" {
		return "", errors.ErrUnauthenticated()
	}
	return userID, nil
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return HandleStatus(logger, c, http.StatusOK, data)
}

// HandleStatus writes a standardized success response with the given status
func HandleStatus(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := success{
		Code:    status,
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Debug("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)

	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		if logger != nil {
			log := logger.Warn
			if appErr.HTTPCode >= http.StatusInternalServerError {
				log = logger.Error
			}
			log("http.response.error",
				zap.String("request_id", reqID),
				zap.String("path", c.Path()),
				zap.String("app_code", appErr.Code.String()),
				zap.Error(err),
			)
		}

		info := ""
		if appErr.Raw != nil {
			info = appErr.Raw.Error()
		}

		body := errs{
			Code:    appErr.Code,
			Error:   appErr.Code.String(),
			Message: appErr.Message,
			Details: appErr.Details,
			Info:    info,
		}

		return c.JSON(appErr.HTTPCode, body)
	}

	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	body := errs{
		Code:    errors.ErrorCode_INTERNAL,
		Error:   errors.ErrorCode_INTERNAL.String(),
		Message: "Internal server error",
	}

	return c.JSON(http.StatusInternalServerError, body)
}

// toAppError maps use case errors to their HTTP representation
func toAppError(err error, meetingID string) error {
	var appErr errors.AppError
	switch {
	case stdErrors.As(err, &appErr):
		return appErr
	case stdErrors.Is(err, usecaseErrors.ErrInvalidInput):
		return errors.ErrInvalidArgument(err.Error())
	case stdErrors.Is(err, usecaseErrors.ErrUnauthorized):
		return errors.ErrUnauthenticated()
	case stdErrors.Is(err, usecaseErrors.ErrMeetingNotFound):
		return errors.ErrMeetingNotFound(meetingID)
	case stdErrors.Is(err, usecaseErrors.ErrMeetingClosed):
		return errors.ErrMeetingClosed(meetingID)
	case stdErrors.Is(err, usecaseErrors.ErrInvalidTransition):
		return errors.ErrMeetingInvalidState(meetingID, err)
	case stdErrors.Is(err, usecaseErrors.ErrNotMeetingMember):
		return errors.ErrMeetingAccessDenied(meetingID)
	case stdErrors.Is(err, usecaseErrors.ErrParticipantMissing):
		return errors.ErrParticipantNotFound(meetingID)
	case stdErrors.Is(err, usecaseErrors.ErrSummaryNotFound):
		return errors.ErrSummaryNotFound(meetingID)
	case stdErrors.Is(err, usecaseErrors.ErrNothingToRetry):
		return errors.ErrNothingToRetry(meetingID)
	case stdErrors.Is(err, usecaseErrors.ErrLivekitToken):
		return errors.ErrLiveKitFailed("generate token", err)
	case stdErrors.Is(err, usecaseErrors.ErrDispatchListing):
		return errors.ErrLiveKitFailed("list dispatches", err)
	case stdErrors.Is(err, usecaseErrors.ErrDispatchFailed):
		return errors.ErrDispatchFailed(dispatch.RoomName(meetingID), err)
	default:
		return errors.ErrInternal(err)
	}
}

// bindAndValidate binds the request into req and runs the echo validator
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.ErrInvalidPayload().WithDetail("bind", err.Error())
	}
	if err := c.Validate(req); err != nil {
		return errors.ErrInvalidArgument(err.Error())
	}
	return nil
}

// bindQueryAndBody binds query parameters for every method, then the body if any
func bindQueryAndBody(c echo.Context, req interface{}) error {
	binder := &echo.DefaultBinder{}
	if err := binder.BindQueryParams(c, req); err != nil {
		return errors.ErrInvalidPayload().WithDetail("query", err.Error())
	}
	if err := binder.BindBody(c, req); err != nil {
		return errors.ErrInvalidPayload().WithDetail("bind", err.Error())
	}
	if err := c.Validate(req); err != nil {
		return errors.ErrInvalidArgument(err.Error())
	}
	return nil
}
