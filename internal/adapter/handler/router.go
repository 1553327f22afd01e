package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/zainab674/project-plus-sub002/errors"
	"github.com/zainab674/project-plus-sub002/internal/usecase/session"
	"github.com/zainab674/project-plus-sub002/pkg/config"
)

// HeaderAgentKey carries the transcription agent API key
const HeaderAgentKey = "X-API-Key"

// Router holds all handlers
type Router struct {
	cfg                  *config.Config
	meetingHandler       *Meeting
	transcriptionHandler *Transcription
	webhookHandler       *WebhookHandler
	sessions             session.Service
	logger               *zap.Logger
}

// NewRouter creates a new router with all handlers
func NewRouter(
	cfg *config.Config,
	meetingHandler *Meeting,
	transcriptionHandler *Transcription,
	webhookHandler *WebhookHandler,
	sessions session.Service,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		cfg:                  cfg,
		meetingHandler:       meetingHandler,
		transcriptionHandler: transcriptionHandler,
		webhookHandler:       webhookHandler,
		sessions:             sessions,
		logger:               logger,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupTranscriptionRoutes(v1)
	rt.setupMeetingRoutes(v1)
	rt.setupWebhookRoutes(v1)
}

// setupTranscriptionRoutes configures live session routes
func (rt *Router) setupTranscriptionRoutes(g *echo.Group) {
	tr := g.Group("/transcription")

	// called by the transcription agent
	agentAuth := rt.agentKeyAuth()
	tr.POST("/livekit", rt.transcriptionHandler.Ingest, agentAuth)
	tr.POST("/start/:meeting_id", rt.transcriptionHandler.Start, agentAuth)

	tr.POST("/end/:meeting_id", rt.transcriptionHandler.End)
	tr.POST("/end/:meeting_id/retry", rt.transcriptionHandler.Retry)
	tr.GET("/stats/:meeting_id", rt.transcriptionHandler.Stats)
	tr.GET("/summary/:meeting_id", rt.transcriptionHandler.Summary)
	tr.GET("/meeting/:meeting_id", rt.transcriptionHandler.ListTranscripts)
}

// setupMeetingRoutes configures meeting management routes
func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	mg := g.Group("/meetings")

	mg.POST("", rt.meetingHandler.CreateMeeting)
	mg.GET("", rt.meetingHandler.ListMeetings)
	mg.GET("/:meeting_id", rt.meetingHandler.GetMeeting)
	mg.Match([]string{http.MethodGet, http.MethodPost}, "/:meeting_id/vote", rt.meetingHandler.Vote)
	mg.Match([]string{http.MethodGet, http.MethodPost}, "/:meeting_id/confirm", rt.meetingHandler.Confirm)
	mg.POST("/:meeting_id/token", rt.meetingHandler.Join)
	mg.POST("/:meeting_id/dispatch", rt.meetingHandler.DispatchAgent)
	mg.GET("/:meeting_id/dispatch", rt.meetingHandler.DispatchStatus)
}

// setupWebhookRoutes configures LiveKit webhook routes
func (rt *Router) setupWebhookRoutes(g *echo.Group) {
	g.POST("/webhooks/livekit", rt.webhookHandler.HandleLiveKitWebhook)
}

// agentKeyAuth checks the agent API key when one is configured
func (rt *Router) agentKeyAuth() echo.MiddlewareFunc {
	key := rt.cfg.Session.AgentAPIKey
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:" + HeaderAgentKey,
		Skipper: func(c echo.Context) bool {
			return key == ""
		},
		Validator: func(candidate string, c echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(candidate), []byte(key)) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return HandleError(rt.logger, c, errors.ErrPermissionDenied("invalid agent API key"))
		},
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	buffers, markers := rt.sessions.ActiveSessions()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"environment":     rt.cfg.Server.Environment,
		"active_buffers":  buffers,
		"active_sessions": markers,
	})
}
