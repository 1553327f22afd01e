package handler

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/livekit/protocol/auth"
	"go.uber.org/zap/zaptest"

	"github.com/zainab674/project-plus-sub002/internal/domain/entities"
	"github.com/zainab674/project-plus-sub002/internal/usecase/dispatch"
	usecaseErrors "github.com/zainab674/project-plus-sub002/internal/usecase/errors"
	meetingUsecase "github.com/zainab674/project-plus-sub002/internal/usecase/meeting"
	"github.com/zainab674/project-plus-sub002/internal/usecase/session"
	"github.com/zainab674/project-plus-sub002/pkg/config"
	"github.com/zainab674/project-plus-sub002/pkg/validator"
)

const (
	testAPIKey    = "devkey"
	testAPISecret = "devsecret-devsecret-devsecret-0000"
)

type fakeSessions struct {
	mu      sync.Mutex
	ingests []entities.TranscriptFragment
	started []string
	ended   []string
	actors  []string
	summary *entities.SessionSummary
}

func (f *fakeSessions) StartSession(ctx context.Context, meetingID string) (*session.StartResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, meetingID)
	return &session.StartResult{MeetingID: meetingID, StartedAt: time.Now()}, nil
}

func (f *fakeSessions) Ingest(meetingID string, fragment entities.TranscriptFragment) session.IngestResult {
	if meetingID == "" {
		return session.IngestResult{Reason: "meeting id is required", Fragment: fragment}
	}
	if !fragment.Type.Valid() {
		return session.IngestResult{Reason: "unknown fragment type", Fragment: fragment}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fragment.Seq = uint64(len(f.ingests))
	f.ingests = append(f.ingests, fragment)
	return session.IngestResult{Accepted: true, Fragment: fragment}
}

func (f *fakeSessions) EndSession(ctx context.Context, meetingID, actorID string) (*session.EndResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended = append(f.ended, meetingID)
	f.actors = append(f.actors, actorID)
	end := time.Now()
	return &session.EndResult{
		Stats:     session.Stats{MeetingID: meetingID, SegmentCount: 3, ParticipantCount: 2, EndTime: &end},
		Completed: true,
		Transcripts: []entities.FinalizedTranscript{
			{ParticipantIdentity: "alice", Text: "hi"},
			{ParticipantIdentity: "bob", Text: "hello"},
		},
	}, nil
}

func (f *fakeSessions) RetryPersistence(ctx context.Context, meetingID string, transcripts []entities.FinalizedTranscript) ([]session.FailedTranscript, error) {
	return nil, nil
}

func (f *fakeSessions) GetStats(meetingID string) session.Stats {
	return session.Stats{MeetingID: meetingID}
}

func (f *fakeSessions) LastSummary(ctx context.Context, meetingID string) (*entities.SessionSummary, error) {
	if f.summary == nil || f.summary.MeetingID != meetingID {
		return nil, usecaseErrors.ErrSummaryNotFound
	}
	return f.summary, nil
}

func (f *fakeSessions) Confirm(ctx context.Context, meetingID, actorID string, accept bool) (*entities.Meeting, error) {
	m := entities.NewMeeting("h", "", actorID, true)
	m.ID = meetingID
	if err := m.Confirm(accept); err != nil {
		return nil, err
	}
	return m, nil
}

func (f *fakeSessions) ActiveSessions() (int, int) {
	return 0, 0
}

type fakeMeetings struct {
	meetings map[string]*entities.Meeting
	votes    map[string]entities.Vote
}

func (f *fakeMeetings) CreateMeeting(ctx context.Context, input meetingUsecase.CreateMeetingInput) (*entities.Meeting, error) {
	m := entities.NewMeeting(input.Heading, input.Description, input.CreatorID, input.IsScheduled)
	f.meetings[m.ID] = m
	return m, nil
}

func (f *fakeMeetings) GetMeeting(ctx context.Context, meetingID string) (*entities.Meeting, error) {
	m, ok := f.meetings[meetingID]
	if !ok {
		return nil, usecaseErrors.ErrMeetingNotFound
	}
	return m, nil
}

func (f *fakeMeetings) ListMeetings(ctx context.Context, userID string, isScheduled *bool) ([]*entities.Meeting, error) {
	var out []*entities.Meeting
	for _, m := range f.meetings {
		if m.IsMember(userID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMeetings) Vote(ctx context.Context, meetingID, userID string, accept bool) (*entities.MeetingParticipant, error) {
	m, ok := f.meetings[meetingID]
	if !ok {
		return nil, usecaseErrors.ErrParticipantMissing
	}
	for _, p := range m.Participants {
		if p.UserID == userID {
			p.Vote = entities.VoteFromFlag(accept)
			f.votes[userID] = p.Vote
			return p, nil
		}
	}
	return nil, usecaseErrors.ErrParticipantMissing
}

func (f *fakeMeetings) Join(ctx context.Context, input meetingUsecase.JoinInput) (*meetingUsecase.JoinOutput, error) {
	return nil, usecaseErrors.ErrNotMeetingMember
}

func (f *fakeMeetings) DispatchAgent(ctx context.Context, meetingID, userID string) (*dispatch.EnsureResult, error) {
	return nil, usecaseErrors.ErrDispatchFailed
}

func (f *fakeMeetings) DispatchStatus(ctx context.Context, meetingID, userID string) (*meetingUsecase.DispatchStatus, error) {
	return &meetingUsecase.DispatchStatus{RoomName: dispatch.RoomName(meetingID)}, nil
}

func (f *fakeMeetings) ListTranscripts(ctx context.Context, meetingID string) ([]*entities.MeetingTranscript, error) {
	return []*entities.MeetingTranscript{
		entities.NewMeetingTranscript(meetingID, "alice", "[alice]: hi", time.Now(), time.Now()),
	}, nil
}

type testServer struct {
	e        *echo.Echo
	sessions *fakeSessions
	meetings *fakeMeetings
	meeting  *entities.Meeting
}

func newTestServer(t *testing.T, agentKey string, allowUnsigned bool) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)

	m := entities.NewMeeting("Standup", "", "creator", true)
	m.ID = "m1"
	m.Participants = []*entities.MeetingParticipant{entities.NewMeetingParticipant(m.ID, "u1")}

	sessions := &fakeSessions{}
	meetings := &fakeMeetings{
		meetings: map[string]*entities.Meeting{m.ID: m},
		votes:    map[string]entities.Vote{},
	}
	cfg := &config.Config{
		Server:  config.ServerConfig{Environment: "test"},
		Session: config.SessionConfig{AgentAPIKey: agentKey},
	}

	e := echo.New()
	e.Validator = validator.New()
	NewRouter(cfg,
		NewMeetingHandler(meetings, sessions, logger),
		NewTranscriptionHandler(sessions, meetings, logger),
		NewWebhookHandler(sessions, testAPIKey, testAPISecret, allowUnsigned, logger),
		sessions,
		logger,
	).Setup(e)

	return &testServer{e: e, sessions: sessions, meetings: meetings, meeting: m}
}

func (s *testServer) do(method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func asUser(id string) map[string]string {
	return map[string]string{HeaderUserID: id}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestIngest(t *testing.T) {
	s := newTestServer(t, "", false)

	rec := s.do(http.MethodPost, "/v1/transcription/livekit",
		`{"meeting_id":"m1","transcription_data":{"type":"final","text":"hello","participant":"alice","trackSid":"TR_1","segmentId":"alice_1"}}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["accepted"] != true {
		t.Fatalf("expected accepted fragment, got %v", body)
	}
	if len(s.sessions.ingests) != 1 || s.sessions.ingests[0].SegmentID != "alice_1" || s.sessions.ingests[0].TrackSID != "TR_1" {
		t.Fatalf("unexpected ingested fragments %+v", s.sessions.ingests)
	}

	rec = s.do(http.MethodPost, "/v1/transcription/livekit",
		`{"meeting_id":"m1","transcription_data":{"type":"partial","text":"x","participant":"alice"}}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("malformed fragment must be acknowledged, status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["accepted"] != false || body["reason"] == "" {
		t.Fatalf("expected rejected fragment, got %v", body)
	}

	rec = s.do(http.MethodPost, "/v1/transcription/livekit",
		`{"transcription_data":{"type":"final","text":"hello","participant":"alice"}}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("fragment without meeting id must be acknowledged, status = %d body=%s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["accepted"] != false || body["reason"] == "" {
		t.Fatalf("expected rejected fragment, got %v", body)
	}
	if len(s.sessions.ingests) != 1 {
		t.Fatalf("fragment without meeting id must not be buffered, got %d", len(s.sessions.ingests))
	}

	rec = s.do(http.MethodPost, "/v1/transcription/livekit", `{"meeting_id":`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unparseable body: status = %d", rec.Code)
	}
}

func TestAgentKeyAuth(t *testing.T) {
	s := newTestServer(t, "agent-secret", false)
	payload := `{"meeting_id":"m1","transcription_data":{"type":"final","text":"hi","participant":"alice"}}`

	if rec := s.do(http.MethodPost, "/v1/transcription/livekit", payload, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("missing key: status = %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/v1/transcription/livekit", payload, map[string]string{HeaderAgentKey: "wrong"}); rec.Code != http.StatusForbidden {
		t.Fatalf("wrong key: status = %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/v1/transcription/livekit", payload, map[string]string{HeaderAgentKey: "agent-secret"}); rec.Code != http.StatusOK {
		t.Fatalf("valid key: status = %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/v1/transcription/start/m1", "", map[string]string{HeaderAgentKey: "agent-secret"}); rec.Code != http.StatusOK {
		t.Fatalf("start with key: status = %d", rec.Code)
	}
}

func TestEnd_RequiresMembership(t *testing.T) {
	s := newTestServer(t, "", false)

	if rec := s.do(http.MethodPost, "/v1/transcription/end/m1", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status = %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/v1/transcription/end/m1", "", asUser("stranger")); rec.Code != http.StatusForbidden {
		t.Fatalf("stranger: status = %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/v1/transcription/end/unknown", "", asUser("u1")); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown meeting: status = %d", rec.Code)
	}

	rec := s.do(http.MethodPost, "/v1/transcription/end/m1", "", asUser("u1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("member: status = %d body=%s", rec.Code, rec.Body.String())
	}
	data := decodeBody(t, rec)["data"].(map[string]any)
	if data["saved"] != float64(2) || data["completed"] != true {
		t.Fatalf("unexpected end response %v", data)
	}
	stats := data["statistics"].(map[string]any)
	if stats["transcription_count"] != float64(3) || stats["participant_count"] != float64(2) {
		t.Fatalf("unexpected statistics %v", stats)
	}
	if s.sessions.actors[0] != "u1" {
		t.Fatalf("actor = %s", s.sessions.actors[0])
	}
}

func TestRetry_Validation(t *testing.T) {
	s := newTestServer(t, "", false)

	if rec := s.do(http.MethodPost, "/v1/transcription/end/m1/retry", `{"transcripts":[]}`, asUser("u1")); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty retry: status = %d", rec.Code)
	}

	rec := s.do(http.MethodPost, "/v1/transcription/end/m1/retry",
		`{"transcripts":[{"participant":"alice","text":"hi","start_time":"2024-01-01T10:00:00Z","end_time":"2024-01-01T10:01:00Z"}]}`, asUser("u1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("retry: status = %d body=%s", rec.Code, rec.Body.String())
	}
	if data := decodeBody(t, rec)["data"].(map[string]any); data["saved"] != float64(1) {
		t.Fatalf("unexpected retry response %v", data)
	}
}

func TestSummary(t *testing.T) {
	s := newTestServer(t, "", false)

	rec := s.do(http.MethodGet, "/v1/transcription/summary/m1", "", asUser("creator"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing summary: status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "SESSION_SUMMARY_NOT_FOUND" {
		t.Fatalf("unexpected error body %v", body)
	}

	s.sessions.summary = &entities.SessionSummary{MeetingID: "m1", SegmentCount: 7, DurationSeconds: 65}
	rec = s.do(http.MethodGet, "/v1/transcription/summary/m1", "", asUser("creator"))
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: status = %d", rec.Code)
	}
	if data := decodeBody(t, rec)["data"].(map[string]any); data["transcription_count"] != float64(7) {
		t.Fatalf("unexpected summary %v", data)
	}
}

func TestVote_QueryParams(t *testing.T) {
	s := newTestServer(t, "", false)

	rec := s.do(http.MethodPost, "/v1/meetings/m1/vote?user_id=u1&vote=1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("vote: status = %d body=%s", rec.Code, rec.Body.String())
	}
	if s.meetings.votes["u1"] != entities.VoteAccepted {
		t.Fatalf("vote not recorded: %v", s.meetings.votes)
	}
	if s.meeting.Status != entities.MeetingStatusPending {
		t.Fatalf("vote must not change meeting status")
	}

	if rec := s.do(http.MethodGet, "/v1/meetings/m1/vote?user_id=u1&vote=2", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid vote: status = %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/v1/meetings/m1/vote?user_id=stranger&vote=0", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown participant: status = %d", rec.Code)
	}
}

func TestConfirm_OnlyCreator(t *testing.T) {
	s := newTestServer(t, "", false)

	if rec := s.do(http.MethodGet, "/v1/meetings/m1/confirm?vote=1", "", asUser("u1")); rec.Code != http.StatusForbidden {
		t.Fatalf("participant confirm: status = %d", rec.Code)
	}

	rec := s.do(http.MethodGet, "/v1/meetings/m1/confirm?vote=1", "", asUser("creator"))
	if rec.Code != http.StatusOK {
		t.Fatalf("creator confirm: status = %d body=%s", rec.Code, rec.Body.String())
	}
	if data := decodeBody(t, rec)["data"].(map[string]any); data["status"] != "SCHEDULED" {
		t.Fatalf("unexpected status %v", data["status"])
	}
}

func TestMeetingRoutes(t *testing.T) {
	s := newTestServer(t, "", false)

	rec := s.do(http.MethodPost, "/v1/meetings", `{"heading":"Planning","isScheduled":false}`, asUser("creator"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d body=%s", rec.Code, rec.Body.String())
	}
	if rec := s.do(http.MethodPost, "/v1/meetings", `{"heading":""}`, asUser("creator")); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing heading: status = %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/v1/meetings?is_scheduled=maybe", "", asUser("creator")); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad filter: status = %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/v1/meetings/m1", "", asUser("stranger")); rec.Code != http.StatusForbidden {
		t.Fatalf("stranger get: status = %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/v1/meetings/m1/token", "", asUser("u1")); rec.Code != http.StatusForbidden {
		t.Fatalf("join mapped error: status = %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/v1/meetings/m1/dispatch", "", asUser("u1")); rec.Code != http.StatusBadGateway {
		t.Fatalf("dispatch failure: status = %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/v1/transcription/meeting/m1", "", asUser("u1")); rec.Code != http.StatusOK {
		t.Fatalf("list transcripts: status = %d", rec.Code)
	}
}

func TestWebhook_Unsigned(t *testing.T) {
	s := newTestServer(t, "", true)

	rec := s.do(http.MethodPost, "/v1/webhooks/livekit", `{"event":"room_started","room":{"name":"meeting-m1"}}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("room_started: status = %d body=%s", rec.Code, rec.Body.String())
	}
	rec = s.do(http.MethodPost, "/v1/webhooks/livekit", `{"event":"room_finished","room":{"name":"meeting-m1"}}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("room_finished: status = %d", rec.Code)
	}
	rec = s.do(http.MethodPost, "/v1/webhooks/livekit", `{"event":"room_finished","room":{"name":"lobby"}}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("foreign room: status = %d", rec.Code)
	}

	if len(s.sessions.started) != 1 || s.sessions.started[0] != "m1" {
		t.Fatalf("expected session start for m1, got %v", s.sessions.started)
	}
	if len(s.sessions.ended) != 1 || s.sessions.ended[0] != "m1" || s.sessions.actors[0] != WebhookActor {
		t.Fatalf("expected session end for m1 by livekit, got %v %v", s.sessions.ended, s.sessions.actors)
	}
}

func TestWebhook_RequiresSignature(t *testing.T) {
	s := newTestServer(t, "", false)

	if rec := s.do(http.MethodPost, "/v1/webhooks/livekit", `{"event":"room_finished","room":{"name":"meeting-m1"}}`, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unsigned: status = %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/v1/webhooks/livekit", `{"event":"room_finished","room":{"name":"meeting-m1"}}`,
		map[string]string{"Authorization": "not-a-jwt"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad signature: status = %d", rec.Code)
	}
	if len(s.sessions.ended) != 0 {
		t.Fatalf("rejected webhook must not end the session")
	}
}

func TestWebhook_Signed(t *testing.T) {
	s := newTestServer(t, "", false)
	body := `{"event":"room_finished","room":{"name":"meeting-m1"}}`

	sum := sha256.Sum256([]byte(body))
	token, err := auth.NewAccessToken(testAPIKey, testAPISecret).
		SetValidFor(time.Minute).
		SetSha256(base64.StdEncoding.EncodeToString(sum[:])).
		ToJWT()
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	rec := s.do(http.MethodPost, "/v1/webhooks/livekit", body, map[string]string{"Authorization": token})
	if rec.Code != http.StatusOK {
		t.Fatalf("signed webhook: status = %d body=%s", rec.Code, rec.Body.String())
	}
	if len(s.sessions.ended) != 1 {
		t.Fatalf("expected session end, got %v", s.sessions.ended)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "", false)

	rec := s.do(http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "ok" {
		t.Fatalf("unexpected health %v", body)
	}
}
