package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zainab674/project-plus-sub002/internal/domain/entities"
	"github.com/zainab674/project-plus-sub002/internal/domain/repositories"
	usecaseErrors "github.com/zainab674/project-plus-sub002/internal/usecase/errors"
)

// Notifier publishes meeting events to interested participants
type Notifier interface {
	Publish(ctx context.Context, event entities.MeetingEvent) error
}

// Archiver exports finalized transcripts to long term storage
type Archiver interface {
	ArchiveTranscripts(ctx context.Context, archive *entities.TranscriptArchive) (string, error)
}

// SummaryStore keeps the summary of the last completed session of a meeting
type SummaryStore interface {
	SaveSummary(ctx context.Context, summary *entities.SessionSummary, ttl time.Duration) error
	// GetSummary returns entities.ErrSessionSummaryNotFound when nothing is stored
	GetSummary(ctx context.Context, meetingID string) (*entities.SessionSummary, error)
}

// Config tunes the session lifecycle
type Config struct {
	PersistWorkers         int
	FinalizeTimeout        time.Duration
	SummaryTTL             time.Duration
	PreserveStartOnRestart bool
	// LateFragmentWindow is how long fragments for an ended session are
	// dropped unless the session is started again. Zero disables it.
	LateFragmentWindow time.Duration
}

// DefaultConfig returns the lifecycle defaults
func DefaultConfig() Config {
	return Config{
		PersistWorkers:     4,
		FinalizeTimeout:    30 * time.Second,
		SummaryTTL:         24 * time.Hour,
		LateFragmentWindow: 2 * time.Minute,
	}
}

// Dependencies are the collaborators of the lifecycle. Gateway is required,
// everything else is optional.
type Dependencies struct {
	Gateway   repositories.PersistenceGateway
	Meetings  repositories.MeetingRepository
	Notifier  Notifier
	Archiver  Archiver
	Summaries SummaryStore
	Logger    *zap.Logger
	Clock     func() time.Time
}

// Stats is the live or final view of a meeting session
type Stats struct {
	MeetingID        string     `json:"meeting_id"`
	SegmentCount     int        `json:"transcription_count"`
	ParticipantCount int        `json:"participant_count"`
	FinalSegments    int        `json:"final_transcriptions"`
	InterimSegments  int        `json:"interim_transcriptions"`
	DurationSeconds  int        `json:"duration_seconds"`
	StartTime        *time.Time `json:"start_time,omitempty"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	Active           bool       `json:"active"`
}

// StartResult reports the outcome of StartSession
type StartResult struct {
	MeetingID        string
	StartedAt        time.Time
	Restarted        bool
	DiscardedSeconds int
}

// IngestResult reports whether a fragment was buffered
type IngestResult struct {
	Accepted bool
	Reason   string
	Fragment entities.TranscriptFragment
}

// FailedTranscript is a participant transcript that could not be persisted
type FailedTranscript struct {
	Transcript entities.FinalizedTranscript
	Err        error
}

// EndResult reports the outcome of EndSession
type EndResult struct {
	Stats       Stats
	Transcripts []entities.FinalizedTranscript
	Failed      []FailedTranscript
	// Completed is true once the meeting completion update succeeded
	Completed       bool
	CompletionError error
	// Noop is true when nothing was open for the meeting
	Noop bool
}

// Lifecycle coordinates the start, ingestion and finalization of live sessions
type Lifecycle struct {
	segments *SegmentStore
	markers  *SessionMarkers
	// ended holds the end time of recently closed sessions
	ended *xsync.MapOf[string, time.Time]
	// retryMu serialises persistence retries
	retryMu sync.Mutex

	gateway   repositories.PersistenceGateway
	meetings  repositories.MeetingRepository
	notifier  Notifier
	archiver  Archiver
	summaries SummaryStore

	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// NewLifecycle creates a session lifecycle
func NewLifecycle(deps Dependencies, cfg Config) *Lifecycle {
	if cfg.PersistWorkers <= 0 {
		cfg.PersistWorkers = DefaultConfig().PersistWorkers
	}
	if cfg.FinalizeTimeout <= 0 {
		cfg.FinalizeTimeout = DefaultConfig().FinalizeTimeout
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &Lifecycle{
		segments:  NewSegmentStore(now),
		markers:   NewSessionMarkers(),
		ended:     xsync.NewMapOf[string, time.Time](),
		gateway:   deps.Gateway,
		meetings:  deps.Meetings,
		notifier:  deps.Notifier,
		archiver:  deps.Archiver,
		summaries: deps.Summaries,
		cfg:       cfg,
		logger:    logger,
		now:       now,
	}
}

// StartSession opens the live session of a meeting. A second start before
// the session ends resets the start marker unless PreserveStartOnRestart is set.
func (l *Lifecycle) StartSession(ctx context.Context, meetingID string) (*StartResult, error) {
	if strings.TrimSpace(meetingID) == "" {
		return nil, fmt.Errorf("%w: meeting id is required", usecaseErrors.ErrInvalidInput)
	}

	if l.meetings != nil {
		meeting, err := l.meetings.FindByID(ctx, meetingID)
		if err != nil {
			if errors.Is(err, entities.ErrMeetingNotFound) {
				return nil, usecaseErrors.ErrMeetingNotFound
			}
			return nil, fmt.Errorf("failed to load meeting: %w", err)
		}
		if meeting.IsTerminal() {
			return nil, fmt.Errorf("%w: status %s", usecaseErrors.ErrMeetingClosed, meeting.Status)
		}
	}

	startedAt := l.now()
	l.ended.Delete(meetingID)
	current, previous, restarted := l.markers.Start(meetingID, startedAt, l.cfg.PreserveStartOnRestart)

	result := &StartResult{
		MeetingID: meetingID,
		StartedAt: current.StartedAt,
		Restarted: restarted,
	}
	if restarted && !l.cfg.PreserveStartOnRestart {
		result.DiscardedSeconds = DurationSeconds(previous.StartedAt, startedAt)
		l.logger.Warn("Session restarted, previous start discarded",
			zap.String("meeting_id", meetingID),
			zap.Time("previous_start", previous.StartedAt),
			zap.Int("discarded_seconds", result.DiscardedSeconds),
			zap.Int("restarts", current.Restarts))
	}

	if l.meetings != nil {
		if err := l.meetings.MarkStarted(ctx, meetingID, current.StartedAt); err != nil {
			l.logger.Warn("Failed to record session start time",
				zap.String("meeting_id", meetingID),
				zap.Error(err))
		}
	}

	l.publish(ctx, entities.MeetingEvent{
		Type:       entities.MeetingEventSessionStarted,
		MeetingID:  meetingID,
		OccurredAt: current.StartedAt,
	})

	l.logger.Info("Session started",
		zap.String("meeting_id", meetingID),
		zap.Time("started_at", current.StartedAt),
		zap.Bool("restarted", restarted))

	return result, nil
}

// Ingest buffers one transcript fragment. It never fails the caller: malformed
// fragments are logged and reported as not accepted.
func (l *Lifecycle) Ingest(meetingID string, fragment entities.TranscriptFragment) IngestResult {
	if endedAt, ok := l.recentlyEnded(meetingID); ok {
		l.logger.Warn("Dropping transcript fragment for ended session",
			zap.String("meeting_id", meetingID),
			zap.String("participant", fragment.ParticipantIdentity),
			zap.String("type", string(fragment.Type)),
			zap.Time("ended_at", endedAt))
		return IngestResult{Accepted: false, Reason: "session already ended", Fragment: fragment}
	}

	stored, err := l.segments.Append(meetingID, fragment)
	if err != nil {
		l.logger.Warn("Dropping transcript fragment",
			zap.String("meeting_id", meetingID),
			zap.String("participant", fragment.ParticipantIdentity),
			zap.String("type", string(fragment.Type)),
			zap.Error(err))
		return IngestResult{Accepted: false, Reason: err.Error(), Fragment: fragment}
	}

	l.logger.Debug("Transcript fragment buffered",
		zap.String("meeting_id", meetingID),
		zap.String("participant", stored.ParticipantIdentity),
		zap.String("type", string(stored.Type)),
		zap.Uint64("seq", stored.Seq))

	return IngestResult{Accepted: true, Fragment: stored}
}

// EndSession closes the session, aggregates the buffered fragments and
// persists one transcript per participant. The buffer and marker are removed
// atomically so a second call finds nothing and performs no writes.
func (l *Lifecycle) EndSession(ctx context.Context, meetingID, actorID string) (*EndResult, error) {
	if strings.TrimSpace(meetingID) == "" {
		return nil, fmt.Errorf("%w: meeting id is required", usecaseErrors.ErrInvalidInput)
	}

	var (
		fragments []entities.TranscriptFragment
		marker    SessionMarker
		open      bool
		endedAt   time.Time
	)
	l.markers.withKeyLocked(meetingID, func(m SessionMarker, ok bool) {
		marker, open = m, ok
		endedAt = l.now()
		fragments = l.segments.SnapshotAndClear(meetingID)
		if (open || len(fragments) > 0) && l.cfg.LateFragmentWindow > 0 {
			l.ended.Store(meetingID, endedAt)
		}
	})
	l.pruneEnded(endedAt)

	result := &EndResult{Stats: Stats{MeetingID: meetingID}}
	if !open && len(fragments) == 0 {
		l.logger.Info("No open session to end", zap.String("meeting_id", meetingID))
		result.Noop = true
		return result, nil
	}

	stats := statsFromFragments(meetingID, fragments)
	stats.EndTime = &endedAt
	if open {
		startedAt := marker.StartedAt
		stats.StartTime = &startedAt
		stats.DurationSeconds = DurationSeconds(startedAt, endedAt)
	}
	result.Stats = stats

	// The buffer is gone at this point, so finalization must not be cut short
	// by the caller going away.
	finalizeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.cfg.FinalizeTimeout)
	defer cancel()

	aggregated := Aggregate(fragments)
	transcripts := make([]entities.FinalizedTranscript, 0, len(aggregated))
	for _, participant := range SortedParticipants(aggregated) {
		transcripts = append(transcripts, aggregated[participant])
	}
	result.Transcripts = transcripts
	result.Failed = l.persistAll(finalizeCtx, meetingID, transcripts)

	// A session that buffered nothing leaves the meeting record untouched
	if len(fragments) > 0 {
		if err := l.gateway.UpdateMeetingCompletion(finalizeCtx, meetingID, endedAt, stats.DurationSeconds); err != nil {
			result.CompletionError = err
			l.logger.Error("Failed to mark meeting completed",
				zap.String("meeting_id", meetingID),
				zap.Error(err))
		} else {
			result.Completed = true
		}
	}

	l.afterFinalize(finalizeCtx, meetingID, actorID, result)

	l.logger.Info("Session ended",
		zap.String("meeting_id", meetingID),
		zap.String("actor_id", actorID),
		zap.Int("segments", stats.SegmentCount),
		zap.Int("participants", stats.ParticipantCount),
		zap.Int("transcripts", len(transcripts)),
		zap.Int("failed", len(result.Failed)),
		zap.Int("duration_seconds", stats.DurationSeconds))

	return result, nil
}

// RetryPersistence writes transcripts that failed in an earlier EndSession.
// It returns the subset that failed again.
func (l *Lifecycle) RetryPersistence(ctx context.Context, meetingID string, transcripts []entities.FinalizedTranscript) ([]FailedTranscript, error) {
	if strings.TrimSpace(meetingID) == "" {
		return nil, fmt.Errorf("%w: meeting id is required", usecaseErrors.ErrInvalidInput)
	}
	if len(transcripts) == 0 || l.summaries == nil {
		return nil, usecaseErrors.ErrNothingToRetry
	}

	l.retryMu.Lock()
	defer l.retryMu.Unlock()

	summary, err := l.summaries.GetSummary(ctx, meetingID)
	if err != nil {
		if errors.Is(err, entities.ErrSessionSummaryNotFound) {
			return nil, usecaseErrors.ErrNothingToRetry
		}
		return nil, fmt.Errorf("failed to load session summary: %w", err)
	}

	pending := make(map[string]entities.FinalizedTranscript, len(summary.FailedTranscripts))
	for _, t := range summary.FailedTranscripts {
		pending[t.ParticipantIdentity] = t
	}
	if len(pending) == 0 {
		return nil, usecaseErrors.ErrNothingToRetry
	}

	// Only the recorded copies are written, never client supplied text
	retry := make([]entities.FinalizedTranscript, 0, len(transcripts))
	seen := make(map[string]bool, len(transcripts))
	for _, t := range transcripts {
		stored, ok := pending[t.ParticipantIdentity]
		if !ok {
			return nil, fmt.Errorf("%w: no failed transcript for participant %q", usecaseErrors.ErrInvalidInput, t.ParticipantIdentity)
		}
		if !seen[t.ParticipantIdentity] {
			seen[t.ParticipantIdentity] = true
			retry = append(retry, stored)
		}
	}

	failed := l.persistAll(ctx, meetingID, retry)

	stillFailed := make(map[string]bool, len(failed))
	for _, f := range failed {
		stillFailed[f.Transcript.ParticipantIdentity] = true
	}
	remaining := make([]entities.FinalizedTranscript, 0, len(summary.FailedTranscripts))
	for _, t := range summary.FailedTranscripts {
		if !seen[t.ParticipantIdentity] || stillFailed[t.ParticipantIdentity] {
			remaining = append(remaining, t)
		}
	}
	summary.FailedTranscripts = remaining
	summary.FailedParticipants = nil
	for _, t := range remaining {
		summary.FailedParticipants = append(summary.FailedParticipants, t.ParticipantIdentity)
	}
	if err := l.summaries.SaveSummary(ctx, summary, l.cfg.SummaryTTL); err != nil {
		l.logger.Warn("Failed to update session summary after retry",
			zap.String("meeting_id", meetingID),
			zap.Error(err))
	}

	l.logger.Info("Persistence retried",
		zap.String("meeting_id", meetingID),
		zap.Int("retried", len(retry)),
		zap.Int("failed", len(failed)))

	return failed, nil
}

// GetStats returns the live counters of a meeting. After the session ended
// every counter is zero.
func (l *Lifecycle) GetStats(meetingID string) Stats {
	buffered := l.segments.Stats(meetingID)
	stats := Stats{
		MeetingID:        meetingID,
		SegmentCount:     buffered.SegmentCount,
		ParticipantCount: buffered.ParticipantCount,
		FinalSegments:    buffered.FinalSegments,
		InterimSegments:  buffered.InterimSegments,
	}
	if marker, ok := l.markers.Get(meetingID); ok {
		startedAt := marker.StartedAt
		stats.StartTime = &startedAt
		stats.DurationSeconds = DurationSeconds(startedAt, l.now())
		stats.Active = true
	}
	return stats
}

// LastSummary returns the summary of the last completed session of a meeting
func (l *Lifecycle) LastSummary(ctx context.Context, meetingID string) (*entities.SessionSummary, error) {
	if l.summaries == nil {
		return nil, usecaseErrors.ErrSummaryNotFound
	}
	summary, err := l.summaries.GetSummary(ctx, meetingID)
	if err != nil {
		if errors.Is(err, entities.ErrSessionSummaryNotFound) {
			return nil, usecaseErrors.ErrSummaryNotFound
		}
		return nil, fmt.Errorf("failed to load session summary: %w", err)
	}
	return summary, nil
}

// Confirm applies the creator decision on a pending or processing meeting
// and notifies participants.
func (l *Lifecycle) Confirm(ctx context.Context, meetingID, actorID string, accept bool) (*entities.Meeting, error) {
	if l.meetings == nil {
		return nil, fmt.Errorf("%w: meeting repository not configured", usecaseErrors.ErrInternalError)
	}

	meeting, err := l.meetings.FindByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, entities.ErrMeetingNotFound) {
			return nil, usecaseErrors.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("failed to load meeting: %w", err)
	}

	from := meeting.Status
	if err := meeting.Confirm(accept); err != nil {
		return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrInvalidTransition, err)
	}

	ok, err := l.meetings.TransitionStatus(ctx, meetingID, []entities.MeetingStatus{from}, meeting.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to update meeting status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: status changed concurrently", usecaseErrors.ErrInvalidTransition)
	}

	recipients := make([]string, 0, len(meeting.Participants))
	for _, p := range meeting.Participants {
		recipients = append(recipients, p.UserID)
	}
	l.publish(ctx, entities.MeetingEvent{
		Type:       entities.MeetingEventStatusChanged,
		MeetingID:  meetingID,
		Status:     meeting.Status,
		ActorID:    actorID,
		Recipients: recipients,
		OccurredAt: l.now(),
	})

	l.logger.Info("Meeting confirmed",
		zap.String("meeting_id", meetingID),
		zap.String("actor_id", actorID),
		zap.String("from", string(from)),
		zap.String("to", string(meeting.Status)))

	return meeting, nil
}

// ActiveSessions returns the number of meetings with a buffer and with an open marker
func (l *Lifecycle) ActiveSessions() (buffers, markers int) {
	return l.segments.Len(), l.markers.Len()
}

func (l *Lifecycle) persistAll(ctx context.Context, meetingID string, transcripts []entities.FinalizedTranscript) []FailedTranscript {
	var (
		mu     sync.Mutex
		failed []FailedTranscript
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.PersistWorkers)

	for _, t := range transcripts {
		g.Go(func() error {
			err := l.gateway.WriteTranscript(gctx, meetingID, t.ParticipantIdentity, t.Text, t.StartTime, t.EndTime)
			if err != nil {
				l.logger.Error("Failed to persist transcript",
					zap.String("meeting_id", meetingID),
					zap.String("participant", t.ParticipantIdentity),
					zap.Error(err))
				mu.Lock()
				failed = append(failed, FailedTranscript{Transcript: t, Err: err})
				mu.Unlock()
			}
			// one failed participant must not cancel the others
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(failed, func(a, b FailedTranscript) int {
		return strings.Compare(a.Transcript.ParticipantIdentity, b.Transcript.ParticipantIdentity)
	})
	return failed
}

func (l *Lifecycle) afterFinalize(ctx context.Context, meetingID, actorID string, result *EndResult) {
	summary := &entities.SessionSummary{
		MeetingID:        meetingID,
		SegmentCount:     result.Stats.SegmentCount,
		ParticipantCount: result.Stats.ParticipantCount,
		FinalSegments:    result.Stats.FinalSegments,
		InterimSegments:  result.Stats.InterimSegments,
		DurationSeconds:  result.Stats.DurationSeconds,
		StartTime:        result.Stats.StartTime,
		EndTime:          *result.Stats.EndTime,
		TranscriptCount:  len(result.Transcripts),
		CompletedBy:      actorID,
	}
	for _, f := range result.Failed {
		summary.FailedParticipants = append(summary.FailedParticipants, f.Transcript.ParticipantIdentity)
		summary.FailedTranscripts = append(summary.FailedTranscripts, f.Transcript)
	}

	if l.archiver != nil && len(result.Transcripts) > 0 {
		key, err := l.archiver.ArchiveTranscripts(ctx, &entities.TranscriptArchive{
			Summary:     *summary,
			Transcripts: result.Transcripts,
			ArchivedAt:  l.now(),
		})
		if err != nil {
			l.logger.Warn("Failed to archive transcripts",
				zap.String("meeting_id", meetingID),
				zap.Error(err))
		} else {
			l.logger.Info("Transcripts archived",
				zap.String("meeting_id", meetingID),
				zap.String("object", key))
		}
	}

	if l.summaries != nil {
		if err := l.summaries.SaveSummary(ctx, summary, l.cfg.SummaryTTL); err != nil {
			l.logger.Warn("Failed to store session summary",
				zap.String("meeting_id", meetingID),
				zap.Error(err))
		}
	}

	l.publish(ctx, entities.MeetingEvent{
		Type:       entities.MeetingEventSessionCompleted,
		MeetingID:  meetingID,
		Status:     entities.MeetingStatusCompleted,
		ActorID:    actorID,
		Summary:    summary,
		OccurredAt: summary.EndTime,
	})
}

func (l *Lifecycle) recentlyEnded(meetingID string) (time.Time, bool) {
	endedAt, ok := l.ended.Load(meetingID)
	if !ok {
		return time.Time{}, false
	}
	if l.now().Sub(endedAt) < l.cfg.LateFragmentWindow {
		return endedAt, true
	}
	l.ended.Compute(meetingID, func(old time.Time, loaded bool) (time.Time, bool) {
		// keep a newer end recorded in the meantime
		return old, !loaded || old.Equal(endedAt)
	})
	return time.Time{}, false
}

func (l *Lifecycle) pruneEnded(now time.Time) {
	l.ended.Range(func(meetingID string, endedAt time.Time) bool {
		if now.Sub(endedAt) >= l.cfg.LateFragmentWindow {
			l.ended.Compute(meetingID, func(old time.Time, loaded bool) (time.Time, bool) {
				return old, !loaded || old.Equal(endedAt)
			})
		}
		return true
	})
}

func (l *Lifecycle) publish(ctx context.Context, event entities.MeetingEvent) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.Publish(ctx, event); err != nil {
		l.logger.Warn("Failed to publish meeting event",
			zap.String("meeting_id", event.MeetingID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
}

func statsFromFragments(meetingID string, fragments []entities.TranscriptFragment) Stats {
	stats := Stats{MeetingID: meetingID, SegmentCount: len(fragments)}
	participants := make(map[string]struct{})
	for _, f := range fragments {
		participants[f.ParticipantIdentity] = struct{}{}
		if f.IsFinal() {
			stats.FinalSegments++
		} else {
			stats.InterimSegments++
		}
	}
	stats.ParticipantCount = len(participants)
	return stats
}
