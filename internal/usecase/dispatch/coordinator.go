package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/zainab674/project-plus-sub002/internal/infrastructure/external/livekit"
	usecaseErrors "github.com/zainab674/project-plus-sub002/internal/usecase/errors"
)

const (
	// DefaultAgentName is the transcription agent registered with LiveKit
	DefaultAgentName = "transcriber"

	roomPrefix = "meeting-"

	// callSlack is added to MaxElapsed to bound the last in-flight request
	callSlack = 5 * time.Second
)

// Metadata is handed to the agent untouched
type Metadata map[string]string

// Config tunes the coordinator
type Config struct {
	AgentName string
	// MaxElapsed bounds the time spent retrying a dispatch
	MaxElapsed time.Duration
}

// EnsureResult reports the dispatch serving a room
type EnsureResult struct {
	Room     string
	Dispatch *livekit.DispatchInfo
	// Created is false when the agent was already dispatched
	Created bool
}

// Coordinator makes sure exactly one transcription agent is dispatched per room
type Coordinator struct {
	dispatcher livekit.AgentDispatcher
	agentName  string
	maxElapsed time.Duration
	inflight   singleflight.Group
	logger     *zap.Logger
}

// NewCoordinator creates a dispatch coordinator
func NewCoordinator(dispatcher livekit.AgentDispatcher, cfg Config, logger *zap.Logger) *Coordinator {
	if cfg.AgentName == "" {
		cfg.AgentName = DefaultAgentName
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		dispatcher: dispatcher,
		agentName:  cfg.AgentName,
		maxElapsed: cfg.MaxElapsed,
		logger:     logger,
	}
}

// AgentName returns the name of the agent this coordinator dispatches
func (c *Coordinator) AgentName() string {
	return c.agentName
}

// EnsureAgentPresent dispatches the agent to the room unless it is already
// there. Concurrent calls for one room share a single dispatch attempt.
func (c *Coordinator) EnsureAgentPresent(ctx context.Context, roomName string, meta Metadata) (*EnsureResult, error) {
	if strings.TrimSpace(roomName) == "" {
		return nil, fmt.Errorf("%w: room name is required", usecaseErrors.ErrInvalidInput)
	}

	// The shared call outlives any single caller so that one canceled request
	// does not fail the others waiting on the same room.
	ch := c.inflight.DoChan(roomName, func() (interface{}, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.maxElapsed+callSlack)
		defer cancel()
		return c.ensure(sharedCtx, roomName, meta)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrDispatchFailed, ctx.Err())
	}

	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		c.logger.Warn("Agent dispatch failed",
			zap.String("room", roomName),
			zap.String("agent", c.agentName),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrDispatchFailed, err)
	}

	result := *v.(*EnsureResult)
	if shared {
		// only the leader reports the dispatch as newly created
		result.Created = false
	}
	return &result, nil
}

func (c *Coordinator) ensure(ctx context.Context, roomName string, meta Metadata) (*EnsureResult, error) {
	var payload []byte
	if len(meta) > 0 {
		encoded, err := json.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("failed to encode dispatch metadata: %w", err)
		}
		payload = encoded
	}

	var result *EnsureResult
	operation := func() error {
		existing, err := c.find(ctx, roomName)
		if err != nil {
			return err
		}
		if existing != nil {
			result = &EnsureResult{Room: roomName, Dispatch: existing}
			return nil
		}

		created, err := c.dispatcher.CreateDispatch(ctx, roomName, c.agentName, string(payload))
		if err != nil {
			c.logger.Debug("Dispatch attempt failed, retrying",
				zap.String("room", roomName),
				zap.Error(err))
			return err
		}
		result = &EnsureResult{Room: roomName, Dispatch: created, Created: true}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = c.maxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}

	if result.Created {
		c.logger.Info("Agent dispatched",
			zap.String("room", roomName),
			zap.String("agent", c.agentName),
			zap.String("dispatch_id", result.Dispatch.ID))
	} else {
		c.logger.Info("Agent already dispatched",
			zap.String("room", roomName),
			zap.String("dispatch_id", result.Dispatch.ID))
	}
	return result, nil
}

// ListDispatches lists the dispatches of a room
func (c *Coordinator) ListDispatches(ctx context.Context, roomName string) ([]*livekit.DispatchInfo, error) {
	dispatches, err := c.dispatcher.ListDispatches(ctx, roomName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrDispatchListing, err)
	}
	return dispatches, nil
}

// IsDispatched reports whether agentName is dispatched to the room
func (c *Coordinator) IsDispatched(ctx context.Context, roomName, agentName string) (bool, error) {
	dispatches, err := c.ListDispatches(ctx, roomName)
	if err != nil {
		return false, err
	}
	for _, d := range dispatches {
		if d.AgentName == agentName {
			return true, nil
		}
	}
	return false, nil
}

func (c *Coordinator) find(ctx context.Context, roomName string) (*livekit.DispatchInfo, error) {
	dispatches, err := c.dispatcher.ListDispatches(ctx, roomName)
	if err != nil {
		return nil, err
	}
	for _, d := range dispatches {
		if d.AgentName == c.agentName {
			return d, nil
		}
	}
	return nil, nil
}

// RoomName returns the LiveKit room of a meeting
func RoomName(meetingID string) string {
	return roomPrefix + meetingID
}

// MeetingIDFromRoom extracts the meeting id from a room created by RoomName
func MeetingIDFromRoom(roomName string) (string, bool) {
	id, ok := strings.CutPrefix(roomName, roomPrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
