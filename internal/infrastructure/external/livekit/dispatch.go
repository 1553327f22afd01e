package livekit

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	livekit "github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
)

// DispatchInfo describes one agent dispatch of a room
type DispatchInfo struct {
	ID        string
	AgentName string
	Room      string
	Metadata  string
}

// AgentDispatcher asks LiveKit to send a named agent into a room
type AgentDispatcher interface {
	CreateDispatch(ctx context.Context, roomName, agentName, metadata string) (*DispatchInfo, error)
	ListDispatches(ctx context.Context, roomName string) ([]*DispatchInfo, error)
}

type realDispatcher struct {
	client *lksdk.AgentDispatchClient
}

// NewAgentDispatcher creates the agent dispatch client
func NewAgentDispatcher(url, apiKey, apiSecret string, useMock bool) AgentDispatcher {
	if useMock {
		return NewMockDispatcher()
	}
	return &realDispatcher{
		client: lksdk.NewAgentDispatchServiceClient(url, apiKey, apiSecret),
	}
}

// CreateDispatch creates an explicit agent dispatch for the room
func (d *realDispatcher) CreateDispatch(ctx context.Context, roomName, agentName, metadata string) (*DispatchInfo, error) {
	dispatch, err := d.client.CreateDispatch(ctx, &livekit.CreateAgentDispatchRequest{
		AgentName: agentName,
		Room:      roomName,
		Metadata:  metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent dispatch: %w", err)
	}
	return toDispatchInfo(dispatch), nil
}

// ListDispatches lists the agent dispatches of a room
func (d *realDispatcher) ListDispatches(ctx context.Context, roomName string) ([]*DispatchInfo, error) {
	resp, err := d.client.ListDispatch(ctx, &livekit.ListAgentDispatchRequest{
		Room: roomName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list agent dispatches: %w", err)
	}

	dispatches := make([]*DispatchInfo, 0, len(resp.AgentDispatches))
	for _, ad := range resp.AgentDispatches {
		dispatches = append(dispatches, toDispatchInfo(ad))
	}
	return dispatches, nil
}

func toDispatchInfo(d *livekit.AgentDispatch) *DispatchInfo {
	return &DispatchInfo{
		ID:        d.Id,
		AgentName: d.AgentName,
		Room:      d.Room,
		Metadata:  d.Metadata,
	}
}

// MockDispatcher keeps dispatches in memory
type MockDispatcher struct {
	mu         sync.Mutex
	dispatches map[string][]*DispatchInfo
	creates    int
	// FailCreates makes the next n CreateDispatch calls fail
	FailCreates int
}

// NewMockDispatcher creates an empty in-memory dispatcher
func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{dispatches: make(map[string][]*DispatchInfo)}
}

// CreateDispatch (mock) records a dispatch
func (m *MockDispatcher) CreateDispatch(ctx context.Context, roomName, agentName, metadata string) (*DispatchInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.creates++
	if m.FailCreates > 0 {
		m.FailCreates--
		return nil, fmt.Errorf("mock dispatch failure for room %s", roomName)
	}

	info := &DispatchInfo{
		ID:        "AD_mock_" + uuid.New().String(),
		AgentName: agentName,
		Room:      roomName,
		Metadata:  metadata,
	}
	m.dispatches[roomName] = append(m.dispatches[roomName], info)
	return info, nil
}

// ListDispatches (mock) returns recorded dispatches
func (m *MockDispatcher) ListDispatches(ctx context.Context, roomName string) ([]*DispatchInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*DispatchInfo, len(m.dispatches[roomName]))
	copy(out, m.dispatches[roomName])
	return out, nil
}

// CreateCalls returns how many CreateDispatch calls were made
func (m *MockDispatcher) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates
}
