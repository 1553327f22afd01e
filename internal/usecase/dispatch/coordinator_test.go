package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/zainab674/project-plus-sub002/internal/infrastructure/external/livekit"
	usecaseErrors "github.com/zainab674/project-plus-sub002/internal/usecase/errors"
)

type brokenDispatcher struct{}

func (brokenDispatcher) CreateDispatch(ctx context.Context, roomName, agentName, metadata string) (*livekit.DispatchInfo, error) {
	return nil, errors.New("unreachable")
}

func (brokenDispatcher) ListDispatches(ctx context.Context, roomName string) ([]*livekit.DispatchInfo, error) {
	return nil, errors.New("unreachable")
}

func TestEnsureAgentPresent_DispatchesOnce(t *testing.T) {
	mock := livekit.NewMockDispatcher()
	c := NewCoordinator(mock, Config{}, zaptest.NewLogger(t))
	ctx := context.Background()

	first, err := c.EnsureAgentPresent(ctx, "meeting-1", Metadata{"meeting_id": "1"})
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if !first.Created || first.Dispatch.AgentName != DefaultAgentName {
		t.Fatalf("unexpected first result %+v", first)
	}
	if first.Dispatch.Metadata != `{"meeting_id":"1"}` {
		t.Fatalf("metadata not passed through: %s", first.Dispatch.Metadata)
	}

	second, err := c.EnsureAgentPresent(ctx, "meeting-1", Metadata{"meeting_id": "1"})
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if second.Created || second.Dispatch.ID != first.Dispatch.ID {
		t.Fatalf("second ensure must reuse the dispatch, got %+v", second)
	}
	if mock.CreateCalls() != 1 {
		t.Fatalf("expected 1 create call, got %d", mock.CreateCalls())
	}
}

func TestEnsureAgentPresent_ConcurrentCallers(t *testing.T) {
	mock := livekit.NewMockDispatcher()
	c := NewCoordinator(mock, Config{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.EnsureAgentPresent(context.Background(), "meeting-2", nil); err != nil {
				t.Errorf("ensure failed: %v", err)
			}
		}()
	}
	wg.Wait()

	dispatches, err := c.ListDispatches(context.Background(), "meeting-2")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(dispatches) != 1 || mock.CreateCalls() != 1 {
		t.Fatalf("expected a single dispatch, got %d (creates=%d)", len(dispatches), mock.CreateCalls())
	}
}

func TestEnsureAgentPresent_RetriesCreate(t *testing.T) {
	mock := livekit.NewMockDispatcher()
	mock.FailCreates = 2
	c := NewCoordinator(mock, Config{MaxElapsed: 5 * time.Second}, nil)

	res, err := c.EnsureAgentPresent(context.Background(), "meeting-3", nil)
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if !res.Created || mock.CreateCalls() != 3 {
		t.Fatalf("expected success on third attempt, creates=%d", mock.CreateCalls())
	}
}

func TestEnsureAgentPresent_ReportsFailure(t *testing.T) {
	c := NewCoordinator(brokenDispatcher{}, Config{MaxElapsed: 300 * time.Millisecond}, nil)

	_, err := c.EnsureAgentPresent(context.Background(), "meeting-4", nil)
	if !errors.Is(err, usecaseErrors.ErrDispatchFailed) {
		t.Fatalf("expected ErrDispatchFailed, got %v", err)
	}

	if _, err := c.IsDispatched(context.Background(), "meeting-4", DefaultAgentName); !errors.Is(err, usecaseErrors.ErrDispatchListing) {
		t.Fatalf("expected ErrDispatchListing, got %v", err)
	}
}

func TestEnsureAgentPresent_RequiresRoom(t *testing.T) {
	c := NewCoordinator(livekit.NewMockDispatcher(), Config{}, nil)
	if _, err := c.EnsureAgentPresent(context.Background(), " ", nil); !errors.Is(err, usecaseErrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIsDispatched(t *testing.T) {
	mock := livekit.NewMockDispatcher()
	c := NewCoordinator(mock, Config{AgentName: "scribe"}, nil)
	ctx := context.Background()

	ok, err := c.IsDispatched(ctx, "meeting-5", "scribe")
	if err != nil || ok {
		t.Fatalf("expected no dispatch, got %v %v", ok, err)
	}
	if _, err := c.EnsureAgentPresent(ctx, "meeting-5", nil); err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if ok, _ := c.IsDispatched(ctx, "meeting-5", "scribe"); !ok {
		t.Fatalf("expected scribe to be dispatched")
	}
	if ok, _ := c.IsDispatched(ctx, "meeting-5", "other"); ok {
		t.Fatalf("other agent must not be reported")
	}
}

func TestRoomName(t *testing.T) {
	room := RoomName("abc-123")
	if room != "meeting-abc-123" {
		t.Fatalf("room = %s", room)
	}
	id, ok := MeetingIDFromRoom(room)
	if !ok || id != "abc-123" {
		t.Fatalf("round trip failed: %s %v", id, ok)
	}
	if _, ok := MeetingIDFromRoom("lobby"); ok {
		t.Fatalf("foreign room must not parse")
	}
	if _, ok := MeetingIDFromRoom("meeting-"); ok {
		t.Fatalf("empty id must not parse")
	}
}

// gatedDispatcher blocks CreateDispatch until released
type gatedDispatcher struct {
	*livekit.MockDispatcher
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedDispatcher) CreateDispatch(ctx context.Context, roomName, agentName, metadata string) (*livekit.DispatchInfo, error) {
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.MockDispatcher.CreateDispatch(ctx, roomName, agentName, metadata)
}

func TestEnsureAgentPresent_CanceledCallerDoesNotFailOthers(t *testing.T) {
	gate := &gatedDispatcher{
		MockDispatcher: livekit.NewMockDispatcher(),
		entered:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	c := NewCoordinator(gate, Config{MaxElapsed: 5 * time.Second}, zaptest.NewLogger(t))

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.EnsureAgentPresent(leaderCtx, "meeting-6", nil)
		leaderErr <- err
	}()
	<-gate.entered

	type outcome struct {
		res *EnsureResult
		err error
	}
	follower := make(chan outcome, 1)
	go func() {
		res, err := c.EnsureAgentPresent(context.Background(), "meeting-6", nil)
		follower <- outcome{res, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelLeader()
	if err := <-leaderErr; !errors.Is(err, usecaseErrors.ErrDispatchFailed) {
		t.Fatalf("canceled caller should give up, got %v", err)
	}

	close(gate.release)
	got := <-follower
	if got.err != nil {
		t.Fatalf("waiting caller must still get the dispatch: %v", got.err)
	}
	if got.res.Dispatch == nil || gate.CreateCalls() != 1 {
		t.Fatalf("expected one shared dispatch, got %+v creates=%d", got.res, gate.CreateCalls())
	}
}
