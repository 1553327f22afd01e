package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/zainab674/project-plus-sub002/internal/domain/entities"
)

func steppingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := current
		current = current.Add(step)
		return t
	}
}

func fragment(typ entities.FragmentType, participant, text string) entities.TranscriptFragment {
	return entities.TranscriptFragment{Type: typ, ParticipantIdentity: participant, Text: text}
}

func TestSegmentStore_AppendAssignsTimestampAndSeq(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	store := NewSegmentStore(steppingClock(start, time.Second))

	first, err := store.Append("m1", fragment(entities.FragmentFinal, "alice", "hello"))
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	second, err := store.Append("m1", fragment(entities.FragmentInterim, "bob", "hi"))
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	if !first.Timestamp.Equal(start) || !second.Timestamp.Equal(start.Add(time.Second)) {
		t.Fatalf("unexpected timestamps %v %v", first.Timestamp, second.Timestamp)
	}
	if first.Seq != 0 || second.Seq != 1 {
		t.Fatalf("unexpected seq %d %d", first.Seq, second.Seq)
	}

	stats := store.Stats("m1")
	want := BufferStats{SegmentCount: 2, FinalSegments: 1, InterimSegments: 1, ParticipantCount: 2}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
}

func TestSegmentStore_AppendRejectsMalformed(t *testing.T) {
	store := NewSegmentStore(nil)

	cases := []struct {
		name      string
		meetingID string
		fragment  entities.TranscriptFragment
	}{
		{"missing meeting", "", fragment(entities.FragmentFinal, "alice", "x")},
		{"missing participant", "m1", fragment(entities.FragmentFinal, " ", "x")},
		{"empty text", "m1", fragment(entities.FragmentFinal, "alice", "   ")},
		{"unknown type", "m1", fragment("partial", "alice", "x")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.Append(tc.meetingID, tc.fragment)
			if !errors.Is(err, entities.ErrInvalidFragment) {
				t.Fatalf("expected ErrInvalidFragment, got %v", err)
			}
		})
	}

	if store.Has("m1") || store.Len() != 0 {
		t.Fatalf("malformed fragments must not create buffers")
	}
}

func TestSegmentStore_SnapshotAndClear(t *testing.T) {
	store := NewSegmentStore(nil)
	for i := 0; i < 3; i++ {
		if _, err := store.Append("m1", fragment(entities.FragmentFinal, "alice", fmt.Sprintf("t%d", i))); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	snapshot := store.SnapshotAndClear("m1")
	if len(snapshot) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(snapshot))
	}
	for i, f := range snapshot {
		if f.Text != fmt.Sprintf("t%d", i) {
			t.Fatalf("fragment %d out of order: %q", i, f.Text)
		}
	}

	if store.Has("m1") {
		t.Fatalf("buffer must be removed after snapshot")
	}
	if got := store.SnapshotAndClear("m1"); got != nil {
		t.Fatalf("second snapshot should be empty, got %d", len(got))
	}
	if stats := store.Stats("m1"); stats != (BufferStats{}) {
		t.Fatalf("stats after clear = %+v", stats)
	}
	if store.Has("m1") {
		t.Fatalf("Stats must not create a buffer")
	}
}

func TestSegmentStore_MeetingsAreIndependent(t *testing.T) {
	store := NewSegmentStore(nil)
	if _, err := store.Append("a", fragment(entities.FragmentFinal, "alice", "one")); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if _, err := store.Append("b", fragment(entities.FragmentFinal, "bob", "two")); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	store.SnapshotAndClear("a")

	if !store.Has("b") {
		t.Fatalf("clearing one meeting must not touch another")
	}
	if got := store.Stats("b").SegmentCount; got != 1 {
		t.Fatalf("expected 1 segment for b, got %d", got)
	}
}

func TestSegmentStore_ConcurrentAppendAndSnapshot(t *testing.T) {
	store := NewSegmentStore(nil)

	const writers = 8
	const perWriter = 500

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		collected []entities.TranscriptFragment
	)

	done := make(chan struct{})
	snapDone := make(chan struct{})
	go func() {
		defer close(snapDone)
		for {
			select {
			case <-done:
				return
			default:
			}
			snap := store.SnapshotAndClear("m1")
			mu.Lock()
			collected = append(collected, snap...)
			mu.Unlock()
		}
	}()

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				f := fragment(entities.FragmentFinal, fmt.Sprintf("p%d", w), "x")
				f.SegmentID = fmt.Sprintf("%d-%d", w, i)
				if _, err := store.Append("m1", f); err != nil {
					t.Errorf("append failed: %v", err)
					return
				}
			}
		}(w)
	}

	wg.Wait()
	close(done)
	<-snapDone
	collected = append(collected, store.SnapshotAndClear("m1")...)

	if len(collected) != writers*perWriter {
		t.Fatalf("expected %d fragments across snapshots, got %d", writers*perWriter, len(collected))
	}
	seen := make(map[string]bool, len(collected))
	for _, f := range collected {
		if seen[f.SegmentID] {
			t.Fatalf("fragment %s observed twice", f.SegmentID)
		}
		seen[f.SegmentID] = true
	}
}
