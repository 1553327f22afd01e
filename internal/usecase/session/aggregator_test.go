package session

import (
	"reflect"
	"testing"
	"time"

	"github.com/zainab674/project-plus-sub002/internal/domain/entities"
)

func stamped(typ entities.FragmentType, participant, text string, at time.Time, seq uint64) entities.TranscriptFragment {
	return entities.TranscriptFragment{
		Type:                typ,
		ParticipantIdentity: participant,
		Text:                text,
		Timestamp:           at,
		Seq:                 seq,
	}
}

func TestAggregate_GroupsFinalsPerParticipant(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	fragments := []entities.TranscriptFragment{
		stamped(entities.FragmentFinal, "A", "hello", t0, 0),
		stamped(entities.FragmentInterim, "A", "wor", t0.Add(time.Second), 1),
		stamped(entities.FragmentFinal, "A", "world", t0.Add(2*time.Second), 2),
		stamped(entities.FragmentFinal, "B", "hi", t0.Add(3*time.Second), 3),
	}

	got := Aggregate(fragments)
	if len(got) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(got))
	}

	a := got["A"]
	if a.Text != "hello world" {
		t.Fatalf("A text = %q", a.Text)
	}
	if !a.StartTime.Equal(t0) || !a.EndTime.Equal(t0.Add(2*time.Second)) {
		t.Fatalf("A window = %v..%v", a.StartTime, a.EndTime)
	}
	if a.SegmentCount != 2 {
		t.Fatalf("A segments = %d", a.SegmentCount)
	}
	if got["B"].Text != "hi" {
		t.Fatalf("B text = %q", got["B"].Text)
	}
}

func TestAggregate_InterimOnlyParticipantOmitted(t *testing.T) {
	t0 := time.Now()
	got := Aggregate([]entities.TranscriptFragment{
		stamped(entities.FragmentInterim, "A", "partial", t0, 0),
		stamped(entities.FragmentFinal, "B", "done", t0, 1),
	})
	if _, ok := got["A"]; ok {
		t.Fatalf("interim only participant must be omitted")
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 participant, got %d", len(got))
	}
}

func TestAggregate_NormalizesWhitespace(t *testing.T) {
	t0 := time.Now()
	got := Aggregate([]entities.TranscriptFragment{
		stamped(entities.FragmentFinal, "A", "  so   this ", t0, 0),
		stamped(entities.FragmentFinal, "A", "\tworks\n", t0, 1),
	})
	if got["A"].Text != "so this works" {
		t.Fatalf("text = %q", got["A"].Text)
	}
}

func TestAggregate_OrdersBySeqOnEqualTimestamps(t *testing.T) {
	t0 := time.Now()
	got := Aggregate([]entities.TranscriptFragment{
		stamped(entities.FragmentFinal, "A", "second", t0, 5),
		stamped(entities.FragmentFinal, "A", "first", t0, 2),
	})
	if got["A"].Text != "first second" {
		t.Fatalf("text = %q", got["A"].Text)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	t0 := time.Now()
	fragments := []entities.TranscriptFragment{
		stamped(entities.FragmentFinal, "A", "one", t0, 0),
		stamped(entities.FragmentFinal, "B", "two", t0, 1),
		stamped(entities.FragmentFinal, "A", "three", t0.Add(time.Millisecond), 2),
	}
	first := Aggregate(fragments)
	for i := 0; i < 10; i++ {
		if !reflect.DeepEqual(first, Aggregate(fragments)) {
			t.Fatalf("aggregation is not deterministic")
		}
	}
	if !reflect.DeepEqual(SortedParticipants(first), []string{"A", "B"}) {
		t.Fatalf("unexpected participant order %v", SortedParticipants(first))
	}
}

func TestAggregate_Empty(t *testing.T) {
	if got := Aggregate(nil); len(got) != 0 {
		t.Fatalf("expected empty aggregation, got %d", len(got))
	}
}
