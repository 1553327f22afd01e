package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zainab674/project-plus-sub002/internal/domain/entities"
)

func TestMemorySummaryStore(t *testing.T) {
	mem := NewMemoryStore(0)
	defer mem.Close()
	store := NewMemorySummaryStore(mem)
	ctx := context.Background()

	if _, err := store.GetSummary(ctx, "m1"); !errors.Is(err, entities.ErrSessionSummaryNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	summary := &entities.SessionSummary{
		MeetingID:        "m1",
		SegmentCount:     4,
		ParticipantCount: 2,
		DurationSeconds:  65,
		EndTime:          time.Date(2024, 1, 1, 10, 1, 5, 0, time.UTC),
	}
	if err := store.SaveSummary(ctx, summary, time.Minute); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.GetSummary(ctx, "m1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.SegmentCount != 4 || got.DurationSeconds != 65 || !got.EndTime.Equal(summary.EndTime) {
		t.Fatalf("unexpected summary %+v", got)
	}
}

func TestMemorySummaryStore_Expires(t *testing.T) {
	mem := NewMemoryStore(0)
	defer mem.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mem.now = func() time.Time { return now }
	store := NewMemorySummaryStore(mem)
	ctx := context.Background()

	if err := store.SaveSummary(ctx, &entities.SessionSummary{MeetingID: "m1"}, time.Minute); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	now = now.Add(2 * time.Minute)

	if _, err := store.GetSummary(ctx, "m1"); !errors.Is(err, entities.ErrSessionSummaryNotFound) {
		t.Fatalf("expected expired summary, got %v", err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	mem := NewMemoryStore(time.Hour)
	defer mem.Close()

	mem.Set("k", "v", time.Minute)
	if v, ok := mem.Get("k"); !ok || v != "v" {
		t.Fatalf("expected value, got %q %v", v, ok)
	}
	mem.Delete("k")
	if _, ok := mem.Get("k"); ok {
		t.Fatalf("expected deleted key")
	}
}
