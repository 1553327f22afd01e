package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/zainab674/project-plus-sub002/internal/domain/entities"
)

// BufferStats holds live counters of one meeting buffer
type BufferStats struct {
	SegmentCount     int
	FinalSegments    int
	InterimSegments  int
	ParticipantCount int
}

type segmentBuffer struct {
	fragments    []entities.TranscriptFragment
	participants map[string]struct{}
	finals       int
	interims     int
	nextSeq      uint64
}

// SegmentStore buffers transcript fragments per meeting until the session ends.
//
// Every operation on a meeting runs inside xsync.MapOf.Compute, which holds the
// lock of the hash bucket owning that key only. Append and SnapshotAndClear are
// therefore linearizable per meeting while different meetings proceed in parallel.
type SegmentStore struct {
	buffers *xsync.MapOf[string, *segmentBuffer]
	now     func() time.Time
}

// NewSegmentStore creates an empty store. A nil clock defaults to time.Now.
func NewSegmentStore(now func() time.Time) *SegmentStore {
	if now == nil {
		now = time.Now
	}
	return &SegmentStore{
		buffers: xsync.NewMapOf[string, *segmentBuffer](),
		now:     now,
	}
}

// Append adds a fragment to the meeting buffer, creating the buffer if needed.
// The ingestion timestamp and arrival sequence are assigned here.
func (s *SegmentStore) Append(meetingID string, f entities.TranscriptFragment) (entities.TranscriptFragment, error) {
	if err := validateFragment(meetingID, f); err != nil {
		return f, err
	}

	s.buffers.Compute(meetingID, func(buf *segmentBuffer, loaded bool) (*segmentBuffer, bool) {
		if !loaded {
			buf = &segmentBuffer{participants: make(map[string]struct{})}
		}
		f.Timestamp = s.now()
		f.Seq = buf.nextSeq
		buf.nextSeq++

		buf.fragments = append(buf.fragments, f)
		buf.participants[f.ParticipantIdentity] = struct{}{}
		if f.IsFinal() {
			buf.finals++
		} else {
			buf.interims++
		}
		return buf, false
	})

	return f, nil
}

// SnapshotAndClear removes the meeting buffer and returns its fragments in
// arrival order. Appends racing with this call either land in the returned
// snapshot or in a fresh buffer, never both and never neither.
func (s *SegmentStore) SnapshotAndClear(meetingID string) []entities.TranscriptFragment {
	buf, ok := s.buffers.LoadAndDelete(meetingID)
	if !ok || buf == nil {
		return nil
	}
	return buf.fragments
}

// Stats returns the live counters of a meeting buffer without mutating it
func (s *SegmentStore) Stats(meetingID string) BufferStats {
	var stats BufferStats
	s.buffers.Compute(meetingID, func(buf *segmentBuffer, loaded bool) (*segmentBuffer, bool) {
		if !loaded {
			// delete=true on a missing key leaves the map untouched
			return nil, true
		}
		stats = BufferStats{
			SegmentCount:     len(buf.fragments),
			FinalSegments:    buf.finals,
			InterimSegments:  buf.interims,
			ParticipantCount: len(buf.participants),
		}
		return buf, false
	})
	return stats
}

// Has reports whether a buffer exists for the meeting
func (s *SegmentStore) Has(meetingID string) bool {
	_, ok := s.buffers.Load(meetingID)
	return ok
}

// Len returns the number of meetings currently buffered
func (s *SegmentStore) Len() int {
	return s.buffers.Size()
}

func validateFragment(meetingID string, f entities.TranscriptFragment) error {
	switch {
	case strings.TrimSpace(meetingID) == "":
		return fmt.Errorf("%w: meeting id is required", entities.ErrInvalidFragment)
	case strings.TrimSpace(f.ParticipantIdentity) == "":
		return fmt.Errorf("%w: participant identity is required", entities.ErrInvalidFragment)
	case strings.TrimSpace(f.Text) == "":
		return fmt.Errorf("%w: text is required", entities.ErrInvalidFragment)
	case !f.Type.Valid():
		return fmt.Errorf("%w: unknown type %q", entities.ErrInvalidFragment, f.Type)
	}
	return nil
}
