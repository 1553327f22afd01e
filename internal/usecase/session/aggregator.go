package session

import (
	"slices"
	"strings"

	"github.com/zainab674/project-plus-sub002/internal/domain/entities"
)

// Aggregate groups fragments per participant and builds the finalized text of
// each one from its final fragments in ingestion order. Interim fragments are
// dropped. Participants without final text get no entry.
func Aggregate(fragments []entities.TranscriptFragment) map[string]entities.FinalizedTranscript {
	sorted := slices.Clone(fragments)
	slices.SortStableFunc(sorted, compareFragments)

	parts := make(map[string][]string)
	out := make(map[string]entities.FinalizedTranscript)

	for _, f := range sorted {
		if !f.IsFinal() {
			continue
		}
		if strings.TrimSpace(f.Text) == "" {
			continue
		}

		t, seen := out[f.ParticipantIdentity]
		if !seen {
			t = entities.FinalizedTranscript{
				ParticipantIdentity: f.ParticipantIdentity,
				StartTime:           f.Timestamp,
			}
		}
		t.EndTime = f.Timestamp
		t.SegmentCount++
		if f.SegmentID != "" {
			t.SegmentIDs = append(t.SegmentIDs, f.SegmentID)
		}
		out[f.ParticipantIdentity] = t
		parts[f.ParticipantIdentity] = append(parts[f.ParticipantIdentity], f.Text)
	}

	for participant, t := range out {
		t.Text = normalizeWhitespace(strings.Join(parts[participant], " "))
		out[participant] = t
	}
	return out
}

// SortedParticipants returns the participants of an aggregation in a stable order
func SortedParticipants(transcripts map[string]entities.FinalizedTranscript) []string {
	keys := make([]string, 0, len(transcripts))
	for k := range transcripts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func compareFragments(a, b entities.TranscriptFragment) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	switch {
	case a.Seq < b.Seq:
		return -1
	case a.Seq > b.Seq:
		return 1
	}
	return 0
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
