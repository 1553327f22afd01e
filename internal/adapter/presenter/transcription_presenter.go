package presenter

import (
	"github.com/zainab674/project-plus-sub002/internal/adapter/dto/transcription"
	"github.com/zainab674/project-plus-sub002/internal/domain/entities"
	"github.com/zainab674/project-plus-sub002/internal/usecase/session"
)

// ToStatsResponse converts session stats
func ToStatsResponse(s session.Stats) transcription.StatsResponse {
	return transcription.StatsResponse{
		MeetingID:             s.MeetingID,
		TranscriptionCount:    s.SegmentCount,
		ParticipantCount:      s.ParticipantCount,
		FinalTranscriptions:   s.FinalSegments,
		InterimTranscriptions: s.InterimSegments,
		DurationSeconds:       s.DurationSeconds,
		StartTime:             s.StartTime,
		EndTime:               s.EndTime,
		Active:                s.Active,
	}
}

// ToStartResponse converts the result of opening a session
func ToStartResponse(r *session.StartResult) *transcription.StartResponse {
	return &transcription.StartResponse{
		MeetingID:        r.MeetingID,
		StartedAt:        r.StartedAt,
		Restarted:        r.Restarted,
		DiscardedSeconds: r.DiscardedSeconds,
	}
}

// ToEndResponse converts the result of ending a session
func ToEndResponse(meetingID string, r *session.EndResult) *transcription.EndResponse {
	response := &transcription.EndResponse{
		MeetingID:  meetingID,
		Statistics: ToStatsResponse(r.Stats),
		Saved:      len(r.Transcripts) - len(r.Failed),
		Failed:     ToFailedResponses(r.Failed),
		Completed:  r.Completed,
		Noop:       r.Noop,
	}
	if r.CompletionError != nil {
		response.CompletionError = r.CompletionError.Error()
	}
	return response
}

// ToFailedResponses converts transcripts that could not be persisted.
// They carry everything needed to retry.
func ToFailedResponses(failed []session.FailedTranscript) []transcription.TranscriptResponse {
	if len(failed) == 0 {
		return nil
	}
	out := make([]transcription.TranscriptResponse, 0, len(failed))
	for _, f := range failed {
		out = append(out, transcription.TranscriptResponse{
			Participant:  f.Transcript.ParticipantIdentity,
			Text:         f.Transcript.Text,
			StartTime:    f.Transcript.StartTime,
			EndTime:      f.Transcript.EndTime,
			SegmentCount: f.Transcript.SegmentCount,
			Error:        f.Err.Error(),
		})
	}
	return out
}

// ToSummaryResponse converts a completed session summary
func ToSummaryResponse(s *entities.SessionSummary) *transcription.SummaryResponse {
	return &transcription.SummaryResponse{
		MeetingID:          s.MeetingID,
		TranscriptionCount: s.SegmentCount,
		ParticipantCount:   s.ParticipantCount,
		TranscriptCount:    s.TranscriptCount,
		DurationSeconds:    s.DurationSeconds,
		StartTime:          s.StartTime,
		EndTime:            s.EndTime,
		FailedParticipants: s.FailedParticipants,
		CompletedBy:        s.CompletedBy,
	}
}

// ToStoredTranscriptResponses converts persisted transcript rows
func ToStoredTranscriptResponses(rows []*entities.MeetingTranscript) []*transcription.StoredTranscriptResponse {
	out := make([]*transcription.StoredTranscriptResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, &transcription.StoredTranscriptResponse{
			ID:                    r.ID.String(),
			MeetingID:             r.MeetingID,
			Participant:           r.ParticipantIdentity,
			Transcribe:            r.Transcribe,
			IsSystemTranscription: r.IsSystemTranscription,
			StartTime:             r.StartTime,
			EndTime:               r.EndTime,
			CreatedAt:             r.CreatedAt,
		})
	}
	return out
}

// ToFragment converts the agent payload into a fragment. The timestamp is
// assigned on ingestion.
func ToFragment(d transcription.TranscriptionData) entities.TranscriptFragment {
	return entities.TranscriptFragment{
		Type:                entities.FragmentType(d.Type),
		ParticipantIdentity: d.Participant,
		Text:                d.Text,
		SegmentID:           d.SegmentID,
		TrackSID:            d.TrackSID,
	}
}

// ToFinalizedTranscripts converts a retry request
func ToFinalizedTranscripts(req transcription.RetryRequest) []entities.FinalizedTranscript {
	out := make([]entities.FinalizedTranscript, 0, len(req.Transcripts))
	for _, t := range req.Transcripts {
		out = append(out, entities.FinalizedTranscript{
			ParticipantIdentity: t.Participant,
			Text:                t.Text,
			StartTime:           t.StartTime,
			EndTime:             t.EndTime,
		})
	}
	return out
}
