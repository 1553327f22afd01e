package meeting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zainab674/project-plus-sub002/internal/domain/entities"
	"github.com/zainab674/project-plus-sub002/internal/domain/repositories"
	"github.com/zainab674/project-plus-sub002/internal/infrastructure/external/livekit"
	"github.com/zainab674/project-plus-sub002/internal/usecase/dispatch"
	usecaseErrors "github.com/zainab674/project-plus-sub002/internal/usecase/errors"
)

// MeetingService handles meeting business logic
type MeetingService struct {
	meetingRepo     repositories.MeetingRepository
	participantRepo repositories.ParticipantRepository
	transcriptRepo  repositories.TranscriptRepository
	livekitClient   livekit.Client
	coordinator     *dispatch.Coordinator
	livekitURL      string
	logger          *zap.Logger
}

// NewMeetingService creates a new meeting service
func NewMeetingService(
	meetingRepo repositories.MeetingRepository,
	participantRepo repositories.ParticipantRepository,
	transcriptRepo repositories.TranscriptRepository,
	livekitClient livekit.Client,
	coordinator *dispatch.Coordinator,
	livekitURL string,
	logger *zap.Logger,
) *MeetingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeetingService{
		meetingRepo:     meetingRepo,
		participantRepo: participantRepo,
		transcriptRepo:  transcriptRepo,
		livekitClient:   livekitClient,
		coordinator:     coordinator,
		livekitURL:      livekitURL,
		logger:          logger,
	}
}

// CreateMeeting creates a new meeting
func (s *MeetingService) CreateMeeting(ctx context.Context, input CreateMeetingInput) (*entities.Meeting, error) {
	if strings.TrimSpace(input.Heading) == "" || strings.TrimSpace(input.CreatorID) == "" {
		return nil, fmt.Errorf("%w: heading and creator are required", usecaseErrors.ErrInvalidInput)
	}

	meeting := entities.NewMeeting(input.Heading, input.Description, input.CreatorID, input.IsScheduled)
	meeting.TaskID = input.TaskID
	meeting.ProjectID = input.ProjectID
	meeting.Date = input.Date
	meeting.Time = input.Time

	seen := make(map[string]bool, len(input.ParticipantIDs))
	for _, userID := range input.ParticipantIDs {
		userID = strings.TrimSpace(userID)
		if userID == "" || seen[userID] {
			continue
		}
		seen[userID] = true
		meeting.Participants = append(meeting.Participants, entities.NewMeetingParticipant(meeting.ID, userID))
	}

	if err := s.meetingRepo.Create(ctx, meeting); err != nil {
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}

	s.logger.Info("Meeting created",
		zap.String("meeting_id", meeting.ID),
		zap.String("creator_id", meeting.UserID),
		zap.String("status", string(meeting.Status)),
		zap.Int("participants", len(meeting.Participants)))

	return meeting, nil
}

// GetMeeting retrieves a meeting by ID
func (s *MeetingService) GetMeeting(ctx context.Context, meetingID string) (*entities.Meeting, error) {
	meeting, err := s.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, entities.ErrMeetingNotFound) {
			return nil, usecaseErrors.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return meeting, nil
}

// ListMeetings retrieves meetings created by or involving the user
func (s *MeetingService) ListMeetings(ctx context.Context, userID string, isScheduled *bool) ([]*entities.Meeting, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", usecaseErrors.ErrInvalidInput)
	}
	meetings, err := s.meetingRepo.ListForUser(ctx, userID, isScheduled)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	return meetings, nil
}

// Vote records a participant's answer to the meeting invitation
func (s *MeetingService) Vote(ctx context.Context, meetingID, userID string, accept bool) (*entities.MeetingParticipant, error) {
	if meetingID == "" || userID == "" {
		return nil, fmt.Errorf("%w: meeting id and user id are required", usecaseErrors.ErrInvalidInput)
	}

	participant, err := s.participantRepo.FindByMeetingAndUser(ctx, meetingID, userID)
	if err != nil {
		if errors.Is(err, entities.ErrParticipantNotFound) {
			return nil, usecaseErrors.ErrParticipantMissing
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	participant.Vote = entities.VoteFromFlag(accept)
	if err := s.participantRepo.UpdateVote(ctx, participant.ID.String(), participant.Vote); err != nil {
		return nil, fmt.Errorf("failed to record vote: %w", err)
	}

	s.logger.Info("Vote recorded",
		zap.String("meeting_id", meetingID),
		zap.String("user_id", userID),
		zap.String("vote", string(participant.Vote)))

	return participant, nil
}

// Join issues a room token and makes sure the transcription agent is present
func (s *MeetingService) Join(ctx context.Context, input JoinInput) (*JoinOutput, error) {
	meeting, err := s.memberMeeting(ctx, input.MeetingID, input.UserID)
	if err != nil {
		return nil, err
	}
	if meeting.IsTerminal() {
		return nil, fmt.Errorf("%w: status %s", usecaseErrors.ErrMeetingClosed, meeting.Status)
	}

	roomName := dispatch.RoomName(meeting.ID)
	name := input.DisplayName
	if name == "" {
		name = input.UserID
	}

	token, err := s.livekitClient.GenerateToken(input.UserID, roomName, name, livekit.DefaultTokenOptions())
	if err != nil {
		s.logger.Error("Failed to generate LiveKit token",
			zap.String("meeting_id", meeting.ID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrLivekitToken, err)
	}

	output := &JoinOutput{
		Token:     token,
		RoomName:  roomName,
		ServerURL: s.livekitURL,
		Meeting:   meeting,
	}

	if _, err := s.livekitClient.CreateRoom(ctx, roomName, &livekit.CreateRoomOptions{
		EmptyTimeout:     300,
		DepartureTimeout: 30,
		Metadata:         meeting.ID,
	}); err != nil {
		output.Warnings = append(output.Warnings, "room could not be created ahead of join")
		s.logger.Warn("Failed to create LiveKit room",
			zap.String("room", roomName),
			zap.Error(err))
	}

	result, err := s.coordinator.EnsureAgentPresent(ctx, roomName, s.dispatchMetadata(meeting, input.UserID))
	if err != nil {
		output.Warnings = append(output.Warnings, "transcription agent unavailable")
	} else {
		output.Dispatch = result
	}

	s.logger.Info("Meeting joined",
		zap.String("meeting_id", meeting.ID),
		zap.String("user_id", input.UserID),
		zap.String("room", roomName),
		zap.Int("warnings", len(output.Warnings)))

	return output, nil
}

// DispatchAgent explicitly dispatches the transcription agent
func (s *MeetingService) DispatchAgent(ctx context.Context, meetingID, userID string) (*dispatch.EnsureResult, error) {
	meeting, err := s.memberMeeting(ctx, meetingID, userID)
	if err != nil {
		return nil, err
	}
	return s.coordinator.EnsureAgentPresent(ctx, dispatch.RoomName(meeting.ID), s.dispatchMetadata(meeting, userID))
}

// DispatchStatus lists the dispatches of the meeting room
func (s *MeetingService) DispatchStatus(ctx context.Context, meetingID, userID string) (*DispatchStatus, error) {
	meeting, err := s.memberMeeting(ctx, meetingID, userID)
	if err != nil {
		return nil, err
	}

	roomName := dispatch.RoomName(meeting.ID)
	dispatches, err := s.coordinator.ListDispatches(ctx, roomName)
	if err != nil {
		return nil, err
	}

	status := &DispatchStatus{
		RoomName:   roomName,
		AgentName:  s.coordinator.AgentName(),
		Dispatches: dispatches,
	}
	for _, d := range dispatches {
		if d.AgentName == status.AgentName {
			status.IsDispatched = true
			break
		}
	}

	participants, err := s.livekitClient.ListParticipants(ctx, roomName)
	if err != nil {
		s.logger.Warn("Failed to list room participants",
			zap.String("room", roomName),
			zap.Error(err))
		return status, nil
	}
	for _, p := range participants {
		if p.IsAgent {
			status.AgentConnected = true
			break
		}
	}
	return status, nil
}

// ListTranscripts retrieves the persisted transcripts of a meeting
func (s *MeetingService) ListTranscripts(ctx context.Context, meetingID string) ([]*entities.MeetingTranscript, error) {
	if meetingID == "" {
		return nil, fmt.Errorf("%w: meeting id is required", usecaseErrors.ErrInvalidInput)
	}
	transcripts, err := s.transcriptRepo.ListByMeeting(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	return transcripts, nil
}

func (s *MeetingService) memberMeeting(ctx context.Context, meetingID, userID string) (*entities.Meeting, error) {
	if meetingID == "" || userID == "" {
		return nil, fmt.Errorf("%w: meeting id and user id are required", usecaseErrors.ErrInvalidInput)
	}
	meeting, err := s.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if !meeting.IsMember(userID) {
		return nil, usecaseErrors.ErrNotMeetingMember
	}
	return meeting, nil
}

func (s *MeetingService) dispatchMetadata(meeting *entities.Meeting, userID string) dispatch.Metadata {
	return dispatch.Metadata{
		"meeting_id":          meeting.ID,
		"user_id":             userID,
		"source":              "api",
		"meeting_title":       meeting.Heading,
		"meeting_description": meeting.Description,
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
	}
}
