package entities

import "errors"

// Domain errors
var (
	// Meeting errors
	ErrInvalidTransition = errors.New("invalid meeting status transition")
	ErrMeetingNotFound   = errors.New("meeting not found")

	// Participant errors
	ErrParticipantNotFound = errors.New("participant not found")

	// Transcript errors
	ErrInvalidFragment = errors.New("invalid transcript fragment")

	// Session errors
	ErrSessionSummaryNotFound = errors.New("session summary not found")
)
