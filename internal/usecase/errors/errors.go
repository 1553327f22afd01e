package errors

import "errors"

// Common errors
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInternalError = errors.New("internal server error")
)

// Meeting errors
var (
	ErrMeetingNotFound    = errors.New("meeting not found")
	ErrMeetingClosed      = errors.New("meeting is canceled or completed")
	ErrInvalidTransition  = errors.New("meeting status does not allow this operation")
	ErrNotMeetingMember   = errors.New("user is neither creator nor participant of this meeting")
	ErrParticipantMissing = errors.New("participant not found")
)

// Session errors
var (
	ErrSummaryNotFound = errors.New("no completed session summary")
	ErrNothingToRetry  = errors.New("no transcripts to persist")
)

// LiveKit errors
var (
	ErrLivekitToken    = errors.New("failed to generate LiveKit token")
	ErrDispatchFailed  = errors.New("agent dispatch failed")
	ErrDispatchListing = errors.New("failed to list agent dispatches")
)
