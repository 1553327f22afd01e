package errors

// ErrorCode identifies an AppError in API responses
type ErrorCode int32

const (
	ErrorCode_UNKNOWN ErrorCode = iota
	ErrorCode_INTERNAL
	ErrorCode_INVALID_ARGUMENT
	ErrorCode_PERMISSION_DENIED
	ErrorCode_UNAUTHENTICATED
	ErrorCode_INVALID_PAYLOAD
	ErrorCode_INVALID_WEBHOOK

	ErrorCode_MEETING_NOT_FOUND
	ErrorCode_MEETING_CLOSED
	ErrorCode_MEETING_INVALID_STATE
	ErrorCode_MEETING_ACCESS_DENIED
	ErrorCode_PARTICIPANT_NOT_FOUND

	ErrorCode_SESSION_SUMMARY_NOT_FOUND
	ErrorCode_SESSION_NOTHING_TO_RETRY

	ErrorCode_INTEGRATION_LIVEKIT_FAILED
	ErrorCode_INTEGRATION_DISPATCH_FAILED
	ErrorCode_INTEGRATION_CACHE_FAILED

	ErrorCode_DB_QUERY_FAILED
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_UNKNOWN:                     "UNKNOWN",
	ErrorCode_INTERNAL:                    "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:            "INVALID_ARGUMENT",
	ErrorCode_PERMISSION_DENIED:           "PERMISSION_DENIED",
	ErrorCode_UNAUTHENTICATED:             "UNAUTHENTICATED",
	ErrorCode_INVALID_PAYLOAD:             "INVALID_PAYLOAD",
	ErrorCode_INVALID_WEBHOOK:             "INVALID_WEBHOOK",
	ErrorCode_MEETING_NOT_FOUND:           "MEETING_NOT_FOUND",
	ErrorCode_MEETING_CLOSED:              "MEETING_CLOSED",
	ErrorCode_MEETING_INVALID_STATE:       "MEETING_INVALID_STATE",
	ErrorCode_MEETING_ACCESS_DENIED:       "MEETING_ACCESS_DENIED",
	ErrorCode_PARTICIPANT_NOT_FOUND:       "PARTICIPANT_NOT_FOUND",
	ErrorCode_SESSION_SUMMARY_NOT_FOUND:   "SESSION_SUMMARY_NOT_FOUND",
	ErrorCode_SESSION_NOTHING_TO_RETRY:    "SESSION_NOTHING_TO_RETRY",
	ErrorCode_INTEGRATION_LIVEKIT_FAILED:  "INTEGRATION_LIVEKIT_FAILED",
	ErrorCode_INTEGRATION_DISPATCH_FAILED: "INTEGRATION_DISPATCH_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:    "INTEGRATION_CACHE_FAILED",
	ErrorCode_DB_QUERY_FAILED:             "DB_QUERY_FAILED",
}

// String returns the wire name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return errorCodeNames[ErrorCode_UNKNOWN]
}
