package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrUnauthorized
	ErrForbidden
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrTooMany
	ErrInternal
	ErrRetrieval
	ErrInvalidTransition
	ErrAIUnavailable
)

var messages = map[int]string{
	ErrUnauthorized:      "unauthorized",
	ErrForbidden:         "forbidden",
	ErrNotFound:          "not found",
	ErrInvalid:           "invalid request",
	ErrConflict:          "conflict",
	ErrTooMany:           "too many requests",
	ErrInternal:          "internal error",
	ErrRetrieval:         "retrieval failed, retry later",
	ErrInvalidTransition: "invalid status transition",
	ErrAIUnavailable:     "ai provider unavailable",
}

// Message is the default text for code.
func Message(code int) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "unknown error"
}
