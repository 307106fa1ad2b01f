package errors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalid           = errors.New("invalid")
	ErrConflict          = errors.New("conflict")
	ErrInternal          = errors.New("internal")
	ErrRetrieval         = errors.New("retrieval failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnavailable       = errors.New("ai provider unavailable")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}

// IsRetrieval reports whether err is a transient model-call failure the
// caller may retry.
func IsRetrieval(err error) bool {
	return errors.Is(err, ErrRetrieval)
}
