package peer

import (
	"errors"
	"fmt"
)

var (
	ErrMediaUnavailable = errors.New("local media unavailable")
	ErrNoSession        = errors.New("no negotiation session")
	ErrNoPendingOffer   = errors.New("no offer awaiting this answer")
	ErrSessionClosed    = errors.New("session closed")
	ErrBadDescription   = errors.New("malformed session description")
	ErrBadCandidate     = errors.New("malformed ice candidate")
	ErrNotNegotiated    = errors.New("session not negotiated")
)

// SessionError wraps a failure in one negotiation step. Every SessionError is
// recoverable: the session stays usable and a fresh offer cycle may retry.
type SessionError struct {
	Op      string
	Err     error
	Details string
}

func (e *SessionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *SessionError {
	return &SessionError{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *SessionError {
	return &SessionError{Op: op, Err: err, Details: details}
}
