package engine

import "errors"

var (
	// ErrIdentityMissing aborts an event before any fact is read.
	ErrIdentityMissing = errors.New("engine: no user identity")
	// ErrUnknownEvent is returned for event types with no evaluation sequence.
	ErrUnknownEvent = errors.New("engine: unknown event type")
	// ErrPersist wraps the store error once retries are exhausted. The
	// outcome that accompanies it carries the previous badge state.
	ErrPersist = errors.New("engine: persisting badges failed")
	// ErrVersionConflict is returned by a BadgeStore when the stored
	// collection moved past the expected version. It is never retried.
	ErrVersionConflict = errors.New("engine: badge collection version conflict")
)
