package roster

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownDutyType = errors.New("unknown duty type")
	ErrEventNotFound   = errors.New("duty event not found")
	ErrWorkerNotFound  = errors.New("worker not found")
	ErrInvalidPattern  = errors.New("invalid duty pattern")
	ErrInvalidDutyType = errors.New("invalid duty type")
	ErrDuplicateEvent  = errors.New("duplicate event id")
)

// DutyTypeError reports a malformed duty type table entry.
type DutyTypeError struct {
	Index  int
	ID     int
	Reason string
}

func (e *DutyTypeError) Error() string {
	return fmt.Sprintf("duty type %d (id %d): %s", e.Index, e.ID, e.Reason)
}

func (e *DutyTypeError) Unwrap() error { return ErrInvalidDutyType }

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownDutyType) ||
		errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrInvalidPattern) ||
		errors.Is(err, ErrDuplicateEvent)
}
