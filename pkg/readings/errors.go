package readings

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEmptyMeterID       = errors.New("missing meter id")
	ErrEmptyBatch         = errors.New("empty batch")
	ErrMissingTimestamp   = errors.New("missing timestamp")
	ErrDuplicateTimestamp = errors.New("duplicate timestamp in batch")
	ErrNonMonotonic       = errors.New("non-monotonic value")
)

// RejectionError is returned when a batch is refused. The store is never
// modified when a RejectionError is returned.
type RejectionError struct {
	Reason error
	// Time is the timestamp of the offending reading, if there is one.
	Time time.Time
}

func (e *RejectionError) Error() string {
	if e.Time.IsZero() {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%s at time %s", e.Reason, e.Time.UTC().Format(time.RFC3339Nano))
}

func (e *RejectionError) Unwrap() error {
	return e.Reason
}

func reject(reason error, t time.Time) error {
	return &RejectionError{Reason: reason, Time: t}
}

// IsRejection reports whether err is a batch rejection.
func IsRejection(err error) bool {
	var rerr *RejectionError
	return errors.As(err, &rerr)
}
