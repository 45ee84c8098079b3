package careevent

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a scheduled care event. The zero value is
// not a valid status.
type Status uint8

const (
	StatusPending Status = iota + 1
	StatusLate
	StatusDone
	StatusCancelled
)

// Statuses lists every valid status in declaration order.
var Statuses = []Status{StatusPending, StatusLate, StatusDone, StatusCancelled}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pendente"
	case StatusLate:
		return "atrasada"
	case StatusDone:
		return "feita"
	case StatusCancelled:
		return "cancelada"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusLate, StatusDone, StatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status is never changed automatically.
func (s Status) Terminal() bool {
	switch s {
	case StatusDone, StatusCancelled:
		return true
	case StatusPending, StatusLate:
		return false
	default:
		return false
	}
}

func ParseStatus(v string) (Status, error) {
	for _, s := range Statuses {
		if s.String() == v {
			return s, nil
		}
	}
	return 0, fmt.Errorf("invalid status %q: use pendente, atrasada, feita or cancelada", v)
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", s)
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Resolve returns the status a reader should see for an event scheduled at
// scheduledAt whose stored status is stored. Done and cancelled are sticky;
// a pending event whose instant has passed reads as late even before the
// reconciler persists it.
func Resolve(scheduledAt time.Time, stored Status, now time.Time) Status {
	switch stored {
	case StatusDone, StatusCancelled:
		return stored
	case StatusPending:
		if scheduledAt.Before(now) {
			return StatusLate
		}
		return StatusPending
	case StatusLate:
		return StatusLate
	default:
		return stored
	}
}
