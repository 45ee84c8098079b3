package careevent

import (
	"context"
	"time"
)

// Store persists scheduled events. Every method takes the event kind and
// works against that kind's table.
type Store interface {
	// Create inserts e with stored status pending and fills in its id and
	// timestamps.
	Create(ctx context.Context, e *Event) error
	Get(ctx context.Context, kind Kind, id int64) (*Event, error)
	// UpdateStatus overwrites the stored status and returns the updated event.
	UpdateStatus(ctx context.Context, kind Kind, id int64, status Status) (*Event, error)
	// ListByPatient and ListAll order by patient name, then scheduled
	// instant descending.
	ListByPatient(ctx context.Context, kind Kind, patientID int64) ([]*Event, error)
	ListAll(ctx context.Context, kind Kind) ([]*Event, error)
	// PromoteOverdue sets every pending event scheduled before now to late
	// and returns how many rows changed.
	PromoteOverdue(ctx context.Context, kind Kind, now time.Time) (int64, error)
	FindPatientByName(ctx context.Context, name string) (*PatientRef, error)
}

// PatientRef is the slice of a patient row the scheduling paths need.
type PatientRef struct {
	ID          int64
	CaregiverID *int64
}
