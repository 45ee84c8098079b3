package dailylog

import "context"

type Store interface {
	// Save applies w in one transaction serialised per patient: it updates
	// the section's columns on the patient's row for the day if one exists,
	// and inserts a new row otherwise.
	Save(ctx context.Context, w Write) (Result, error)
	List(ctx context.Context, patientID *int64, limit, offset int) ([]*Entry, int, error)
}
