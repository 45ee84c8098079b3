package dailylog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nidus/nidus/internal/platform/apperr"
)

// ActivitiesPolicy decides whether activity writes merge into the day's row
// like the other sections or always start a new row.
type ActivitiesPolicy uint8

const (
	ActivitiesUpsert ActivitiesPolicy = iota
	ActivitiesInsert
)

func ParseActivitiesPolicy(v string) (ActivitiesPolicy, error) {
	switch v {
	case "", "upsert":
		return ActivitiesUpsert, nil
	case "insert":
		return ActivitiesInsert, nil
	default:
		return 0, fmt.Errorf("unknown activities policy %q", v)
	}
}

type Service struct {
	store      Store
	loc        *time.Location
	activities ActivitiesPolicy
	now        func() time.Time
}

func NewService(store Store, loc *time.Location, activities ActivitiesPolicy) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, activities: activities, now: time.Now}
}

// dayWindow returns the bounds of the calendar day t falls in, in loc.
func dayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := t.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

func optional(v *string) interface{} {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return t
}

func (s *Service) save(ctx context.Context, patientID int64, section Section, alwaysInsert bool, values ...interface{}) (Result, error) {
	if patientID <= 0 {
		return Result{}, apperr.Validationf("paciente_id is required and must be a number")
	}
	now := s.now()
	start, end := dayWindow(now, s.loc)
	return s.store.Save(ctx, Write{
		PatientID:    patientID,
		Section:      section,
		Values:       values,
		At:           now,
		DayStart:     start,
		DayEnd:       end,
		AlwaysInsert: alwaysInsert,
	})
}

func (s *Service) SaveActivities(ctx context.Context, in ActivitiesInput) (Result, error) {
	return s.save(ctx, in.PatientID, SectionActivities, s.activities == ActivitiesInsert,
		optional(in.Activities), optional(in.OtherActivities), optional(in.GeneralNotes))
}

func (s *Service) SaveSentiment(ctx context.Context, in SentimentInput) (Result, error) {
	if in.PatientID <= 0 || strings.TrimSpace(in.Mood) == "" {
		return Result{}, apperr.Validationf("paciente_id and estado_geral are required")
	}
	return s.save(ctx, in.PatientID, SectionSentiment, false,
		strings.TrimSpace(in.Mood), optional(in.Notes))
}

func (s *Service) SaveVitals(ctx context.Context, in VitalsInput) (Result, error) {
	var temp, glucose interface{}
	if in.Temperature != nil {
		temp = *in.Temperature
	}
	if in.Glucose != nil {
		glucose = *in.Glucose
	}
	return s.save(ctx, in.PatientID, SectionVitals, false,
		temp, glucose, optional(in.BloodPressure), optional(in.OtherNotes))
}

// List returns logs newest first with data_formatada rendered in the server
// time zone.
func (s *Service) List(ctx context.Context, patientID *int64, limit, offset int) ([]*Entry, int, error) {
	items, total, err := s.store.List(ctx, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	for _, e := range items {
		e.Formatted = e.RecordedAt.In(s.loc).Format("02/01/2006 15:04")
	}
	return items, total, nil
}
