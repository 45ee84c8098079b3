package careevent

import (
	"context"
	"strings"
	"time"

	"github.com/nidus/nidus/internal/platform/apperr"
)

type Service struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

func NewService(store Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, now: time.Now}
}

// Now is the clock the service resolves statuses against.
func (s *Service) Now() time.Time {
	return s.now()
}

func missing(fields ...string) error {
	return apperr.Validationf("required fields: %s", strings.Join(fields, ", "))
}

func blank(v string) bool {
	return strings.TrimSpace(v) == ""
}

// notPast rejects instants strictly before the current time.
func (s *Service) notPast(at time.Time, kind Kind) error {
	if at.Before(s.now()) {
		return apperr.Validationf("cannot schedule a %s in the past", kind)
	}
	return nil
}

func (s *Service) CreateMedication(ctx context.Context, in MedicationInput) (*Event, error) {
	if in.CaregiverID <= 0 || in.PatientID <= 0 || blank(in.Name) || blank(in.Dosage) || blank(in.ScheduledAt) {
		return nil, missing("cuidador_id", "paciente_id", "medicamento_nome", "dosagem", "data_hora")
	}
	at, err := ParseInstant(in.ScheduledAt, s.loc)
	if err != nil {
		return nil, apperr.Validationf("%v", err)
	}
	if err := s.notPast(at, KindMedication); err != nil {
		return nil, err
	}

	e := &Event{
		Kind:        KindMedication,
		PatientID:   in.PatientID,
		CaregiverID: in.CaregiverID,
		ScheduledAt: at,
		Medication:  &Medication{Name: strings.TrimSpace(in.Name), Dosage: strings.TrimSpace(in.Dosage)},
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// CreateMedicationForPatientName resolves the patient by exact name and
// schedules the medication on the caller's behalf. A patient owned by another
// caregiver is rejected.
func (s *Service) CreateMedicationForPatientName(ctx context.Context, in NamedMedicationInput) (*Event, error) {
	if blank(in.PatientName) || blank(in.Name) || blank(in.Dosage) || blank(in.Date) || blank(in.Time) || in.CaregiverID <= 0 {
		return nil, missing("patient_name", "medication_name", "dosage", "date", "time", "cuidador_id")
	}
	at, err := CombineDateTime(in.Date, in.Time, s.loc)
	if err != nil {
		return nil, apperr.Validationf("%v", err)
	}

	p, err := s.store.FindPatientByName(ctx, strings.TrimSpace(in.PatientName))
	if err != nil {
		return nil, err
	}
	if p.CaregiverID != nil && *p.CaregiverID != in.CaregiverID {
		return nil, apperr.Forbiddenf("caregiver %d is not responsible for this patient", in.CaregiverID)
	}
	if err := s.notPast(at, KindMedication); err != nil {
		return nil, err
	}

	e := &Event{
		Kind:        KindMedication,
		PatientID:   p.ID,
		PatientName: strings.TrimSpace(in.PatientName),
		CaregiverID: in.CaregiverID,
		ScheduledAt: at,
		Medication:  &Medication{Name: strings.TrimSpace(in.Name), Dosage: strings.TrimSpace(in.Dosage)},
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// CreateAppointment schedules an appointment from a calendar date and a
// wall-clock time. When only hora_consulta is given it must be a full
// date-time.
func (s *Service) CreateAppointment(ctx context.Context, in AppointmentInput) (*Event, error) {
	if in.CaregiverID <= 0 || in.PatientID <= 0 || blank(in.Specialty) || blank(in.Doctor) || blank(in.Time) {
		return nil, missing("cuidador_id", "paciente_id", "especialidade", "medico_nome", "data_consulta", "hora_consulta")
	}
	visit, err := ParseVisitType(strings.TrimSpace(in.VisitType))
	if err != nil {
		return nil, apperr.Validationf("%v", err)
	}

	var at time.Time
	if blank(in.Date) {
		at, err = ParseInstant(in.Time, s.loc)
	} else {
		at, err = CombineDateTime(in.Date, in.Time, s.loc)
	}
	if err != nil {
		return nil, apperr.Validationf("%v", err)
	}
	if err := s.notPast(at, KindAppointment); err != nil {
		return nil, err
	}

	local := at.In(s.loc)
	e := &Event{
		Kind:        KindAppointment,
		PatientID:   in.PatientID,
		CaregiverID: in.CaregiverID,
		ScheduledAt: at,
		Appointment: &Appointment{
			VisitType: visit,
			Specialty: strings.TrimSpace(in.Specialty),
			Doctor:    strings.TrimSpace(in.Doctor),
			DoctorCRM: nonEmpty(in.DoctorCRM),
			Date:      local.Format("2006-01-02"),
			Time:      local.Format("15:04:05"),
			Location:  nonEmpty(in.Location),
			Address:   nonEmpty(in.Address),
		},
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) CreateTask(ctx context.Context, in TaskInput) (*Event, error) {
	if in.CaregiverID <= 0 || in.PatientID <= 0 || blank(in.Description) || blank(in.Motivation) || blank(in.ScheduledAt) {
		return nil, missing("cuidador_id", "paciente_id", "descricao", "motivacao", "data_tarefa")
	}
	at, err := ParseInstant(in.ScheduledAt, s.loc)
	if err != nil {
		return nil, apperr.Validationf("%v", err)
	}
	if err := s.notPast(at, KindTask); err != nil {
		return nil, err
	}

	e := &Event{
		Kind:        KindTask,
		PatientID:   in.PatientID,
		CaregiverID: in.CaregiverID,
		ScheduledAt: at,
		Task:        &Task{Description: strings.TrimSpace(in.Description), Motivation: strings.TrimSpace(in.Motivation)},
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateStatus overwrites the stored status. Any status may follow any other.
func (s *Service) UpdateStatus(ctx context.Context, kind Kind, id int64, raw string) (*Event, error) {
	status, err := ParseStatus(strings.TrimSpace(raw))
	if err != nil {
		return nil, apperr.Validationf("%v", err)
	}
	if id <= 0 {
		return nil, apperr.Validationf("invalid %s id", kind)
	}
	return s.store.UpdateStatus(ctx, kind, id, status)
}

func (s *Service) Get(ctx context.Context, kind Kind, id int64) (*Event, error) {
	return s.store.Get(ctx, kind, id)
}

// List returns the events of one kind, for one patient when patientID is
// non-nil.
func (s *Service) List(ctx context.Context, kind Kind, patientID *int64) ([]*Event, error) {
	if patientID != nil {
		return s.store.ListByPatient(ctx, kind, *patientID)
	}
	return s.store.ListAll(ctx, kind)
}

func nonEmpty(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
