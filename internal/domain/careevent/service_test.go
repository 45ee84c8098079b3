package careevent

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nidus/nidus/internal/platform/apperr"
)

// -- Mock Store --

type mockStore struct {
	mu       sync.Mutex
	nextID   int64
	events   map[Kind]map[int64]*Event
	patients map[int64]*mockPatient
}

type mockPatient struct {
	name        string
	caregiverID *int64
}

func newMockStore() *mockStore {
	return &mockStore{
		events:   map[Kind]map[int64]*Event{KindMedication: {}, KindAppointment: {}, KindTask: {}},
		patients: map[int64]*mockPatient{},
	}
}

func (m *mockStore) addPatient(id int64, name string, caregiverID *int64) {
	m.patients[id] = &mockPatient{name: name, caregiverID: caregiverID}
}

func (m *mockStore) count() int {
	n := 0
	for _, byID := range m.events {
		n += len(byID)
	}
	return n
}

func (m *mockStore) Create(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[e.PatientID]
	if !ok {
		return apperr.New(apperr.ForeignKey, e.Kind.String()+" references a record that does not exist")
	}
	m.nextID++
	e.ID = m.nextID
	e.Status = StatusPending
	e.PatientName = p.name
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	cp := *e
	m.events[e.Kind][e.ID] = &cp
	return nil
}

func (m *mockStore) Get(_ context.Context, kind Kind, id int64) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[kind][id]
	if !ok {
		return nil, apperr.NotFoundf("%s not found", kind)
	}
	cp := *e
	return &cp, nil
}

func (m *mockStore) UpdateStatus(_ context.Context, kind Kind, id int64, status Status) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[kind][id]
	if !ok {
		return nil, apperr.NotFoundf("%s not found", kind)
	}
	e.Status = status
	e.UpdatedAt = time.Now()
	cp := *e
	return &cp, nil
}

func (m *mockStore) sorted(kind Kind, keep func(*Event) bool) []*Event {
	var out []*Event
	for _, e := range m.events[kind] {
		if keep(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PatientName != out[j].PatientName {
			return out[i].PatientName < out[j].PatientName
		}
		return out[i].ScheduledAt.After(out[j].ScheduledAt)
	})
	return out
}

func (m *mockStore) ListByPatient(_ context.Context, kind Kind, patientID int64) ([]*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(kind, func(e *Event) bool { return e.PatientID == patientID }), nil
}

func (m *mockStore) ListAll(_ context.Context, kind Kind) ([]*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(kind, func(*Event) bool { return true }), nil
}

func (m *mockStore) PromoteOverdue(_ context.Context, kind Kind, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.events[kind] {
		if e.Status == StatusPending && e.ScheduledAt.Before(now) {
			e.Status = StatusLate
			n++
		}
	}
	return n, nil
}

func (m *mockStore) FindPatientByName(_ context.Context, name string) (*PatientRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.patients {
		if p.name == name {
			return &PatientRef{ID: id, CaregiverID: p.caregiverID}, nil
		}
	}
	return nil, apperr.NotFoundf("paciente not found")
}

// -- Helpers --

var testLoc = time.FixedZone("BRT", -3*60*60)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService() (*Service, *mockStore, *clock) {
	store := newMockStore()
	caregiver := int64(2)
	store.addPatient(5, "Maria Souza", &caregiver)
	store.addPatient(6, "João Lima", nil)

	clk := &clock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, testLoc)}
	svc := NewService(store, testLoc)
	svc.now = clk.now
	return svc, store, clk
}

func ptr(s string) *string { return &s }

// -- Tests --

func TestService_CreateMedication(t *testing.T) {
	svc, store, _ := newTestService()

	e, err := svc.CreateMedication(context.Background(), MedicationInput{
		CaregiverID: 2, PatientID: 5, Name: "Losartana", Dosage: "50mg", ScheduledAt: "2026-03-11T08:00:00",
	})
	require.NoError(t, err)
	assert.NotZero(t, e.ID)
	assert.Equal(t, StatusPending, e.Status)
	assert.Equal(t, "Losartana", e.Medication.Name)
	assert.True(t, e.ScheduledAt.Equal(time.Date(2026, 3, 11, 8, 0, 0, 0, testLoc)))
	assert.Equal(t, 1, store.count())

	view := e.Projection(svc.Now())
	assert.Equal(t, "pendente", view["status"])
	assert.Equal(t, "50mg", view["dosagem"])
}

func TestService_CreateRejectsPastInstant(t *testing.T) {
	svc, store, clk := newTestService()
	yesterday := clk.t.Add(-24 * time.Hour).Format("2006-01-02T15:04:05")

	_, err := svc.CreateMedication(context.Background(), MedicationInput{
		CaregiverID: 2, PatientID: 5, Name: "Losartana", Dosage: "50mg", ScheduledAt: yesterday,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = svc.CreateTask(context.Background(), TaskInput{
		CaregiverID: 2, PatientID: 5, Description: "Caminhada", Motivation: "Mobilidade", ScheduledAt: yesterday,
	})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = svc.CreateAppointment(context.Background(), AppointmentInput{
		CaregiverID: 2, PatientID: 5, Specialty: "Cardiologia", Doctor: "Dra. Ana",
		Date: "2026-03-10", Time: "08:59",
	})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err), "an earlier time today is still in the past")

	assert.Equal(t, 0, store.count(), "nothing may be persisted")
}

func TestService_CreateAcceptsCurrentInstant(t *testing.T) {
	svc, _, clk := newTestService()

	_, err := svc.CreateTask(context.Background(), TaskInput{
		CaregiverID: 2, PatientID: 5, Description: "Caminhada", Motivation: "Mobilidade",
		ScheduledAt: clk.t.Format(time.RFC3339),
	})
	assert.NoError(t, err)
}

func TestService_CreateValidation(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateMedication(ctx, MedicationInput{PatientID: 5, Name: "X", Dosage: "1", ScheduledAt: "2026-03-11T08:00:00"})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err), "missing cuidador_id")

	_, err = svc.CreateMedication(ctx, MedicationInput{CaregiverID: 2, PatientID: 5, Name: "X", Dosage: "1", ScheduledAt: "amanhã"})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err), "unparsable instant")

	_, err = svc.CreateTask(ctx, TaskInput{CaregiverID: 2, PatientID: 5, Description: " ", Motivation: "x", ScheduledAt: "2026-03-11T08:00:00"})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err), "blank descricao")

	_, err = svc.CreateAppointment(ctx, AppointmentInput{CaregiverID: 2, PatientID: 5, Specialty: "Geriatria", Doctor: "Dr. Paulo",
		Date: "2026-03-12", Time: "10:00", VisitType: "hospital"})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err), "bad tipo_consulta")

	assert.Equal(t, 0, store.count())
}

func TestService_CreateUnknownPatient(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateTask(context.Background(), TaskInput{
		CaregiverID: 2, PatientID: 404, Description: "Caminhada", Motivation: "Mobilidade", ScheduledAt: "2026-03-11T08:00:00",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.ForeignKey, apperr.KindOf(err))
	assert.Equal(t, 400, apperr.KindOf(err).HTTPStatus())
}

func TestService_CreateAppointment(t *testing.T) {
	svc, _, _ := newTestService()

	e, err := svc.CreateAppointment(context.Background(), AppointmentInput{
		CaregiverID: 2, PatientID: 5, Specialty: "Cardiologia", Doctor: "Dra. Ana",
		DoctorCRM: ptr("12345-SP"), Date: "2026-03-12", Time: "14:30", Location: ptr("  "),
	})
	require.NoError(t, err)
	a := e.Appointment
	assert.Equal(t, VisitInPerson, a.VisitType)
	assert.Equal(t, "2026-03-12", a.Date)
	assert.Equal(t, "14:30:00", a.Time)
	assert.Nil(t, a.Location, "blank optional fields are stored as null")
	assert.Equal(t, "12345-SP", *a.DoctorCRM)
	assert.True(t, e.ScheduledAt.Equal(time.Date(2026, 3, 12, 14, 30, 0, 0, testLoc)))
}

func TestService_CreateAppointment_FullDateTimeInTimeField(t *testing.T) {
	svc, _, _ := newTestService()

	e, err := svc.CreateAppointment(context.Background(), AppointmentInput{
		CaregiverID: 2, PatientID: 5, Specialty: "Ortopedia", Doctor: "Dr. Paulo",
		Time: "2026-03-15T16:00:00", VisitType: "telemedicina",
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", e.Appointment.Date)
	assert.Equal(t, "16:00:00", e.Appointment.Time)
	assert.Equal(t, VisitTelehealth, e.Appointment.VisitType)
}

func TestService_CreateMedicationForPatientName(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	in := NamedMedicationInput{PatientName: "Maria Souza", Name: "Metformina", Dosage: "850mg",
		Date: "2026-03-11", Time: "07:00", CaregiverID: 2}

	e, err := svc.CreateMedicationForPatientName(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(5), e.PatientID)
	assert.True(t, e.ScheduledAt.Equal(time.Date(2026, 3, 11, 7, 0, 0, 0, testLoc)))

	in.CaregiverID = 3
	_, err = svc.CreateMedicationForPatientName(ctx, in)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	in.PatientName = "Ninguém"
	_, err = svc.CreateMedicationForPatientName(ctx, in)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	orphan := NamedMedicationInput{PatientName: "João Lima", Name: "Dipirona", Dosage: "1g",
		Date: "2026-03-11", Time: "07:00", CaregiverID: 9}
	_, err = svc.CreateMedicationForPatientName(ctx, orphan)
	assert.NoError(t, err, "patients without an owner accept any caregiver")
}

func TestService_UpdateStatus(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	e, err := svc.CreateTask(ctx, TaskInput{CaregiverID: 2, PatientID: 5, Description: "Banho", Motivation: "Higiene",
		ScheduledAt: "2026-03-11T10:00:00"})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, KindTask, e.ID, "feita")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, updated.Status)

	// Transitions are unrestricted.
	updated, err = svc.UpdateStatus(ctx, KindTask, e.ID, "pendente")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, updated.Status)

	_, err = svc.UpdateStatus(ctx, KindTask, e.ID, "concluida")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = svc.UpdateStatus(ctx, KindTask, 999, "feita")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	_, err = svc.UpdateStatus(ctx, KindMedication, e.ID, "feita")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err), "ids are per kind")
}

func TestService_List(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	for _, at := range []string{"2026-03-11T08:00:00", "2026-03-13T08:00:00", "2026-03-12T08:00:00"} {
		_, err := svc.CreateMedication(ctx, MedicationInput{CaregiverID: 2, PatientID: 5, Name: "A", Dosage: "1", ScheduledAt: at})
		require.NoError(t, err)
	}
	_, err := svc.CreateMedication(ctx, MedicationInput{CaregiverID: 2, PatientID: 6, Name: "B", Dosage: "1", ScheduledAt: "2026-03-11T08:00:00"})
	require.NoError(t, err)

	all, err := svc.List(ctx, KindMedication, nil)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "João Lima", all[0].PatientName)

	pid := int64(5)
	mine, err := svc.List(ctx, KindMedication, &pid)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.True(t, mine[0].ScheduledAt.After(mine[1].ScheduledAt))
	assert.True(t, mine[1].ScheduledAt.After(mine[2].ScheduledAt))
}
