package careevent

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReconciler(p Promoter, clk *clock) *Reconciler {
	r := NewReconciler(p, time.Hour, zerolog.New(io.Discard))
	r.now = clk.now
	return r
}

func TestReconciler_PromotesOverdueAndIsIdempotent(t *testing.T) {
	svc, store, clk := newTestService()
	ctx := context.Background()

	med, err := svc.CreateMedication(ctx, MedicationInput{CaregiverID: 2, PatientID: 5, Name: "A", Dosage: "1", ScheduledAt: "2026-03-10T10:00:00"})
	require.NoError(t, err)
	task, err := svc.CreateTask(ctx, TaskInput{CaregiverID: 2, PatientID: 5, Description: "Banho", Motivation: "Higiene", ScheduledAt: "2026-03-10T11:00:00"})
	require.NoError(t, err)
	done, err := svc.CreateTask(ctx, TaskInput{CaregiverID: 2, PatientID: 5, Description: "Curativo", Motivation: "Ferida", ScheduledAt: "2026-03-10T10:30:00"})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, KindTask, done.ID, "feita")
	require.NoError(t, err)

	clk.t = time.Date(2026, 3, 10, 12, 0, 0, 0, testLoc)
	r := newTestReconciler(store, clk)

	res, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, int64(1), res.Promoted[KindMedication])
	assert.Equal(t, int64(1), res.Promoted[KindTask])
	assert.Equal(t, int64(0), res.Promoted[KindAppointment])
	assert.Equal(t, int64(2), res.Total())

	res, err = r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Total(), "second sweep changes nothing")

	got, err := svc.Get(ctx, KindMedication, med.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusLate, got.Status)
	got, err = svc.Get(ctx, KindTask, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusLate, got.Status)
	got, err = svc.Get(ctx, KindTask, done.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, got.Status, "terminal statuses are never promoted")
}

func TestReconciler_ViewAgreesBeforeAndAfterSweep(t *testing.T) {
	svc, store, clk := newTestService()
	ctx := context.Background()

	e, err := svc.CreateAppointment(ctx, AppointmentInput{CaregiverID: 2, PatientID: 5, Specialty: "Geriatria",
		Doctor: "Dr. Paulo", Date: "2026-03-11", Time: "09:00"})
	require.NoError(t, err)

	clk.t = time.Date(2026, 3, 11, 9, 0, 1, 0, testLoc)

	before, err := svc.Get(ctx, KindAppointment, e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, before.Status)
	assert.Equal(t, "atrasada", before.Projection(svc.Now())["status"])
	assert.Equal(t, "pendente", before.Projection(svc.Now())["status_original"])

	_, err = newTestReconciler(store, clk).RunOnce(ctx)
	require.NoError(t, err)

	after, err := svc.Get(ctx, KindAppointment, e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusLate, after.Status)
	assert.Equal(t, "atrasada", after.Projection(svc.Now())["status"])
}

type failingPromoter struct {
	inner Promoter
	fail  Kind
}

func (f *failingPromoter) PromoteOverdue(ctx context.Context, kind Kind, now time.Time) (int64, error) {
	if kind == f.fail {
		return 0, errors.New("relation does not exist")
	}
	return f.inner.PromoteOverdue(ctx, kind, now)
}

func TestReconciler_OneKindFailing(t *testing.T) {
	svc, store, clk := newTestService()
	ctx := context.Background()

	_, err := svc.CreateMedication(ctx, MedicationInput{CaregiverID: 2, PatientID: 5, Name: "A", Dosage: "1", ScheduledAt: "2026-03-10T10:00:00"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, TaskInput{CaregiverID: 2, PatientID: 5, Description: "Banho", Motivation: "Higiene", ScheduledAt: "2026-03-10T10:00:00"})
	require.NoError(t, err)
	clk.t = clk.t.Add(2 * time.Hour)

	res, err := newTestReconciler(&failingPromoter{inner: store, fail: KindAppointment}, clk).RunOnce(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "promote consultas")
	assert.Equal(t, int64(1), res.Promoted[KindMedication])
	assert.Equal(t, int64(1), res.Promoted[KindTask])
	_, ok := res.Promoted[KindAppointment]
	assert.False(t, ok)
}

type stubLocker struct {
	acquired bool
	err      error
	unlocked int
	key      string
}

func (s *stubLocker) TryLock(_ context.Context, key string, _ time.Duration) (func(context.Context) error, bool, error) {
	s.key = key
	if s.err != nil || !s.acquired {
		return nil, false, s.err
	}
	return func(context.Context) error {
		s.unlocked++
		return nil
	}, true, nil
}

func TestReconciler_Locker(t *testing.T) {
	_, store, clk := newTestService()
	ctx := context.Background()

	held := &stubLocker{acquired: false}
	res, err := newTestReconciler(store, clk).WithLocker(held, time.Minute).RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, reconcileLockKey, held.key)

	free := &stubLocker{acquired: true}
	res, err = newTestReconciler(store, clk).WithLocker(free, time.Minute).RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Len(t, res.Promoted, len(Kinds))
	assert.Equal(t, 1, free.unlocked)

	broken := &stubLocker{err: errors.New("dial tcp: refused")}
	_, err = newTestReconciler(store, clk).WithLocker(broken, time.Minute).RunOnce(ctx)
	assert.Error(t, err)
}

func TestReconciler_StartStopsOnCancel(t *testing.T) {
	_, store, clk := newTestService()
	r := newTestReconciler(store, clk)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler did not stop")
	}
}
