package careevent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Promoter is the slice of Store the reconciler needs.
type Promoter interface {
	PromoteOverdue(ctx context.Context, kind Kind, now time.Time) (int64, error)
}

// Locker serialises sweeps across replicas. TryLock returns acquired=false
// without error when another replica holds key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, acquired bool, err error)
}

const reconcileLockKey = "careevent:reconcile"

// SweepResult reports one reconciler pass.
type SweepResult struct {
	Promoted map[Kind]int64
	// Skipped is set when another replica held the lock.
	Skipped bool
}

func (r SweepResult) Total() int64 {
	var n int64
	for _, v := range r.Promoted {
		n += v
	}
	return n
}

// Reconciler periodically persists the pending to late promotion for
// events whose scheduled instant has passed.
type Reconciler struct {
	store    Promoter
	interval time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	locker  Locker
	lockTTL time.Duration
}

func NewReconciler(store Promoter, interval time.Duration, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		interval: interval,
		logger:   logger.With().Str("component", "reconciler").Logger(),
		now:      time.Now,
	}
}

// WithLocker makes each sweep take a distributed lock first.
func (r *Reconciler) WithLocker(l Locker, ttl time.Duration) *Reconciler {
	r.locker = l
	r.lockTTL = ttl
	return r
}

// Start sweeps once immediately and then every interval until ctx is done.
func (r *Reconciler) Start(ctx context.Context) {
	r.logger.Info().Dur("interval", r.interval).Msg("reconciler started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("reconciler stopped")
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Reconciler) tick(ctx context.Context) {
	res, err := r.RunOnce(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("reconcile sweep failed")
	}
	if res.Skipped {
		r.logger.Debug().Msg("reconcile sweep skipped, lock held elsewhere")
	}
}

// RunOnce runs a single sweep over every kind. A failure on one kind does
// not stop the others; failures are returned joined and never retried.
func (r *Reconciler) RunOnce(ctx context.Context) (SweepResult, error) {
	res := SweepResult{Promoted: make(map[Kind]int64, len(Kinds))}

	if r.locker != nil {
		unlock, ok, err := r.locker.TryLock(ctx, reconcileLockKey, r.lockTTL)
		if err != nil {
			return res, fmt.Errorf("reconcile lock: %w", err)
		}
		if !ok {
			res.Skipped = true
			return res, nil
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				r.logger.Warn().Err(err).Msg("release reconcile lock")
			}
		}()
	}

	now := r.now()
	var errs []error
	for _, kind := range Kinds {
		n, err := r.store.PromoteOverdue(ctx, kind, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("promote %s: %w", kind.Plural(), err))
			continue
		}
		res.Promoted[kind] = n
		r.logger.Info().Str("kind", kind.Plural()).Int64("promoted", n).Msg("overdue events promoted")
	}
	return res, errors.Join(errs...)
}
