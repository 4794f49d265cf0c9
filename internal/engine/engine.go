// Package engine turns domain events into badge evaluations. Each event runs
// an ordered list of badge families against one working copy of the user's
// collection, stops at the first unlock, and writes the result at most once.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"nycexplorer/internal/activity"
	"nycexplorer/internal/badges"
	"nycexplorer/internal/events"
	"nycexplorer/internal/logging"
	"nycexplorer/internal/metrics"
	"nycexplorer/internal/userlock"
)

// BadgeStore persists one badge collection per user. A user with nothing
// stored loads as an empty collection at version 0.
type BadgeStore interface {
	LoadBadges(ctx context.Context, userID string) (badges.Collection, int64, error)
	// SaveBadges replaces the whole collection if the stored version still
	// equals expected, returning the new version. Otherwise it returns
	// ErrVersionConflict.
	SaveBadges(ctx context.Context, userID string, c badges.Collection, expected int64) (int64, error)
}

// Outcome is what a caller receives for one event. Unlocked is nil unless a
// badge transitioned and the transition was durably stored.
type Outcome struct {
	Badges   badges.Collection `json:"badges"`
	Unlocked *badges.State     `json:"newBadge"`
}

type Options struct {
	Store  BadgeStore
	Source activity.Source
	Bus    *events.Bus // optional
	Locks  *userlock.Registry
	Logger *zap.Logger
	Now    func() time.Time

	FactTimeout    time.Duration
	PersistRetries int
	// RetryInterval is the first persist backoff step.
	RetryInterval time.Duration
	// DisableBreaker skips the circuit breaker around Source.
	DisableBreaker bool
}

type Engine struct {
	store   BadgeStore
	source  activity.Source
	bus     *events.Bus
	locks   *userlock.Registry
	logger  *zap.Logger
	now     func() time.Time
	timeout time.Duration
	retries int
	retryIv time.Duration
}

func New(opts Options) *Engine {
	e := &Engine{
		store:   opts.Store,
		source:  opts.Source,
		bus:     opts.Bus,
		locks:   opts.Locks,
		logger:  logging.OrNop(opts.Logger),
		now:     opts.Now,
		timeout: opts.FactTimeout,
		retries: opts.PersistRetries,
		retryIv: opts.RetryInterval,
	}
	if !opts.DisableBreaker {
		e.source = GuardSource(opts.Source, e.logger)
	}
	if e.locks == nil {
		e.locks = userlock.New()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.timeout <= 0 {
		e.timeout = 3 * time.Second
	}
	if e.retries < 0 {
		e.retries = 0
	}
	if e.retryIv <= 0 {
		e.retryIv = 50 * time.Millisecond
	}
	return e
}

// Badges returns the user's collection without evaluating anything. A user
// with no stored state, or with entries missing from the catalog, gets them
// materialized and written back.
func (e *Engine) Badges(ctx context.Context, userID string) (badges.Collection, error) {
	if userID == "" {
		return nil, ErrIdentityMissing
	}
	unlock, err := e.locks.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, version, materialized, err := e.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if materialized {
		if _, err := e.persist(ctx, userID, c, version); err != nil {
			e.logger.Warn("storing materialized badges",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}
	return c, nil
}

// OnEvent evaluates ev for userID. On a persist failure it returns the
// previous badge state with no unlock alongside an error wrapping ErrPersist.
func (e *Engine) OnEvent(ctx context.Context, userID string, ev EventType) (Outcome, error) {
	if userID == "" {
		metrics.BadgeEvents.WithLabelValues(string(ev), "rejected").Inc()
		return Outcome{}, ErrIdentityMissing
	}
	seq, ok := sequences[ev]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownEvent, ev)
	}

	unlock, err := e.locks.Lock(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}
	defer unlock()

	start := time.Now()
	defer func() {
		metrics.EvaluationDuration.WithLabelValues(string(ev)).Observe(time.Since(start).Seconds())
	}()

	current, version, changed, err := e.load(ctx, userID)
	if err != nil {
		metrics.BadgeEvents.WithLabelValues(string(ev), "failed").Inc()
		return Outcome{}, err
	}

	now := e.now().UTC()
	facts := newFactSet(e.source, userID, e.timeout)
	working := current
	var unlocked *badges.State

	for _, fam := range seq {
		res, err := fam.run(ctx, facts, working, now)
		if err != nil {
			metrics.FactFailures.WithLabelValues(fam.name).Inc()
			e.logger.Warn("badge facts unavailable",
				zap.String("user_id", userID),
				zap.String("event", string(ev)),
				zap.String("family", fam.name),
				zap.Error(err))
			continue
		}
		working = res.Badges
		if res.Changed {
			changed = true
		}
		if res.Unlocked != nil {
			unlocked = res.Unlocked
			break
		}
	}

	if !changed {
		metrics.BadgeEvents.WithLabelValues(string(ev), "inert").Inc()
		return Outcome{Badges: current}, nil
	}

	if _, err := e.persist(ctx, userID, working, version); err != nil {
		metrics.PersistFailures.Inc()
		metrics.BadgeEvents.WithLabelValues(string(ev), "failed").Inc()
		e.logger.Error("persisting badges",
			zap.String("user_id", userID),
			zap.String("event", string(ev)),
			zap.Error(err))
		return Outcome{Badges: current}, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	if unlocked == nil {
		metrics.BadgeEvents.WithLabelValues(string(ev), "progress").Inc()
		return Outcome{Badges: working}, nil
	}

	metrics.BadgeEvents.WithLabelValues(string(ev), "unlocked").Inc()
	metrics.BadgeUnlocks.WithLabelValues(string(unlocked.ID)).Inc()
	e.logger.Info("badge unlocked",
		zap.String("user_id", userID),
		zap.String("event", string(ev)),
		zap.String("badge", string(unlocked.ID)))
	e.publish(userID, ev, *unlocked, now)

	return Outcome{Badges: working, Unlocked: unlocked}, nil
}

// load reads the stored collection and reconciles it with the catalog.
// materialized reports that entries were added and the result differs from
// what is stored.
func (e *Engine) load(ctx context.Context, userID string) (c badges.Collection, version int64, materialized bool, err error) {
	stored, version, err := e.store.LoadBadges(ctx, userID)
	if err != nil {
		return nil, 0, false, fmt.Errorf("loading badges for %s: %w", userID, err)
	}
	if len(stored) == 0 {
		return badges.NewCollection(), version, true, nil
	}
	c, added := badges.Reconcile(stored)
	return c, version, added, nil
}

func (e *Engine) persist(ctx context.Context, userID string, c badges.Collection, expected int64) (int64, error) {
	var version int64
	operation := func() error {
		v, err := e.store.SaveBadges(ctx, userID, c, expected)
		if errors.Is(err, ErrVersionConflict) {
			return backoff.Permanent(err)
		}
		if err != nil {
			return err
		}
		version = v
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.retryIv
	b.MaxInterval = 2 * time.Second
	err := backoff.RetryNotify(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(b, uint64(e.retries)), ctx),
		func(err error, d time.Duration) {
			e.logger.Warn("badge write failed, retrying",
				zap.String("user_id", userID),
				zap.Duration("backoff", d),
				zap.Error(err))
		},
	)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (e *Engine) publish(userID string, ev EventType, s badges.State, at time.Time) {
	if e.bus == nil {
		return
	}
	if !e.bus.Publish(events.UnlockEvent{UserID: userID, Event: string(ev), Badge: s, At: at}) {
		metrics.Notifications.WithLabelValues("dropped").Inc()
		e.logger.Warn("unlock bus full, notification dropped",
			zap.String("user_id", userID),
			zap.String("badge", string(s.ID)))
	}
}
