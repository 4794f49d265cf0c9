package engine

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"nycexplorer/internal/activity"
	"nycexplorer/internal/logging"
	"nycexplorer/internal/metrics"
)

const sourceBreakerName = "activity-source"

// guardedSource puts a circuit breaker in front of an activity.Source so a
// failing backing store turns fact fetches into fast no-ops instead of
// holding every event for the full timeout.
type guardedSource struct {
	src activity.Source
	cb  *gobreaker.CircuitBreaker[any]
}

// GuardSource wraps src with a breaker that opens when at least 60% of 10
// or more requests in a one-minute window fail with a backend failure, and
// probes again after 30s.
func GuardSource(src activity.Source, logger *zap.Logger) activity.Source {
	logger = logging.OrNop(logger)
	g := &guardedSource{src: src}
	metrics.CircuitBreakerState.WithLabelValues(sourceBreakerName).Set(0)

	g.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        sourceBreakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= 0.6 {
				logger.Warn("opening circuit",
					zap.String("breaker", sourceBreakerName),
					zap.Uint32("failures", counts.TotalFailures),
					zap.Float64("failure_rate", ratio))
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit state transition",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		IsSuccessful: func(err error) bool {
			return !backendFailure(err)
		},
	})
	return g
}

// backendFailure reports whether err means the backing store itself is
// unhealthy: a dead connection, a network error, or a fact fetch that ran
// past its timeout. Errors about one user's rows and callers that gave up
// do not count toward opening the breaker.
func backendFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func guarded[T any](g *guardedSource, fn func() (T, error)) (T, error) {
	var zero T
	res, err := g.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	typed, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", res)
	}
	return typed, nil
}

func (g *guardedSource) ReviewCount(ctx context.Context, userID string) (int, error) {
	return guarded(g, func() (int, error) { return g.src.ReviewCount(ctx, userID) })
}

func (g *guardedSource) Reviews(ctx context.Context, userID string) ([]activity.Review, error) {
	return guarded(g, func() ([]activity.Review, error) { return g.src.Reviews(ctx, userID) })
}

func (g *guardedSource) BusinessesByID(ctx context.Context, ids []string) (map[string]activity.Business, error) {
	return guarded(g, func() (map[string]activity.Business, error) { return g.src.BusinessesByID(ctx, ids) })
}

func (g *guardedSource) Preferences(ctx context.Context, userID string) (activity.Preferences, error) {
	return guarded(g, func() (activity.Preferences, error) { return g.src.Preferences(ctx, userID) })
}

func (g *guardedSource) HasProfilePicture(ctx context.Context, userID string) (bool, error) {
	return guarded(g, func() (bool, error) { return g.src.HasProfilePicture(ctx, userID) })
}

func (g *guardedSource) ItineraryCount(ctx context.Context, userID string) (int, error) {
	return guarded(g, func() (int, error) { return g.src.ItineraryCount(ctx, userID) })
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
