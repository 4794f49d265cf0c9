// Package broadcast turns unlock events from the bus into one-shot banner
// pushes for the user's open connections.
package broadcast

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"nycexplorer/internal/badges"
	"nycexplorer/internal/events"
	"nycexplorer/internal/logging"
	"nycexplorer/internal/metrics"
)

const TypeBadgeUnlocked = "badgeUnlocked"

// Notification is the payload pushed to the client. The banner hides itself
// after DismissAfterMs.
type Notification struct {
	Type           string       `json:"type"`
	Event          string       `json:"event"`
	Badge          badges.State `json:"badge"`
	DismissAfterMs int64        `json:"dismissAfterMs"`
	At             time.Time    `json:"at"`
}

// Sink delivers an encoded message to every live connection of a user.
type Sink interface {
	SendToUser(userID string, data []byte) (delivered, dropped int)
}

type Broadcaster struct {
	bus    *events.Bus
	sink   Sink
	ttl    time.Duration
	logger *zap.Logger
}

func NewBroadcaster(bus *events.Bus, sink Sink, ttl time.Duration, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		bus:    bus,
		sink:   sink,
		ttl:    ttl,
		logger: logging.OrNop(logger),
	}
}

// Run drains the bus until ctx is done or the unlock channel is closed.
func (b *Broadcaster) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-b.bus.Unlocks:
			if !ok {
				return
			}
			b.deliver(ev)
		}
	}
}

func (b *Broadcaster) deliver(ev events.UnlockEvent) {
	data, err := json.Marshal(Notification{
		Type:           TypeBadgeUnlocked,
		Event:          ev.Event,
		Badge:          ev.Badge,
		DismissAfterMs: b.ttl.Milliseconds(),
		At:             ev.At,
	})
	if err != nil {
		b.logger.Error("encoding unlock notification", zap.Error(err))
		return
	}

	delivered, dropped := b.sink.SendToUser(ev.UserID, data)
	switch {
	case delivered == 0 && dropped == 0:
		metrics.Notifications.WithLabelValues("no_subscriber").Inc()
	default:
		metrics.Notifications.WithLabelValues("delivered").Add(float64(delivered))
		metrics.Notifications.WithLabelValues("dropped").Add(float64(dropped))
	}
	if dropped > 0 {
		b.logger.Debug("unlock push dropped",
			zap.String("user_id", ev.UserID),
			zap.String("badge", string(ev.Badge.ID)),
			zap.Int("dropped", dropped))
	}
}
