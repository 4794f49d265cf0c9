package events

import (
	"time"

	"nycexplorer/internal/badges"
)

// UnlockEvent is published once per durably persisted badge unlock.
type UnlockEvent struct {
	UserID string
	Event  string // triggering event type
	Badge  badges.State
	At     time.Time
}

type Bus struct {
	Unlocks chan UnlockEvent
}

func NewBus() *Bus {
	return &Bus{
		Unlocks: make(chan UnlockEvent, 64),
	}
}

// Publish never blocks; it reports false when the buffer is full and the
// event was dropped.
func (b *Bus) Publish(ev UnlockEvent) bool {
	select {
	case b.Unlocks <- ev:
		return true
	default:
		return false
	}
}
