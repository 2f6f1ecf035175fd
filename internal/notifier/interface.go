package notifier

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/quantsafe/internal/core"
)

// Event is one completed signal cycle as published to notifiers.
type Event struct {
	ID        string              `json:"id"`
	Ticker    string              `json:"ticker"`
	Price     float64             `json:"price"`
	Signal    core.SignalResponse `json:"signal"`
	CreatedAt time.Time           `json:"createdAt"`
}

// NewEvent builds an Event with a fresh ID.
func NewEvent(market core.MarketState, signal core.SignalResponse) Event {
	return Event{
		ID:        uuid.NewString(),
		Ticker:    market.Ticker,
		Price:     market.CurrentPrice,
		Signal:    signal,
		CreatedAt: signal.Timestamp,
	}
}

// Notifier defines the interface for signal notification
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Send delivers a single event
	Send(ctx context.Context, event Event) error
}
