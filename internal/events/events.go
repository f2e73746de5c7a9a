// Package events delivers committed contract events to their consumers
// and defines the JSON payload they all share.
package events

import (
	"context"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/store"
)

// Sink consumes committed events. Publish is called with the contract
// lock held and must not block.
type Sink interface {
	Publish(ctx context.Context, ev domain.Event)
}

// Fanout publishes every event to each of its sinks in order.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, ev domain.Event) {
	for _, s := range f {
		s.Publish(ctx, ev)
	}
}

// TradeRecorder appends executed trades to the trade history.
type TradeRecorder struct {
	trades *store.TradeStore
}

// NewTradeRecorder creates a TradeRecorder writing to trades.
func NewTradeRecorder(trades *store.TradeStore) *TradeRecorder {
	return &TradeRecorder{trades: trades}
}

func (r *TradeRecorder) Publish(_ context.Context, ev domain.Event) {
	if ev.Type == domain.EventTradeExecuted && ev.Trade != nil {
		r.trades.Append(ev.Trade)
	}
}
