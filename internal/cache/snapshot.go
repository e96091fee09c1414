// Package cache holds a short-lived snapshot of broker state for one
// coordinator run, so handling a single signal never issues the same venue
// read twice. A snapshot is never shared across webhook calls.
package cache

import (
	"context"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/tradewire-lab/fxrelay/internal/broker"
	"github.com/tradewire-lab/fxrelay/internal/types"
)

// Snapshot memoizes position, pending orders, and mid price for one symbol.
type Snapshot struct {
	broker broker.Broker
	symbol string

	position       optional.Option[types.Position]
	positionLoaded bool

	pendings       []types.PendingOrder
	pendingsLoaded bool

	mid       decimal.Decimal
	midLoaded bool
}

// NewSnapshot creates a snapshot bound to one symbol for one run.
func NewSnapshot(b broker.Broker, symbol string) *Snapshot {
	return &Snapshot{
		broker: b,
		symbol: symbol,
	}
}

// Position returns the memoized open position, fetching it on first use.
func (s *Snapshot) Position(ctx context.Context) (optional.Option[types.Position], error) {
	if !s.positionLoaded {
		position, err := s.broker.GetOpenPosition(ctx, s.symbol)
		if err != nil {
			return optional.None[types.Position](), err
		}

		s.position = position
		s.positionLoaded = true
	}

	return s.position, nil
}

// PendingOrders returns the memoized pending orders, fetching on first use.
func (s *Snapshot) PendingOrders(ctx context.Context) ([]types.PendingOrder, error) {
	if !s.pendingsLoaded {
		pendings, err := s.broker.GetPendingOrders(ctx, s.symbol)
		if err != nil {
			return nil, err
		}

		s.pendings = pendings
		s.pendingsLoaded = true
	}

	return s.pendings, nil
}

// MidPrice returns the memoized mid price, fetching on first use.
func (s *Snapshot) MidPrice(ctx context.Context) (decimal.Decimal, error) {
	if !s.midLoaded {
		mid, err := s.broker.GetMidPrice(ctx, s.symbol)
		if err != nil {
			return decimal.Zero, err
		}

		s.mid = mid
		s.midLoaded = true
	}

	return s.mid, nil
}

// Reset drops all memoized state. Called after the run mutates the venue
// (cancel, close) so later reads in the same run see fresh state.
func (s *Snapshot) Reset() {
	s.positionLoaded = false
	s.pendingsLoaded = false
	s.midLoaded = false
	s.position = optional.None[types.Position]()
	s.pendings = nil
	s.mid = decimal.Zero
}
