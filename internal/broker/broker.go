// Package broker issues authenticated REST calls against the FX venue and
// normalizes its responses into the relay's types.
package broker

import (
	"context"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/tradewire-lab/fxrelay/internal/types"
)

// Broker is the venue-facing client the coordinator drives.
type Broker interface {
	// GetOpenPosition returns the current position for a symbol, or None if
	// the venue reports no open position for it.
	GetOpenPosition(ctx context.Context, symbol string) (optional.Option[types.Position], error)
	// GetPendingOrders returns the resting (not yet filled) orders for a symbol.
	GetPendingOrders(ctx context.Context, symbol string) ([]types.PendingOrder, error)
	// CancelOrder cancels a pending order. Cancelling an order that has
	// already filled or been cancelled is treated as success: there is an
	// inherent race between querying and cancelling.
	CancelOrder(ctx context.Context, orderID string) error
	// PlaceOrder places a single order. Venue-side validation failures are
	// reported as ErrCodeOrderRejected; transport failures as
	// ErrCodeBrokerUnavailable. Never retried.
	PlaceOrder(ctx context.Context, spec types.OrderSpec) (types.OrderResult, error)
	// ClosePosition requests full closure of the selected side(s).
	ClosePosition(ctx context.Context, symbol string, closeLong, closeShort bool) (types.CloseResult, error)
	// GetMidPrice returns the average of best bid and ask.
	GetMidPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}
