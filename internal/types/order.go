package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/tradewire-lab/fxrelay/pkg/errors"
)

type OrderType string

type TimeInForce string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeStop   OrderType = "STOP"
)

const (
	TimeInForceGTC TimeInForce = "GTC"
	TimeInForceGFD TimeInForce = "GFD"
	TimeInForceFOK TimeInForce = "FOK"
	TimeInForceIOC TimeInForce = "IOC"
)

// OrderSpec describes one order to be placed on the venue.
type OrderSpec struct {
	// ClientID correlates the relay's decision log with the venue-side order.
	ClientID string `json:"client_id" yaml:"client_id" validate:"required,uuid"`
	Symbol   string `json:"symbol" yaml:"symbol" validate:"required"`
	Type     OrderType `json:"type" yaml:"type" validate:"required,oneof=MARKET LIMIT STOP"`
	// Units is signed: positive buys, negative sells.
	Units       int64       `json:"units" yaml:"units" validate:"required"`
	TimeInForce TimeInForce `json:"time_in_force" yaml:"time_in_force" validate:"required,oneof=GTC GFD FOK IOC"`
	// Price is the resting price. Required for LIMIT and STOP orders.
	Price optional.Option[decimal.Decimal] `json:"price" yaml:"price"`
	// StopLoss is the stop-loss trigger attached to the order. Can be None.
	StopLoss optional.Option[decimal.Decimal] `json:"stop_loss" yaml:"stop_loss"`
	// TakeProfit is the take-profit trigger attached to the order. Can be None.
	TakeProfit optional.Option[decimal.Decimal] `json:"take_profit" yaml:"take_profit"`
}

// Validate validates the OrderSpec struct.
func (o *OrderSpec) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrderSpec, "invalid order spec", err)
	}

	if o.Type != OrderTypeMarket && o.Price.IsNone() {
		return errors.Newf(errors.ErrCodeInvalidOrderSpec, "%s order requires a price", o.Type)
	}

	return nil
}

// Side returns the economic direction implied by the signed units.
func (o *OrderSpec) Side() Side {
	if o.Units < 0 {
		return SideShort
	}

	return SideLong
}

// PendingOrder is a broker-side resting order not yet filled.
type PendingOrder struct {
	// ID is the venue-assigned opaque order identifier
	ID     string
	Symbol string
	Type   OrderType
	Price  decimal.Decimal
	// Units is signed: positive buys, negative sells
	Units int64
}

// Side returns the economic direction implied by the signed units.
func (p PendingOrder) Side() Side {
	if p.Units < 0 {
		return SideShort
	}

	return SideLong
}

// OrderResult is the venue's acknowledgement of a placed order.
type OrderResult struct {
	// OrderID is the venue-assigned order identifier
	OrderID string
	// ClientID echoes the relay-supplied client identifier
	ClientID string
	// Filled is true when the venue filled the order immediately (market orders)
	Filled bool
}

// CloseResult reports the venue's response to a position close request.
type CloseResult struct {
	// LongTransactionID is the fill transaction for the long side, empty if none
	LongTransactionID string
	// ShortTransactionID is the fill transaction for the short side, empty if none
	ShortTransactionID string
}

// FillObserved reports whether the venue confirmed at least one fill transaction.
// A close response without any fill transaction means nothing was actually closed.
func (c CloseResult) FillObserved() bool {
	return c.LongTransactionID != "" || c.ShortTransactionID != ""
}
