package types

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

type SignalKind string

const (
	// SignalKindLongEntry requests a new long position on the symbol
	SignalKindLongEntry SignalKind = "LONG_ENTRY"
	// SignalKindShortEntry requests a new short position on the symbol
	SignalKindShortEntry SignalKind = "SHORT_ENTRY"
	// SignalKindExit requests all exposure on the symbol to be closed
	SignalKindExit SignalKind = "EXIT"
)

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}

	return SideLong
}

// Signal is one parsed webhook event in canonical form.
type Signal struct {
	// Kind is the kind of the signal
	Kind SignalKind
	// Symbol is the venue-native instrument identifier (e.g. USD_JPY)
	Symbol string
	// Pending is true when the entry should rest on the book (LIMIT/STOP)
	// instead of executing at market. Exit signals ignore this.
	Pending bool
	// Entry is the requested entry price. Required for pending entries.
	Entry optional.Option[decimal.Decimal]
	// StopLoss is the requested stop-loss price
	StopLoss optional.Option[decimal.Decimal]
	// TakeProfit is the requested take-profit price
	TakeProfit optional.Option[decimal.Decimal]
	// Alert is the raw alert string the signal was parsed from
	Alert string
	// Received is the time the webhook was received
	Received time.Time
}

// IsEntry reports whether the signal requests a new position.
func (s Signal) IsEntry() bool {
	return s.Kind == SignalKindLongEntry || s.Kind == SignalKindShortEntry
}

// Side resolves the direction of an entry signal. Exit signals have no side;
// the coordinator closes whichever side is actually open.
func (s Signal) Side() Side {
	if s.Kind == SignalKindShortEntry {
		return SideShort
	}

	return SideLong
}
