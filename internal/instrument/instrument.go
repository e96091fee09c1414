// Package instrument holds per-symbol trading parameters: the price precision
// the venue expects on the wire, the epsilon used to consider two resting
// prices duplicates, and the minimum distance a pending entry must keep from
// the current mid price.
package instrument

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Spec describes one instrument's numeric parameters.
type Spec struct {
	// Precision is the number of decimal places the venue accepts for prices.
	Precision int32 `yaml:"precision" json:"precision"`
	// PriceEpsilon is the tolerance within which two resting prices are
	// considered the same order.
	PriceEpsilon decimal.Decimal `yaml:"price_epsilon" json:"price_epsilon"`
	// MinEntryDistance is the minimum distance a pending entry price must
	// keep from the current mid; closer entries would be rejected by the
	// venue or fill immediately as a market order in disguise.
	MinEntryDistance decimal.Decimal `yaml:"min_entry_distance" json:"min_entry_distance"`
}

// Table maps symbols to their specs, falling back to quote-currency defaults
// for symbols without an explicit entry.
type Table struct {
	overrides map[string]Spec
}

// Defaults per quote currency. JPY-quoted pairs trade around 150, not 1.5,
// so precision and tolerances differ by two orders of magnitude.
var (
	jpyDefault = Spec{
		Precision:        3,
		PriceEpsilon:     decimal.RequireFromString("0.02"),
		MinEntryDistance: decimal.RequireFromString("0.05"),
	}
	standardDefault = Spec{
		Precision:        5,
		PriceEpsilon:     decimal.RequireFromString("0.0002"),
		MinEntryDistance: decimal.RequireFromString("0.0005"),
	}
)

// NewTable builds a table with the given per-symbol overrides. A nil map is fine.
func NewTable(overrides map[string]Spec) *Table {
	if overrides == nil {
		overrides = make(map[string]Spec)
	}

	return &Table{overrides: overrides}
}

// Lookup returns the spec for a symbol.
func (t *Table) Lookup(symbol string) Spec {
	if spec, ok := t.overrides[symbol]; ok {
		return spec
	}

	if strings.HasSuffix(symbol, "_JPY") {
		return jpyDefault
	}

	return standardDefault
}

// FormatPrice renders a price at the symbol's wire precision.
// The venue rejects prices submitted at the wrong precision.
func (t *Table) FormatPrice(symbol string, price decimal.Decimal) string {
	return price.StringFixed(t.Lookup(symbol).Precision)
}

// Round rounds a price to the symbol's wire precision without formatting.
func (t *Table) Round(symbol string, price decimal.Decimal) decimal.Decimal {
	return price.Round(t.Lookup(symbol).Precision)
}
