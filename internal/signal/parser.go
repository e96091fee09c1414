// Package signal normalizes inbound webhook payloads into canonical signals.
//
// Two payload shapes are accepted: the direct shape carrying the alert fields
// at the top level, and a wrapped shape where the whole direct payload is a
// JSON string under "alert_message" (alerting platforms that only support a
// single free-text template field deliver it this way).
package signal

import (
	"encoding/json"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/tradewire-lab/fxrelay/internal/types"
	"github.com/tradewire-lab/fxrelay/pkg/errors"
)

// payload is the direct webhook shape.
type payload struct {
	Alert           string   `json:"alert"`
	Symbol          string   `json:"symbol"`
	EntryPrice      *float64 `json:"entryPrice"`
	StopLossPrice   *float64 `json:"stopLossPrice"`
	TakeProfitPrice *float64 `json:"takeProfitPrice"`
}

// envelope detects the wrapped shape.
type envelope struct {
	AlertMessage string `json:"alert_message"`
}

// alertSpec maps one recognized alert string to its canonical meaning.
type alertSpec struct {
	kind    types.SignalKind
	pending bool
}

// Alert matching is exact and case-sensitive. Unrecognized strings are
// rejected rather than guessed at by substring.
var alertTable = map[string]alertSpec{
	"LONG_ENTRY":       {kind: types.SignalKindLongEntry, pending: false},
	"SHORT_ENTRY":      {kind: types.SignalKindShortEntry, pending: false},
	"LONG_LIMIT":       {kind: types.SignalKindLongEntry, pending: true},
	"SHORT_LIMIT":      {kind: types.SignalKindShortEntry, pending: true},
	"EXIT":             {kind: types.SignalKindExit},
	"LONG_EXIT_ZLSMA":  {kind: types.SignalKindExit},
	"SHORT_EXIT_ZLSMA": {kind: types.SignalKindExit},
	"ZONE_EXIT":        {kind: types.SignalKindExit},
	"CLOSE_ALL":        {kind: types.SignalKindExit},
}

// Parse normalizes a raw webhook body into a Signal.
func Parse(body []byte, received time.Time) (types.Signal, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return types.Signal{}, errors.Wrap(errors.ErrCodeInvalidSignal, "malformed webhook body", err)
	}

	raw := body
	if env.AlertMessage != "" {
		raw = []byte(env.AlertMessage)
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return types.Signal{}, errors.Wrap(errors.ErrCodeInvalidSignal, "malformed alert payload", err)
	}

	if p.Alert == "" {
		return types.Signal{}, errors.New(errors.ErrCodeInvalidSignal, "missing alert")
	}

	if p.Symbol == "" {
		return types.Signal{}, errors.New(errors.ErrCodeInvalidSignal, "missing symbol")
	}

	spec, ok := alertTable[p.Alert]
	if !ok {
		return types.Signal{}, errors.Newf(errors.ErrCodeUnknownAlert, "unrecognized alert %q", p.Alert)
	}

	sig := types.Signal{
		Kind:       spec.kind,
		Symbol:     p.Symbol,
		Pending:    spec.pending,
		Entry:      toPrice(p.EntryPrice),
		StopLoss:   toPrice(p.StopLossPrice),
		TakeProfit: toPrice(p.TakeProfitPrice),
		Alert:      p.Alert,
		Received:   received,
	}

	// Pending entries rest at a price; without one there is nothing to place.
	if sig.IsEntry() && sig.Pending && sig.Entry.IsNone() {
		return types.Signal{}, errors.Newf(errors.ErrCodeInvalidSignal, "%s requires entryPrice", p.Alert)
	}

	return sig, nil
}

func toPrice(v *float64) optional.Option[decimal.Decimal] {
	if v == nil {
		return optional.None[decimal.Decimal]()
	}

	return optional.Some(decimal.NewFromFloat(*v))
}
