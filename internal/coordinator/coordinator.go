// Package coordinator implements the order-lifecycle state machine: given a
// normalized signal and the venue's current state, it decides the sequence of
// broker operations (cancel pendings, close position, place order) and
// enforces the cooldown, deduplication, and safety invariants.
package coordinator

import (
	"context"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/tradewire-lab/fxrelay/internal/broker"
	"github.com/tradewire-lab/fxrelay/internal/cache"
	"github.com/tradewire-lab/fxrelay/internal/instrument"
	"github.com/tradewire-lab/fxrelay/internal/logger"
	"github.com/tradewire-lab/fxrelay/internal/symbolstate"
	"github.com/tradewire-lab/fxrelay/internal/types"
	"github.com/tradewire-lab/fxrelay/pkg/errors"
	"go.uber.org/zap"
)

// Coordinator processes one signal at a time per symbol. A second signal for
// a busy symbol is rejected immediately, never queued: by the time a queued
// signal ran, the market conditions it was generated under would be gone.
type Coordinator struct {
	config      Config
	broker      broker.Broker
	instruments *instrument.Table
	state       *symbolstate.Store
	clock       Clock
	sleeper     Sleeper
	log         *logger.Logger
}

// New creates a coordinator. The symbol-state store is injected so a single
// store spans all coordinator uses in the process.
func New(config Config, b broker.Broker, instruments *instrument.Table, state *symbolstate.Store, clock Clock, sleeper Sleeper, log *logger.Logger) (*Coordinator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Coordinator{
		config:      config.withDefaults(),
		broker:      b,
		instruments: instruments,
		state:       state,
		clock:       clock,
		sleeper:     sleeper,
		log:         log,
	}, nil
}

// Handle runs one signal through the state machine and returns its outcome.
func (c *Coordinator) Handle(ctx context.Context, sig types.Signal) types.Outcome {
	lease, ok := c.state.Acquire(sig.Symbol)
	if !ok {
		c.log.Warn("signal rejected, run in flight",
			zap.String("symbol", sig.Symbol),
			zap.String("alert", sig.Alert),
		)

		return types.Skipped(types.SkipReasonBusy)
	}
	defer lease.Release()

	snap := cache.NewSnapshot(c.broker, sig.Symbol)

	var outcome types.Outcome
	if sig.IsEntry() {
		outcome = c.handleEntry(ctx, sig, lease, snap)
	} else {
		outcome = c.handleExit(ctx, sig, lease, snap)
	}

	c.log.Info("signal handled",
		zap.String("symbol", sig.Symbol),
		zap.String("alert", sig.Alert),
		zap.String("status", string(outcome.Status)),
		zap.String("action", outcome.Action),
		zap.String("reason", outcome.Reason),
		zap.String("order_id", outcome.OrderID),
	)

	return outcome
}

func (c *Coordinator) handleExit(ctx context.Context, sig types.Signal, lease *symbolstate.Lease, snap *cache.Snapshot) types.Outcome {
	now := c.clock.Now()

	// Absorb duplicate/rapid-fire exit signals.
	if !lease.LastExitTime().IsZero() && now.Sub(lease.LastExitTime()) < c.config.ExitGrace {
		return types.Skipped(types.SkipReasonExitGrace)
	}

	// Cancelling pendings before the close is best-effort: a failed cancel
	// must not leave an open position unclosed.
	c.cancelPendingOrders(ctx, sig.Symbol, snap)

	position, err := snap.Position(ctx)
	if err != nil {
		return types.Failed(types.FailReasonBrokerUnavailable)
	}

	if position.IsNone() {
		return types.OK(types.ActionNothingToDo)
	}

	open := position.Unwrap()

	result, err := c.broker.ClosePosition(ctx, sig.Symbol, open.HasLong(), open.HasShort())
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeBrokerUnavailable) {
			return types.Failed(types.FailReasonBrokerUnavailable)
		}

		c.log.Error("close rejected", zap.String("symbol", sig.Symbol), zap.Error(err))

		return types.Failed(types.FailReasonCloseFailed)
	}

	if !result.FillObserved() {
		c.log.Error("close returned no fill transaction", zap.String("symbol", sig.Symbol))

		return types.Failed(types.FailReasonCloseFailed)
	}

	// A successful exit clears the entry cooldown so a reversal entry is not
	// blocked by a stale timestamp.
	lease.SetLastExitTime(now)
	lease.ClearLastOrderTime()

	return types.OK(types.ActionExit)
}

func (c *Coordinator) handleEntry(ctx context.Context, sig types.Signal, lease *symbolstate.Lease, snap *cache.Snapshot) types.Outcome {
	now := c.clock.Now()

	// An entry arriving right after an exit must not re-enter before the
	// close has settled on the venue.
	if !lease.LastExitTime().IsZero() && now.Sub(lease.LastExitTime()) < c.config.ExitGrace {
		return types.Skipped(types.SkipReasonJustExited)
	}

	if !lease.LastOrderTime().IsZero() && now.Sub(lease.LastOrderTime()) < c.config.OrderCooldown {
		return types.Skipped(types.SkipReasonCooldown)
	}

	// Position and pending-order reads are safety-critical: placing an order
	// without knowing the true position risks doubling exposure.
	position, err := snap.Position(ctx)
	if err != nil {
		return types.Failed(types.FailReasonBrokerUnavailable)
	}

	side := sig.Side()

	if position.IsSome() {
		open := position.Unwrap()

		if open.Direction() == side {
			return types.Skipped(types.SkipReasonPositionExists)
		}

		if outcome, ok := c.reverse(ctx, sig.Symbol, open, snap); !ok {
			return outcome
		}
	}

	spec, outcome, ok := c.buildEntryOrder(ctx, sig, side, snap)
	if !ok {
		return outcome
	}

	result, err := c.broker.PlaceOrder(ctx, spec)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeBrokerUnavailable) {
			return types.Failed(types.FailReasonBrokerUnavailable)
		}

		c.log.Error("order rejected",
			zap.String("symbol", sig.Symbol),
			zap.String("client_id", spec.ClientID),
			zap.Error(err),
		)

		// Cooldown is deliberately not touched: the caller may retry as soon
		// as the cause is fixed.
		return types.Failed(err.Error())
	}

	lease.SetLastOrderTime(now)

	return types.Placed(types.ActionEntry, result.OrderID)
}

// reverse closes an opposite-direction position and verifies it is fully
// cleared before a new entry may be placed. Returns ok=false with the
// terminal outcome when the entry must not proceed.
func (c *Coordinator) reverse(ctx context.Context, symbol string, open types.Position, snap *cache.Snapshot) (types.Outcome, bool) {
	c.log.Info("reversal: closing opposite position",
		zap.String("symbol", symbol),
		zap.Int64("net_units", open.NetUnits()),
	)

	c.cancelPendingOrders(ctx, symbol, snap)

	result, err := c.broker.ClosePosition(ctx, symbol, open.HasLong(), open.HasShort())
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeBrokerUnavailable) {
			return types.Failed(types.FailReasonBrokerUnavailable), false
		}

		c.log.Error("reversal close rejected", zap.String("symbol", symbol), zap.Error(err))

		return types.Failed(types.FailReasonCloseFailed), false
	}

	if !result.FillObserved() {
		c.log.Error("reversal close returned no fill transaction", zap.String("symbol", symbol))

		return types.Failed(types.FailReasonCloseFailed), false
	}

	if err := c.sleeper.Sleep(ctx, c.config.PostCloseWait); err != nil {
		return types.Failed(types.FailReasonBrokerUnavailable), false
	}

	cleared := false

	for attempt := 0; attempt < c.config.SettleAttempts; attempt++ {
		if attempt > 0 {
			if err := c.sleeper.Sleep(ctx, c.config.SettleInterval); err != nil {
				return types.Failed(types.FailReasonBrokerUnavailable), false
			}
		}

		position, err := c.broker.GetOpenPosition(ctx, symbol)
		if err != nil {
			return types.Failed(types.FailReasonBrokerUnavailable), false
		}

		if position.IsNone() {
			cleared = true

			break
		}
	}

	if !cleared {
		c.log.Error("position not cleared after reversal close",
			zap.String("symbol", symbol),
			zap.Int("attempts", c.config.SettleAttempts),
		)

		return types.Failed(types.FailReasonNotCleared), false
	}

	// Venue state changed under the snapshot; later reads must be fresh.
	snap.Reset()

	return types.Outcome{}, true
}

// buildEntryOrder turns an entry signal into an order spec, applying the
// price-distance check, pending dedupe, and stop/target sanity correction.
// Returns ok=false with the terminal outcome when no order may be placed.
func (c *Coordinator) buildEntryOrder(ctx context.Context, sig types.Signal, side types.Side, snap *cache.Snapshot) (types.OrderSpec, types.Outcome, bool) {
	spec := c.instruments.Lookup(sig.Symbol)

	units := c.config.FixedUnitSize
	if side == types.SideShort {
		units = -units
	}

	order := types.OrderSpec{
		ClientID:    uuid.New().String(),
		Symbol:      sig.Symbol,
		Type:        types.OrderTypeMarket,
		Units:       units,
		TimeInForce: types.TimeInForceFOK,
		Price:       optional.None[decimal.Decimal](),
		StopLoss:    optional.None[decimal.Decimal](),
		TakeProfit:  optional.None[decimal.Decimal](),
	}

	// reference is the price the stop/target sanity check anchors on: the
	// resting price for pending entries, the current mid for market entries.
	var reference decimal.Decimal

	if sig.Pending {
		entry := sig.Entry.Unwrap()
		reference = entry

		mid, err := snap.MidPrice(ctx)
		if err != nil {
			return types.OrderSpec{}, types.Failed(types.FailReasonBrokerUnavailable), false
		}

		// An entry this close to the mid would be rejected by the venue or
		// fill immediately as a market order in disguise.
		if entry.Sub(mid).Abs().LessThan(spec.MinEntryDistance) {
			c.log.Warn("entry too close to market",
				zap.String("symbol", sig.Symbol),
				zap.String("entry", entry.String()),
				zap.String("mid", mid.String()),
			)

			return types.OrderSpec{}, types.Failed(types.FailReasonEntryTooClose), false
		}

		order.Type = c.resolvePendingType(side, entry, mid)
		order.TimeInForce = types.TimeInForceGTC
		order.Price = optional.Some(entry)

		pendings, err := snap.PendingOrders(ctx)
		if err != nil {
			return types.OrderSpec{}, types.Failed(types.FailReasonBrokerUnavailable), false
		}

		for _, p := range pendings {
			if p.Type == order.Type && p.Side() == side && p.Price.Sub(entry).Abs().LessThanOrEqual(spec.PriceEpsilon) {
				return types.OrderSpec{}, types.Skipped(types.SkipReasonDuplicateOrder), false
			}
		}
	} else if sig.StopLoss.IsSome() || sig.TakeProfit.IsSome() {
		mid, err := snap.MidPrice(ctx)
		if err != nil {
			return types.OrderSpec{}, types.Failed(types.FailReasonBrokerUnavailable), false
		}

		reference = mid
	}

	order.StopLoss, order.TakeProfit = c.normalizeStops(side, reference, sig.StopLoss, sig.TakeProfit)

	return order, types.Outcome{}, true
}

// resolvePendingType picks the resting order type. In AUTO mode a buy below
// mid rests as a limit and a buy above mid as a stop, mirrored for sells.
func (c *Coordinator) resolvePendingType(side types.Side, entry, mid decimal.Decimal) types.OrderType {
	switch c.config.PendingOrderMode {
	case PendingOrderModeLimit:
		return types.OrderTypeLimit
	case PendingOrderModeStop:
		return types.OrderTypeStop
	default:
	}

	if side == types.SideLong {
		if entry.LessThan(mid) {
			return types.OrderTypeLimit
		}

		return types.OrderTypeStop
	}

	if entry.GreaterThan(mid) {
		return types.OrderTypeLimit
	}

	return types.OrderTypeStop
}

// normalizeStops makes the stop-loss/take-profit pair directionally
// consistent with the entry side: for a long, stop < reference < target.
// Inconsistent values come from upstream signal-generation imprecision and
// are corrected rather than rejected: a wrong-side stop is mirrored to the
// correct side at the same distance, and a wrong-side target is rebuilt from
// the stop distance at the configured risk-reward multiple.
func (c *Coordinator) normalizeStops(side types.Side, reference decimal.Decimal, stopLoss, takeProfit optional.Option[decimal.Decimal]) (optional.Option[decimal.Decimal], optional.Option[decimal.Decimal]) {
	if stopLoss.IsNone() && takeProfit.IsNone() {
		return stopLoss, takeProfit
	}

	rr := decimal.NewFromFloat(c.config.RiskRewardRatio)

	// Work in "distance below/above reference" terms, mirrored for shorts.
	sign := decimal.NewFromInt(1)
	if side == types.SideShort {
		sign = decimal.NewFromInt(-1)
	}

	var stopDistance decimal.Decimal

	if stopLoss.IsSome() {
		// Positive distance means the stop is on the correct (losing) side.
		stopDistance = reference.Sub(stopLoss.Unwrap()).Mul(sign)
		if stopDistance.IsNegative() {
			stopDistance = stopDistance.Neg()
		}

		stopLoss = optional.Some(reference.Sub(stopDistance.Mul(sign)))
	}

	if takeProfit.IsSome() {
		targetDistance := takeProfit.Unwrap().Sub(reference).Mul(sign)
		if !targetDistance.IsPositive() {
			if stopLoss.IsSome() {
				targetDistance = stopDistance.Mul(rr)
			} else {
				targetDistance = targetDistance.Neg()
			}
		}

		takeProfit = optional.Some(reference.Add(targetDistance.Mul(sign)))
	}

	return stopLoss, takeProfit
}

// cancelPendingOrders cancels every resting order for the symbol,
// best-effort: failures are logged, never fatal.
func (c *Coordinator) cancelPendingOrders(ctx context.Context, symbol string, snap *cache.Snapshot) {
	pendings, err := snap.PendingOrders(ctx)
	if err != nil {
		c.log.Warn("pending-order read failed before cancel", zap.String("symbol", symbol), zap.Error(err))

		return
	}

	for _, p := range pendings {
		if err := c.broker.CancelOrder(ctx, p.ID); err != nil {
			c.log.Warn("cancel failed",
				zap.String("symbol", symbol),
				zap.String("order_id", p.ID),
				zap.Error(err),
			)
		}
	}

	if len(pendings) > 0 {
		snap.Reset()
	}
}
