package types

type OutcomeStatus string

const (
	// OutcomeStatusPlaced means an order was placed on the venue
	OutcomeStatusPlaced OutcomeStatus = "placed"
	// OutcomeStatusOK means the signal was handled without placing an order
	// (e.g. an exit with nothing to close)
	OutcomeStatusOK OutcomeStatus = "ok"
	// OutcomeStatusSkipped means the signal was deliberately not acted on
	OutcomeStatusSkipped OutcomeStatus = "skipped"
	// OutcomeStatusFailed means acting on the signal failed
	OutcomeStatusFailed OutcomeStatus = "failed"
)

// Skip reasons reported to the caller.
const (
	SkipReasonExitGrace      string = "exit grace"
	SkipReasonJustExited     string = "just exited"
	SkipReasonCooldown       string = "cooldown"
	SkipReasonPositionExists string = "position exists"
	SkipReasonDuplicateOrder string = "duplicate pending order"
	SkipReasonBusy           string = "busy"
)

// Failure reasons reported to the caller.
const (
	FailReasonCloseFailed       string = "close failed"
	FailReasonNotCleared        string = "position not cleared"
	FailReasonEntryTooClose     string = "entry too close to market"
	FailReasonBrokerUnavailable string = "broker unavailable"
)

// Actions reported on successful outcomes.
const (
	ActionEntry       string = "entry"
	ActionExit        string = "exit"
	ActionNothingToDo string = "nothing to close"
)

// Outcome is the result of handling one signal: order placed, skipped with a
// reason, or failed with a reason.
type Outcome struct {
	Status OutcomeStatus `json:"status"`
	// Action describes what was done, set for placed/ok outcomes
	Action string `json:"action,omitempty"`
	// Reason describes why nothing was done, set for skipped/failed outcomes
	Reason string `json:"reason,omitempty"`
	// OrderID is the venue order identifier for placed outcomes
	OrderID string `json:"order_id,omitempty"`
}

// Succeeded reports whether the signal was handled without failure.
// Skips count as success: they are deliberate decisions, not faults.
func (o Outcome) Succeeded() bool {
	return o.Status != OutcomeStatusFailed
}

// Placed builds an outcome for a successfully placed order.
func Placed(action, orderID string) Outcome {
	return Outcome{Status: OutcomeStatusPlaced, Action: action, OrderID: orderID}
}

// OK builds an outcome for a signal handled without placing an order.
func OK(action string) Outcome {
	return Outcome{Status: OutcomeStatusOK, Action: action}
}

// Skipped builds an outcome for a deliberately ignored signal.
func Skipped(reason string) Outcome {
	return Outcome{Status: OutcomeStatusSkipped, Reason: reason}
}

// Failed builds an outcome for a signal that could not be acted on.
func Failed(reason string) Outcome {
	return Outcome{Status: OutcomeStatusFailed, Reason: reason}
}
