package coordinator

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tradewire-lab/fxrelay/pkg/errors"
)

// PendingOrderMode selects how pending entry signals are placed.
type PendingOrderMode string

const (
	// PendingOrderModeAuto picks LIMIT or STOP from the entry price's
	// relation to the current mid: a buy below mid rests as a limit, a buy
	// above mid as a stop (and mirrored for sells).
	PendingOrderModeAuto PendingOrderMode = "AUTO"
	// PendingOrderModeLimit always places LIMIT orders
	PendingOrderModeLimit PendingOrderMode = "LIMIT"
	// PendingOrderModeStop always places STOP orders
	PendingOrderModeStop PendingOrderMode = "STOP"
)

// Default coordinator settings.
const (
	DefaultFixedUnitSize   = 20000
	DefaultOrderCooldown   = 5 * time.Minute
	DefaultExitGrace       = 10 * time.Second
	DefaultPostCloseWait   = 1 * time.Second
	DefaultSettleAttempts  = 20
	DefaultSettleInterval  = 500 * time.Millisecond
	DefaultRiskRewardRatio = 2.0
)

// Config holds the coordinator's safety constants. All of them are
// deployment configuration, not code.
type Config struct {
	// FixedUnitSize is the constant order size; the relay does no
	// equity-derived position sizing.
	FixedUnitSize int64 `yaml:"fixed_unit_size" json:"fixed_unit_size" jsonschema:"title=Fixed Unit Size,description=Constant order size in units" validate:"omitempty,gt=0"`
	// OrderCooldown is the minimum time between successive entries per symbol
	OrderCooldown time.Duration `yaml:"order_cooldown" json:"order_cooldown" jsonschema:"title=Order Cooldown,description=Minimum time between entries on one symbol"`
	// ExitGrace absorbs duplicate exit signals and blocks entries arriving
	// right after an exit, before the close has settled on the venue
	ExitGrace time.Duration `yaml:"exit_grace" json:"exit_grace" jsonschema:"title=Exit Grace,description=Window absorbing duplicate exits and post-exit entries"`
	// PostCloseWait is the fixed settle delay after closing a position
	// during a reversal, before clearance polling starts
	PostCloseWait time.Duration `yaml:"post_close_wait" json:"post_close_wait" jsonschema:"title=Post Close Wait,description=Settle delay after a reversal close"`
	// SettleAttempts bounds the clearance polling during a reversal
	SettleAttempts int `yaml:"settle_attempts" json:"settle_attempts" jsonschema:"title=Settle Attempts,description=Clearance poll budget during a reversal"`
	// SettleInterval is the delay between clearance polls
	SettleInterval time.Duration `yaml:"settle_interval" json:"settle_interval" jsonschema:"title=Settle Interval,description=Delay between clearance polls"`
	// RiskRewardRatio rebuilds an inconsistent take-profit from the stop
	// distance
	RiskRewardRatio float64 `yaml:"risk_reward_ratio" json:"risk_reward_ratio" jsonschema:"title=Risk Reward Ratio,description=Take-profit multiple of the stop distance" validate:"omitempty,gt=0"`
	// PendingOrderMode selects LIMIT/STOP/AUTO placement for pending entries
	PendingOrderMode PendingOrderMode `yaml:"pending_order_mode" json:"pending_order_mode" jsonschema:"title=Pending Order Mode,description=LIMIT STOP or AUTO" validate:"omitempty,oneof=AUTO LIMIT STOP"`
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid coordinator config", err)
	}

	return nil
}

// withDefaults fills zero values with defaults.
func (c Config) withDefaults() Config {
	if c.FixedUnitSize <= 0 {
		c.FixedUnitSize = DefaultFixedUnitSize
	}

	if c.OrderCooldown <= 0 {
		c.OrderCooldown = DefaultOrderCooldown
	}

	if c.ExitGrace <= 0 {
		c.ExitGrace = DefaultExitGrace
	}

	if c.PostCloseWait <= 0 {
		c.PostCloseWait = DefaultPostCloseWait
	}

	if c.SettleAttempts <= 0 {
		c.SettleAttempts = DefaultSettleAttempts
	}

	if c.SettleInterval <= 0 {
		c.SettleInterval = DefaultSettleInterval
	}

	if c.RiskRewardRatio <= 0 {
		c.RiskRewardRatio = DefaultRiskRewardRatio
	}

	if c.PendingOrderMode == "" {
		c.PendingOrderMode = PendingOrderModeAuto
	}

	return c
}
