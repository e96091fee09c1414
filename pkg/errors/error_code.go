package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Signal/validation errors (100-199)
	ErrCodeInvalidSignal        ErrorCode = 100
	ErrCodeInvalidParameter     ErrorCode = 101
	ErrCodeInvalidConfiguration ErrorCode = 102
	ErrCodeInvalidOrderSpec     ErrorCode = 103
	ErrCodeUnknownAlert         ErrorCode = 104
	ErrCodeUnknownInstrument    ErrorCode = 105

	// Broker transport errors (200-299)
	ErrCodeBrokerUnavailable ErrorCode = 200
	ErrCodeBrokerBadResponse ErrorCode = 201

	// Order execution errors (300-399)
	ErrCodeOrderRejected ErrorCode = 300
	ErrCodeCloseFailed   ErrorCode = 301
	ErrCodeCancelFailed  ErrorCode = 302

	// Coordinator/lifecycle errors (400-499)
	ErrCodePositionNotCleared ErrorCode = 400
	ErrCodeBusy               ErrorCode = 401
	ErrCodeEntryTooClose      ErrorCode = 402
)
