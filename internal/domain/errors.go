package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// NetworkError represents a network-related error that may be retriable
type NetworkError struct {
	Op        string // Operation that failed (e.g., "quote", "submit", "balance")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// ConfigError represents rejected configuration or operator input (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// SwapStage names the step of a swap action that failed.
type SwapStage string

const (
	StageQuote   SwapStage = "quote"
	StageSign    SwapStage = "sign"
	StageSubmit  SwapStage = "submit"
	StageConfirm SwapStage = "confirm"
)

// SwapFailure is the single error kind reported for a failed swap action.
// The sequencer treats it as non-fatal.
type SwapFailure struct {
	Stage SwapStage
	Err   error
}

func (e *SwapFailure) Error() string {
	return "swap failed at " + string(e.Stage) + ": " + e.Err.Error()
}

func (e *SwapFailure) Unwrap() error {
	return e.Err
}

// FatalSequencerError aborts a whole run.
type FatalSequencerError struct {
	Err error
}

func (e *FatalSequencerError) Error() string {
	return "fatal sequencer error: " + e.Err.Error()
}

func (e *FatalSequencerError) Unwrap() error {
	return e.Err
}

var (
	// ErrAlreadyRunning is the control signal returned by Start while a run is active.
	ErrAlreadyRunning = errors.New("already running")

	// ErrNotRunning is the control signal returned by Stop while idle.
	ErrNotRunning = errors.New("not running")

	// ErrNoInstructions is returned when the swap gateway yields no transaction.
	ErrNoInstructions = errors.New("invalid swap response: transaction data is missing")

	// ErrConfirmTimeout is returned when a submitted transaction is not confirmed in time.
	ErrConfirmTimeout = errors.New("confirmation timed out")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
