package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrExternal indicates an upstream service returned an error
	ErrExternal = errors.New("external service error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrNotImplemented indicates a capability is not implemented
	ErrNotImplemented = errors.New("not implemented")
)

// Paper-trading errors

var (
	// ErrAccountNotFound indicates the trading account does not exist
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientFunds indicates the account cash cannot cover a buy
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientShares indicates a sell exceeds the held quantity
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrNoPosition indicates a sell was attempted with no open position
	ErrNoPosition = errors.New("no position in symbol")

	// ErrOrderNotFound indicates the order does not exist
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderNotActionable indicates the order is not in a state that
	// permits the requested transition (e.g. approving a filled order)
	ErrOrderNotActionable = errors.New("order not actionable")

	// ErrTradeRejected indicates trade validation failed
	ErrTradeRejected = errors.New("trade rejected")
)

// Agent pipeline errors

var (
	// ErrToolFailed indicates a mandatory agent tool returned an error
	ErrToolFailed = errors.New("tool execution failed")

	// ErrUnknownTool indicates a tool name outside the closed catalog
	ErrUnknownTool = errors.New("unknown tool")

	// ErrPilotRunning indicates another pilot run holds the singleton lock
	ErrPilotRunning = errors.New("pilot run already in progress")

	// ErrCompetitionRunning indicates another competition cycle holds the
	// singleton lock
	ErrCompetitionRunning = errors.New("competition already in progress")

	// ErrRateLimitExceeded indicates an AI provider rate limit was hit
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
