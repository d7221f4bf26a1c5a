package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrOpponentNotFound = fmt.Errorf("%w: opponent", ErrNotFound)

	// Validation errors
	ErrInvalidMove      = errors.New("move outside rock/paper/scissor domain")
	ErrInvalidOutcome   = errors.New("outcome outside win/loss/tie domain")
	ErrTurnOrder        = errors.New("turn indices must be strictly increasing")
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// Simulation errors
	ErrUnknownOpponentModel = errors.New("unknown synthetic opponent model")
	ErrNoTrials             = errors.New("evaluator requires at least one trial")
)

// Error constructors with context
func NewNotFoundError(kind error, id string) error {
	return fmt.Errorf("%w: id %s", kind, id)
}

func NewInsufficientDataError(component string, have, need int) error {
	return fmt.Errorf("%w: %s needs %d turns, have %d", ErrInsufficientData, component, need, have)
}

func NewInvalidMoveError(token string) error {
	return fmt.Errorf("%w: %q", ErrInvalidMove, token)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidMove) ||
		errors.Is(err, ErrInvalidOutcome) ||
		errors.Is(err, ErrTurnOrder)
}
