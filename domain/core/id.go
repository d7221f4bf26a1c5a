package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// Domain-specific ID types
type (
	// OpponentID identifies one opponent's battle history. Assigned by the
	// historical-data collaborator, opaque to the engine.
	OpponentID string
	// RunID identifies one evaluator run.
	RunID ID
)

func (id OpponentID) String() string { return string(id) }
func (id RunID) String() string      { return ID(id).String() }

// ParseOpponentID parses a string into OpponentID
func ParseOpponentID(s string) (OpponentID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("opponent ID cannot be empty")
	}
	return OpponentID(s), nil
}
