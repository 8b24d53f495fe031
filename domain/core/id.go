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

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// ComparisonID identifies one persisted mean comparison
type ComparisonID ID

// NewComparisonID returns a fresh time-ordered comparison identifier
func NewComparisonID() ComparisonID {
	return ComparisonID(NewID())
}

func (id ComparisonID) String() string { return ID(id).String() }

// ParseComparisonID parses a string into ComparisonID
func ParseComparisonID(s string) (ComparisonID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("comparison ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("comparison ID %q is not a UUID: %w", s, err)
	}
	return ComparisonID(s), nil
}
