package core

import (
	"time"

	"github.com/google/uuid"
)

// RunID identifies a single calculator or fit run
type RunID string

// WorkspaceID identifies a persisted workspace
type WorkspaceID string

// NewRunID generates a unique run identifier
func NewRunID() RunID {
	return RunID(uuid.NewString())
}

// Now returns the current UTC time; all persisted timestamps go through here
func Now() time.Time {
	return time.Now().UTC()
}
