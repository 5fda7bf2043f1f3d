package util

import "github.com/google/uuid"

// NewID generates a unique identifier for runs and log records.
func NewID() string { return uuid.NewString() }
