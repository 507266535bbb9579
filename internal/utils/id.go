package utils

import "github.com/google/uuid"

// NewID returns a random identifier used to correlate log lines of one connection.
func NewID() string {
	return uuid.NewString()
}
