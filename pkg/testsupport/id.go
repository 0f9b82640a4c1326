package testsupport

import "github.com/google/uuid"

// NewID returns a random row id for test fixtures, in the same format the
// backend assigns.
func NewID() string {
	return uuid.NewString()
}
