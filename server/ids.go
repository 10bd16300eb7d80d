package server

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// newSessionID mints a UUID-class unique session identifier.
func newSessionID() string {
	return uuid.NewString()
}

// randFloat samples a uniform float64 in [min, max).
func randFloat(min, max float64) float64 {
	return min + rand.Float64()*(max-min)
}
