package helpers

import (
	mathrand "math/rand"
	"time"
)

// RandomDelay returns a random duration in [min, max]. Zero bounds disable
// the delay so tests can run without sleeping.
func RandomDelay(min, max time.Duration) time.Duration {
	if max <= 0 || max < min {
		return 0
	}
	if max == min {
		return min
	}
	return min + time.Duration(mathrand.Int63n(int64(max-min)))
}
