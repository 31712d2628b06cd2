package xclient

import (
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// newDefaultLimiter spaces calls at least minInterval apart. X_API_MIN_INTERVAL_MS overrides it.
func newDefaultLimiter(minInterval time.Duration) *rate.Limiter {
	if v := os.Getenv("X_API_MIN_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			minInterval = time.Duration(n) * time.Millisecond
		}
	}
	if minInterval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(minInterval), 1)
}
