// Package retry holds the backoff policy applied to failed integration jobs.
package retry

import "time"

const (
	// MaxAttempts is the attempt ceiling after which a job fails permanently.
	MaxAttempts = 6

	baseDelaySeconds = 30
	maxDelaySeconds  = 60 * 60
)

// DelaySeconds returns the delay before the next attempt given the number of
// attempts already made: 30 * 2^attempts, capped at one hour. Pure function,
// no jitter.
func DelaySeconds(attempts int) int {
	if attempts < 0 {
		attempts = 0
	}
	delay := baseDelaySeconds
	for i := 0; i < attempts; i++ {
		delay *= 2
		if delay >= maxDelaySeconds {
			return maxDelaySeconds
		}
	}
	return delay
}

// Delay is DelaySeconds as a time.Duration.
func Delay(attempts int) time.Duration {
	return time.Duration(DelaySeconds(attempts)) * time.Second
}

// Exhausted reports whether a job that has made the given number of attempts
// has hit the permanent-failure ceiling.
func Exhausted(attempts int) bool {
	return attempts >= MaxAttempts
}
