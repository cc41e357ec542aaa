package fetch

import (
	"crypto/rand"
	"math"
	"math/big"
	"time"
)

// Policy controls the retry behavior of a Client. It is a plain value so
// tests can inject a zero-delay policy for fast, deterministic retries.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxJitter   time.Duration
}

// DefaultPolicy returns the production retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxJitter:   750 * time.Millisecond,
	}
}

// Backoff returns the wait duration before the attempt following the given
// zero-based failed attempt: BaseDelay doubled per attempt, plus bounded
// random jitter.
func (p Policy) Backoff(attempt int) time.Duration {
	delay := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt)))
	return delay + randomJitter(p.MaxJitter)
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
