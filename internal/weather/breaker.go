package weather

import (
	"errors"
	"sync"
	"time"
)

// ErrProviderUnavailable is returned while the breaker is open.
var ErrProviderUnavailable = errors.New("weather provider unavailable")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker trips after maxFailures consecutive upstream errors and stops
// hitting the provider for the cooldown period. A single success in
// half-open closes it again.
type Breaker struct {
	mu          sync.Mutex
	state       breakerState
	failures    int
	lastFailure time.Time

	maxFailures int
	cooldown    time.Duration
}

func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	return &Breaker{
		state:       stateClosed,
		maxFailures: maxFailures,
		cooldown:    cooldown,
	}
}

// Call executes fn under breaker protection.
func (b *Breaker) Call(fn func() error) error {
	b.mu.Lock()

	if b.state == stateOpen {
		if time.Since(b.lastFailure) > b.cooldown {
			b.state = stateHalfOpen
		} else {
			b.mu.Unlock()
			return ErrProviderUnavailable
		}
	}

	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		b.lastFailure = time.Now()

		if b.state == stateHalfOpen || b.failures >= b.maxFailures {
			b.state = stateOpen
		}
		return err
	}

	b.state = stateClosed
	b.failures = 0
	return nil
}

func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.String()
}
