package circuitbreaker

import (
	"fmt"
	"sync"
	"time"
)

type Settings struct {
	Name        string
	MaxFailures int
	Timeout     time.Duration
}

// CircuitBreaker trips open after MaxFailures consecutive failures and
// lets a probe through once Timeout has elapsed.
type CircuitBreaker struct {
	name        string
	maxFailures int
	timeout     time.Duration
	failures    int
	lastFailure time.Time
	state       string
	mu          sync.Mutex
}

func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	if settings.MaxFailures <= 0 {
		settings.MaxFailures = 5
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}
	return &CircuitBreaker{
		name:        settings.Name,
		maxFailures: settings.MaxFailures,
		timeout:     settings.Timeout,
		state:       "closed",
	}
}

func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.state == "open" {
		if time.Since(cb.lastFailure) > cb.timeout {
			cb.state = "half-open"
		} else {
			cb.mu.Unlock()
			return fmt.Errorf("circuit breaker %s is open", cb.name)
		}
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.lastFailure = time.Now()
		if cb.failures >= cb.maxFailures {
			cb.state = "open"
		}
		return err
	}

	cb.failures = 0
	cb.state = "closed"
	return nil
}

func (cb *CircuitBreaker) State() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
