/*-------------------------------------------------------------------------
 *
 * circuit_breaker.go
 *    Circuit breaker for external model calls
 *
 * Protects the LLM judge and the embedding client from cascading
 * failures. An open circuit makes the caller degrade (judge reports
 * unavailable, drift scoring is skipped) instead of stacking up
 * timed-out requests.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/reliability/circuit_breaker.go
 *
 *-------------------------------------------------------------------------
 */

package reliability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/neurondb/NeuronEval/internal/metrics"
)

/* ErrCircuitOpen is returned without invoking the protected call */
var ErrCircuitOpen = errors.New("circuit breaker open")

/* CircuitState represents circuit breaker state */
type CircuitState string

const (
	StateClosed   CircuitState = "closed"    /* Normal operation */
	StateOpen     CircuitState = "open"      /* Failing, reject requests */
	StateHalfOpen CircuitState = "half_open" /* Probing for recovery */
)

/* CircuitBreaker implements the circuit breaker pattern */
type CircuitBreaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration

	mu           sync.Mutex
	state        CircuitState
	failureCount int
	lastFailure  time.Time
}

/* NewCircuitBreaker creates a new circuit breaker */
func NewCircuitBreaker(name string, maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	return &CircuitBreaker{
		name:         name,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        StateClosed,
	}
}

/* Execute runs fn under breaker protection. When the circuit is open
 * and the reset timeout has not elapsed, fn is not invoked and the
 * error wraps ErrCircuitOpen. */
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	cb.mu.Lock()
	if cb.state == StateOpen {
		if time.Since(cb.lastFailure) >= cb.resetTimeout {
			cb.transition(StateHalfOpen)
			cb.failureCount = 0
		} else {
			cb.mu.Unlock()
			return fmt.Errorf("%w: service=%s", ErrCircuitOpen, cb.name)
		}
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failureCount++
		cb.lastFailure = time.Now()

		if cb.state == StateHalfOpen {
			/* The probe failed; back to open */
			cb.transition(StateOpen)
		} else if cb.failureCount >= cb.maxFailures {
			cb.transition(StateOpen)
		}
		return err
	}

	if cb.state == StateHalfOpen {
		cb.transition(StateClosed)
	}
	cb.failureCount = 0
	return nil
}

/* transition changes state; callers hold cb.mu */
func (cb *CircuitBreaker) transition(to CircuitState) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to

	metrics.InfoWithContext(context.Background(), "Circuit breaker state changed", map[string]interface{}{
		"circuit": cb.name,
		"from":    string(from),
		"to":      string(to),
	})
}

/* State returns the current circuit breaker state */
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
