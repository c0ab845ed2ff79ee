// Package circuitbreaker isolates a failing upstream provider so that a
// provider outage degrades one data fragment instead of stalling every view.
package circuitbreaker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrOpen is returned by Allow while the breaker is rejecting calls.
var ErrOpen = errors.New("circuit breaker open")

// State represents the current state of the circuit breaker
type State int

// Circuit breaker states
const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Tripped, calls are rejected
	StateHalfOpen              // Probing whether the upstream has recovered
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures a CircuitBreaker.
type Options struct {
	// Name identifies the protected upstream in logs and metrics
	Name string

	// FailureThreshold is the number of consecutive failures that trips the breaker
	FailureThreshold int

	// ResetDelay is how long the breaker stays open before probing again
	ResetDelay time.Duration

	// SuccessThreshold is the number of half-open successes needed to close
	SuccessThreshold int

	// OnTrip is invoked asynchronously whenever the breaker opens
	OnTrip func(name, reason string)

	// Now replaces the wall clock in tests
	Now func() time.Time
}

// CircuitBreaker tracks consecutive failures of one upstream.
type CircuitBreaker struct {
	opts Options

	mu           sync.RWMutex
	state        State
	lastTrip     time.Time
	lastReason   string
	failureCount int
	successCount int
}

// New creates a closed CircuitBreaker, filling unset options with defaults.
func New(opts Options) *CircuitBreaker {
	if opts.FailureThreshold <= 0 {
		opts.FailureThreshold = 3
	}
	if opts.ResetDelay <= 0 {
		opts.ResetDelay = time.Minute
	}
	if opts.SuccessThreshold <= 0 {
		opts.SuccessThreshold = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &CircuitBreaker{opts: opts, state: StateClosed}
}

// Name returns the name of the protected upstream.
func (cb *CircuitBreaker) Name() string {
	return cb.opts.Name
}

// Allow reports whether a call may proceed. An open breaker whose reset
// delay has elapsed moves to half-open and lets the call through.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return nil
	}
	if cb.opts.Now().Sub(cb.lastTrip) < cb.opts.ResetDelay {
		return fmt.Errorf("%s: %w", cb.opts.Name, ErrOpen)
	}

	cb.state = StateHalfOpen
	cb.successCount = 0
	logrus.WithField("upstream", cb.opts.Name).Info("Circuit breaker half-open: probing upstream")
	return nil
}

// RecordSuccess registers a successful call.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	if cb.state == StateHalfOpen {
		cb.successCount++
		if cb.successCount >= cb.opts.SuccessThreshold {
			cb.state = StateClosed
			cb.successCount = 0
			logrus.WithField("upstream", cb.opts.Name).Info("Circuit breaker closed: upstream recovered")
		}
	}
}

// RecordFailure registers a failed call and trips the breaker when the
// failure threshold is reached or a half-open probe fails.
func (cb *CircuitBreaker) RecordFailure(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	reason := "upstream failure"
	if err != nil {
		reason = err.Error()
	}

	if cb.state == StateHalfOpen {
		cb.trip("probe failed: " + reason)
		return
	}

	cb.failureCount++
	if cb.state == StateClosed && cb.failureCount >= cb.opts.FailureThreshold {
		cb.trip(fmt.Sprintf("%d consecutive failures, last: %s", cb.failureCount, reason))
	}
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Status is a point-in-time view of a breaker for the status endpoint.
type Status struct {
	Name       string    `json:"name"`
	State      string    `json:"state"`
	Failures   int       `json:"consecutive_failures"`
	LastTrip   time.Time `json:"last_trip,omitempty"`
	LastReason string    `json:"last_reason,omitempty"`
}

// Snapshot returns the breaker status.
func (cb *CircuitBreaker) Snapshot() Status {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return Status{
		Name:       cb.opts.Name,
		State:      cb.state.String(),
		Failures:   cb.failureCount,
		LastTrip:   cb.lastTrip,
		LastReason: cb.lastReason,
	}
}

// Reset forcibly resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failureCount = 0
	cb.successCount = 0
	logrus.WithField("upstream", cb.opts.Name).Info("Circuit breaker manually reset to closed state")
}

// trip opens the breaker. Callers hold the write lock.
func (cb *CircuitBreaker) trip(reason string) {
	cb.state = StateOpen
	cb.lastTrip = cb.opts.Now()
	cb.lastReason = reason
	cb.failureCount = 0
	cb.successCount = 0
	logrus.WithFields(logrus.Fields{
		"upstream": cb.opts.Name,
		"reason":   reason,
	}).Warn("Circuit breaker tripped")

	if cb.opts.OnTrip != nil {
		go cb.opts.OnTrip(cb.opts.Name, reason)
	}
}
