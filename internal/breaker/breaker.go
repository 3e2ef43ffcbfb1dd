// Package breaker implements a circuit breaker for the REST transport.
//
// After a run of consecutive failures the breaker opens and rejects calls
// without touching the network, which lets the loaders go straight to
// synthetic data while the backend is down. After the cooldown a single
// trial call is let through (half-open); success closes the circuit.
package breaker

import (
	"errors"
	"sync"
	"time"
)

// State is the breaker state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when a call is rejected because the circuit is open.
var ErrOpen = errors.New("circuit breaker is open")

// Breaker is safe for concurrent use. The zero value is not usable; call New.
type Breaker struct {
	mu          sync.Mutex
	threshold   uint32
	cooldown    time.Duration
	failures    uint32
	openedAt    time.Time
	state       State
	trialActive bool
	now         func() time.Time
}

// New creates a breaker that opens after threshold consecutive failures and
// stays open for cooldown. A zero threshold disables the breaker.
func New(threshold uint32, cooldown time.Duration) *Breaker {
	return &Breaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// State returns the current state, accounting for an elapsed cooldown.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.state
}

// Execute runs fn if the circuit allows it. Any non-nil error returned by fn
// counts as a failure; ignore reports errors that should not count (for
// example a caller-cancelled context).
func (b *Breaker) Execute(fn func() error, ignore func(error) bool) error {
	if b.threshold == 0 {
		return fn()
	}

	b.mu.Lock()
	b.advance()
	switch b.state {
	case Open:
		b.mu.Unlock()
		return ErrOpen
	case HalfOpen:
		if b.trialActive {
			b.mu.Unlock()
			return ErrOpen
		}
		b.trialActive = true
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.trialActive = false
	switch {
	case err == nil:
		b.reset()
	case ignore != nil && ignore(err):
		// Inconclusive, state unchanged.
	default:
		b.failures++
		if b.state == HalfOpen || b.failures >= b.threshold {
			b.trip()
		}
	}
	return err
}

// advance moves Open to HalfOpen once the cooldown has elapsed.
// Caller must hold the lock.
func (b *Breaker) advance() {
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cooldown {
		b.state = HalfOpen
	}
}

func (b *Breaker) trip() {
	b.state = Open
	b.openedAt = b.now()
	b.failures = 0
}

func (b *Breaker) reset() {
	b.state = Closed
	b.failures = 0
}
