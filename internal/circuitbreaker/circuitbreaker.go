// Package circuitbreaker fails RPC calls fast once an endpoint has proven
// itself unhealthy, instead of letting every submission attempt grind
// through the same dead node.
package circuitbreaker

import (
	"fmt"
	"sync"
	"time"
)

// ErrOpen is returned by Do while the breaker refuses calls.
var ErrOpen = fmt.Errorf("circuit breaker open: endpoint temporarily unavailable")

// State of the breaker.
type State int

const (
	StateClosed   State = iota // calls pass through
	StateOpen                  // calls fail fast
	StateHalfOpen              // probing whether the endpoint recovered
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
		return "unknown"
	}
}

// Config tunes when the breaker trips and recovers.
type Config struct {
	// TripAfter is the failure streak that opens the breaker.
	TripAfter int

	// Cooldown is how long the breaker stays open before probing again.
	Cooldown time.Duration

	// RecoverAfter is the success streak, while probing, that closes the
	// breaker again.
	RecoverAfter int
}

// DefaultConfig trips after 5 straight failures, cools down for 30 seconds
// and closes again after 2 straight good probes.
func DefaultConfig() Config {
	return Config{
		TripAfter:    5,
		Cooldown:     30 * time.Second,
		RecoverAfter: 2,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TripAfter <= 0 {
		c.TripAfter = d.TripAfter
	}
	if c.Cooldown <= 0 {
		c.Cooldown = d.Cooldown
	}
	if c.RecoverAfter <= 0 {
		c.RecoverAfter = d.RecoverAfter
	}
	return c
}

// Breaker guards one endpoint. The zero value is not usable; create it with
// New. Safe for concurrent use.
type Breaker struct {
	mu sync.Mutex

	cfg Config

	state       State
	failStreak  int
	okStreak    int
	openedUntil time.Time
}

// New creates a breaker, filling zero config fields with defaults.
func New(cfg Config) *Breaker {
	return &Breaker{cfg: cfg.withDefaults(), state: StateClosed}
}

// Do runs fn through the breaker: ErrOpen without calling fn while the
// breaker is open, otherwise fn's error with the outcome recorded.
func (b *Breaker) Do(fn func() error) error {
	if !b.allow() {
		return ErrOpen
	}
	err := fn()
	b.record(err == nil)
	return err
}

// State returns the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.effectiveState()
}

// Reset forces the breaker closed and clears both streaks.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failStreak = 0
	b.okStreak = 0
}

// effectiveState folds cooldown expiry into the stored state.
// Caller must hold the lock.
func (b *Breaker) effectiveState() State {
	if b.state == StateOpen && time.Now().After(b.openedUntil) {
		return StateHalfOpen
	}
	return b.state
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.effectiveState() != StateOpen
}

func (b *Breaker) record(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.effectiveState()

	if ok {
		b.failStreak = 0
		b.okStreak++
		if state == StateHalfOpen && b.okStreak >= b.cfg.RecoverAfter {
			b.state = StateClosed
			b.okStreak = 0
		}
		return
	}

	b.okStreak = 0
	b.failStreak++
	switch state {
	case StateHalfOpen:
		// one bad probe is enough to re-open
		b.trip()
	case StateClosed:
		if b.failStreak >= b.cfg.TripAfter {
			b.trip()
		}
	}
}

// trip opens the breaker for the configured cooldown.
// Caller must hold the lock.
func (b *Breaker) trip() {
	b.state = StateOpen
	b.openedUntil = time.Now().Add(b.cfg.Cooldown)
}
