package breaker

import (
	"sync"
	"time"
)

// State is the circuit breaker state for one provider.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// Config tunes the failure threshold and recovery cooldown.
type Config struct {
	// Consecutive failures that trip CLOSED -> OPEN.
	FailureThreshold int
	// How long the breaker stays OPEN before admitting a trial call.
	Cooldown time.Duration
}

// DefaultConfig matches the provider defaults: three strikes, 30s cooldown.
func DefaultConfig() Config {
	return Config{FailureThreshold: 3, Cooldown: 30 * time.Second}
}

// Breaker gates calls to a single unreliable provider.
//
// CLOSED passes everything through. After FailureThreshold consecutive
// failures the breaker OPENs and short-circuits calls for the cooldown
// window. Once the cooldown elapses the next Allow admits exactly one trial
// call (HALF_OPEN); concurrent callers are rejected until that trial
// resolves. A successful trial closes the breaker and resets the failure
// count, a failed trial re-opens it and restarts the cooldown.
type Breaker struct {
	mu sync.Mutex

	cfg           Config
	state         State
	failures      int
	openedAt      time.Time
	trialInFlight bool
	now           func() time.Time
}

// New builds a breaker in the CLOSED state.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	return &Breaker{cfg: cfg, state: StateClosed, now: time.Now}
}

// Allow reports whether a call may proceed right now. In HALF_OPEN the
// first caller claims the single trial slot; everyone else is rejected
// until RecordSuccess or RecordFailure resolves the trial.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return false
		}
		b.state = StateHalfOpen
		b.trialInFlight = true
		return true
	case StateHalfOpen:
		if b.trialInFlight {
			return false
		}
		b.trialInFlight = true
		return true
	default:
		return false
	}
}

// RecordSuccess resolves a call as successful.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.trialInFlight = false
	b.state = StateClosed
}

// RecordFailure resolves a call as failed.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		// Failed trial: back to OPEN with a fresh cooldown.
		b.state = StateOpen
		b.openedAt = b.now()
		b.trialInFlight = false
		return
	}

	b.failures++
	if b.failures >= b.cfg.FailureThreshold {
		b.state = StateOpen
		b.openedAt = b.now()
	}
}

// State returns the current state, promoting OPEN to HALF_OPEN if the
// cooldown has elapsed so that health reporting matches what Allow would do.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		return StateHalfOpen
	}
	return b.state
}

// SetClock overrides the time source. Test hook.
func (b *Breaker) SetClock(now func() time.Time) {
	b.mu.Lock()
	b.now = now
	b.mu.Unlock()
}
