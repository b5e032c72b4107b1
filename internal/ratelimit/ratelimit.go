package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Budget configures one provider's call allowance.
type Budget struct {
	// Calls allowed per period. Zero disables the provider.
	PeriodQuota int
	// Period length; the budget refills at UTC-aligned period boundaries
	// (daily quota rolls over at midnight UTC).
	Period time.Duration
	// Optional per-minute smoothing on top of the period quota. Zero
	// disables smoothing.
	PerMinute int
}

type providerBudget struct {
	mu          sync.Mutex
	quota       int
	remaining   int
	period      time.Duration
	periodStart time.Time
	smoother    *rate.Limiter
}

// Limiter tracks per-provider call budgets. TryAcquire never blocks: an
// exhausted budget means "skip this provider now".
type Limiter struct {
	mu      sync.RWMutex
	budgets map[string]*providerBudget
	now     func() time.Time
}

// New builds a limiter for the given provider budgets.
func New(budgets map[string]Budget) *Limiter {
	l := &Limiter{
		budgets: make(map[string]*providerBudget, len(budgets)),
		now:     time.Now,
	}
	for name, b := range budgets {
		l.Register(name, b)
	}
	return l
}

// Register adds or replaces the budget for a provider.
func (l *Limiter) Register(name string, b Budget) {
	period := b.Period
	if period <= 0 {
		period = 24 * time.Hour
	}

	pb := &providerBudget{
		quota:  b.PeriodQuota,
		period: period,
	}
	if b.PerMinute > 0 {
		pb.smoother = rate.NewLimiter(rate.Limit(float64(b.PerMinute)/60), 1)
	}

	l.mu.Lock()
	l.budgets[name] = pb
	l.mu.Unlock()
}

// TryAcquire consumes one unit from the provider's budget if available.
// The unit is spent regardless of the eventual call outcome.
func (l *Limiter) TryAcquire(provider string) bool {
	l.mu.RLock()
	pb, ok := l.budgets[provider]
	l.mu.RUnlock()
	if !ok {
		// Unregistered providers are not limited.
		return true
	}

	pb.mu.Lock()
	defer pb.mu.Unlock()

	now := l.now().UTC()
	periodStart := now.Truncate(pb.period)
	if periodStart.After(pb.periodStart) {
		pb.periodStart = periodStart
		pb.remaining = pb.quota
	}

	if pb.remaining <= 0 {
		return false
	}
	if pb.smoother != nil && !pb.smoother.Allow() {
		return false
	}

	pb.remaining--
	return true
}

// Remaining reports how many calls are left in the provider's current
// period. Unregistered providers report -1.
func (l *Limiter) Remaining(provider string) int {
	l.mu.RLock()
	pb, ok := l.budgets[provider]
	l.mu.RUnlock()
	if !ok {
		return -1
	}

	pb.mu.Lock()
	defer pb.mu.Unlock()

	now := l.now().UTC()
	if now.Truncate(pb.period).After(pb.periodStart) {
		return pb.quota
	}
	return pb.remaining
}

// SetClock overrides the time source. Test hook.
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
}
