package ratelimit

import (
	"testing"
	"time"
)

func TestTryAcquireExhaustsBudget(t *testing.T) {
	l := New(map[string]Budget{
		"aerodata": {PeriodQuota: 3, Period: 24 * time.Hour},
	})
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l.SetClock(func() time.Time { return base })

	for i := 0; i < 3; i++ {
		if !l.TryAcquire("aerodata") {
			t.Fatalf("acquire %d should succeed", i+1)
		}
	}
	if l.TryAcquire("aerodata") {
		t.Fatal("fourth acquire should fail, budget exhausted")
	}
	if got := l.Remaining("aerodata"); got != 0 {
		t.Fatalf("remaining = %d, want 0", got)
	}
}

func TestBudgetRollsOverAtPeriodBoundary(t *testing.T) {
	l := New(map[string]Budget{
		"aerodata": {PeriodQuota: 1, Period: 24 * time.Hour},
	})
	now := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	l.SetClock(func() time.Time { return now })

	if !l.TryAcquire("aerodata") {
		t.Fatal("first acquire should succeed")
	}
	if l.TryAcquire("aerodata") {
		t.Fatal("budget should be spent")
	}

	// Just past midnight UTC the quota refills.
	now = time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC)
	if got := l.Remaining("aerodata"); got != 1 {
		t.Fatalf("remaining after rollover = %d, want 1", got)
	}
	if !l.TryAcquire("aerodata") {
		t.Fatal("acquire after rollover should succeed")
	}
}

func TestZeroQuotaDisablesProvider(t *testing.T) {
	l := New(map[string]Budget{
		"farebeam": {PeriodQuota: 0, Period: time.Hour},
	})
	if l.TryAcquire("farebeam") {
		t.Fatal("zero quota should never admit a call")
	}
}

func TestUnregisteredProviderIsUnlimited(t *testing.T) {
	l := New(nil)
	for i := 0; i < 100; i++ {
		if !l.TryAcquire("anything") {
			t.Fatal("unregistered provider should not be limited")
		}
	}
	if got := l.Remaining("anything"); got != -1 {
		t.Fatalf("remaining = %d, want -1 for unregistered provider", got)
	}
}

func TestUnitSpentRegardlessOfOutcome(t *testing.T) {
	l := New(map[string]Budget{
		"aerodata": {PeriodQuota: 2, Period: 24 * time.Hour},
	})
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	l.SetClock(func() time.Time { return base })

	// The caller may fail after acquiring; the unit stays spent.
	l.TryAcquire("aerodata")
	if got := l.Remaining("aerodata"); got != 1 {
		t.Fatalf("remaining = %d, want 1", got)
	}
}
