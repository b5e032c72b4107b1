package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/juankaspain/vuelosrobot-sub000/internal/acquire"
	"github.com/juankaspain/vuelosrobot-sub000/internal/deals"
	"github.com/juankaspain/vuelosrobot-sub000/internal/estimator"
	"github.com/juankaspain/vuelosrobot-sub000/internal/flight"
	"github.com/juankaspain/vuelosrobot-sub000/internal/history"
	"github.com/juankaspain/vuelosrobot-sub000/internal/metrics"
	"github.com/juankaspain/vuelosrobot-sub000/internal/pricecache"
)

type fakeLocker struct {
	acquired bool
	unlocked bool
}

func (f *fakeLocker) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	if !f.acquired {
		return nil, false, nil
	}
	return func() { f.unlocked = true }, true, nil
}

type fakePruner struct {
	mu      sync.Mutex
	deletes int
}

func (f *fakePruner) DeleteHistoryBefore(ctx context.Context, olderThan time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	return nil
}

func (f *fakePruner) CountHistory(ctx context.Context) (int64, error) {
	return 0, nil
}

func testOrchestrator(t *testing.T) *acquire.Orchestrator {
	t.Helper()
	return acquire.New(
		nil, // no live providers: every route degrades to the estimator
		pricecache.New(10),
		estimator.New(estimator.Options{Seed: 1}, zerolog.Nop()),
		history.NewStore(history.Options{}, nil, zerolog.Nop()),
		deals.NewDetector(deals.Options{}, zerolog.Nop()),
		metrics.NewRegistry(0),
		nil,
		nil,
		acquire.Options{},
		zerolog.Nop(),
	)
}

func testRoutes(t *testing.T) []flight.Route {
	t.Helper()
	route, err := flight.NewRoute("MAD", "BCN")
	if err != nil {
		t.Fatal(err)
	}
	return []flight.Route{route}
}

func TestScanCycleRunsAndPrunes(t *testing.T) {
	locker := &fakeLocker{acquired: true}
	pruner := &fakePruner{}

	svc := New(nil, testOrchestrator(t), locker, pruner, Options{
		Routes:      testRoutes(t),
		HorizonDays: 14,
		LockKey:     42,
		Retention:   24 * time.Hour,
	}, zerolog.Nop())

	if err := svc.ScanCycle(context.Background(), time.Now().UTC()); err != nil {
		t.Fatalf("ScanCycle: %v", err)
	}
	if !locker.unlocked {
		t.Fatal("advisory lock should be released after the cycle")
	}
	if pruner.deletes != 1 {
		t.Fatalf("prune deletes = %d, want 1", pruner.deletes)
	}
}

func TestScanCycleSkipsWhenLockHeldElsewhere(t *testing.T) {
	locker := &fakeLocker{acquired: false}
	pruner := &fakePruner{}

	svc := New(nil, testOrchestrator(t), locker, pruner, Options{
		Routes:    testRoutes(t),
		LockKey:   42,
		Retention: 24 * time.Hour,
	}, zerolog.Nop())

	if err := svc.ScanCycle(context.Background(), time.Now().UTC()); err != nil {
		t.Fatalf("ScanCycle: %v", err)
	}
	if pruner.deletes != 0 {
		t.Fatal("a skipped cycle must not prune")
	}
}

func TestScanCycleWithoutPersistence(t *testing.T) {
	svc := New(nil, testOrchestrator(t), nil, nil, Options{
		Routes: testRoutes(t),
	}, zerolog.Nop())

	if err := svc.ScanCycle(context.Background(), time.Now().UTC()); err != nil {
		t.Fatalf("ScanCycle without persistence: %v", err)
	}
}
