package metrics

import (
	"sort"
	"testing"
	"time"
)

func TestSnapshotEmptyProvider(t *testing.T) {
	r := NewRegistry(0)
	snap := r.Snapshot("aerodata")
	if snap.Requests != 0 || snap.SuccessRate != 0 || snap.AvgLatencyMs != 0 {
		t.Fatalf("empty snapshot = %+v", snap)
	}
}

func TestSnapshotMixedOutcomes(t *testing.T) {
	r := NewRegistry(8)
	r.Record("aerodata", 100*time.Millisecond, true)
	r.Record("aerodata", 200*time.Millisecond, true)
	r.Record("aerodata", 300*time.Millisecond, false)
	r.Record("aerodata", 400*time.Millisecond, true)

	snap := r.Snapshot("aerodata")
	if snap.Requests != 4 || snap.Failures != 1 {
		t.Fatalf("counters = %d/%d, want 4/1", snap.Requests, snap.Failures)
	}
	if snap.SuccessRate != 0.75 {
		t.Fatalf("success rate = %f, want 0.75", snap.SuccessRate)
	}
	if snap.AvgLatencyMs != 250 {
		t.Fatalf("avg latency = %f, want 250", snap.AvgLatencyMs)
	}
}

func TestWindowDropsOldSamples(t *testing.T) {
	r := NewRegistry(4)
	for i := 0; i < 4; i++ {
		r.Record("aerodata", 100*time.Millisecond, false)
	}
	for i := 0; i < 4; i++ {
		r.Record("aerodata", 100*time.Millisecond, true)
	}

	snap := r.Snapshot("aerodata")
	if snap.SuccessRate != 1.0 {
		t.Fatalf("success rate = %f, old failures should have rolled out", snap.SuccessRate)
	}
	// Lifetime counters still see everything.
	if snap.Requests != 8 || snap.Failures != 4 {
		t.Fatalf("counters = %d/%d, want 8/4", snap.Requests, snap.Failures)
	}
}

func TestProvidersListing(t *testing.T) {
	r := NewRegistry(0)
	r.Record("aerodata", time.Millisecond, true)
	r.Record("farebeam", time.Millisecond, true)

	names := r.Providers()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "aerodata" || names[1] != "farebeam" {
		t.Fatalf("providers = %v", names)
	}
}
