package dashboard

import (
	"testing"
	"time"
)

func TestSnapshotsRejectStaleCommit(t *testing.T) {
	t.Parallel()
	snapshots := newViewSnapshots(0, nil)

	older := snapshots.Begin("user-1", "overview")
	newer := snapshots.Begin("user-1", "overview")

	if !snapshots.Commit("user-1", "overview", newer, "fresh") {
		t.Fatalf("newer commit must be accepted")
	}
	if snapshots.Commit("user-1", "overview", older, "stale") {
		t.Fatalf("older commit must be rejected after a newer one landed")
	}
	payload, ok := snapshots.Latest("user-1", "overview")
	if !ok || payload != "fresh" {
		t.Fatalf("expected latest payload to stay fresh, got %v", payload)
	}
}

func TestSnapshotsIsolatePerUserAndView(t *testing.T) {
	t.Parallel()
	snapshots := newViewSnapshots(0, nil)

	first := snapshots.Begin("user-1", "overview")
	if !snapshots.Commit("user-1", "overview", first, "one") {
		t.Fatalf("commit failed")
	}
	other := snapshots.Begin("user-2", "overview")
	if !snapshots.Commit("user-2", "overview", other, "two") {
		t.Fatalf("second user's commit must be independent")
	}
	history := snapshots.Begin("user-1", "history")
	if !snapshots.Commit("user-1", "history", history, "three") {
		t.Fatalf("separate view must track its own sequence")
	}

	payload, ok := snapshots.Latest("user-1", "overview")
	if !ok || payload != "one" {
		t.Fatalf("expected user-1 overview to keep its payload, got %v", payload)
	}
}

func TestSnapshotsForgetDropsUser(t *testing.T) {
	t.Parallel()
	snapshots := newViewSnapshots(0, nil)

	sequence := snapshots.Begin("user-1", "overview")
	if !snapshots.Commit("user-1", "overview", sequence, "cached") {
		t.Fatalf("commit failed")
	}
	kept := snapshots.Begin("user-2", "overview")
	if !snapshots.Commit("user-2", "overview", kept, "other") {
		t.Fatalf("commit failed")
	}

	snapshots.Forget("user-1")

	if _, ok := snapshots.Latest("user-1", "overview"); ok {
		t.Fatalf("forgotten user must have no snapshots")
	}
	if _, ok := snapshots.Latest("user-2", "overview"); !ok {
		t.Fatalf("other users' snapshots must survive")
	}
}

func TestSnapshotsExpireAfterTTL(t *testing.T) {
	t.Parallel()
	now := time.Unix(1_700_000_000, 0)
	snapshots := newViewSnapshots(time.Minute, func() time.Time { return now })

	sequence := snapshots.Begin("user-1", "overview")
	if !snapshots.Commit("user-1", "overview", sequence, "cached") {
		t.Fatalf("commit failed")
	}

	now = now.Add(30 * time.Second)
	if _, ok := snapshots.Latest("user-1", "overview"); !ok {
		t.Fatalf("snapshot within the TTL must be served")
	}

	now = now.Add(time.Minute)
	if _, ok := snapshots.Latest("user-1", "overview"); ok {
		t.Fatalf("snapshot past the TTL must not be served")
	}

	// A commit on another user sweeps expired entries out of the maps.
	other := snapshots.Begin("user-2", "overview")
	if !snapshots.Commit("user-2", "overview", other, "fresh") {
		t.Fatalf("commit failed")
	}
	snapshots.mu.Lock()
	_, retained := snapshots.payloads[snapshotKey("user-1", "overview")]
	snapshots.mu.Unlock()
	if retained {
		t.Fatalf("expired snapshot must be evicted from the cache")
	}
}
