package dashboard

import (
	"sync"
	"time"
)

const defaultSnapshotTTL = 15 * time.Minute

// viewSnapshots retains the last committed payload per (user, view) and
// enforces a monotonic refresh order: every refresh takes a sequence
// number before fetching, and a commit is rejected when a later refresh
// already committed. A slow response from an old refresh can therefore
// never overwrite a newer one. Entries expire after a TTL so the cache
// does not grow with every user the process has ever served.
type viewSnapshots struct {
	mu        sync.Mutex
	ttl       time.Duration
	clock     func() time.Time
	issued    map[string]uint64
	committed map[string]uint64
	payloads  map[string]snapshotEntry
}

type snapshotEntry struct {
	payload     any
	committedAt time.Time
}

func newViewSnapshots(ttl time.Duration, clock func() time.Time) *viewSnapshots {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &viewSnapshots{
		ttl:       ttl,
		clock:     clock,
		issued:    map[string]uint64{},
		committed: map[string]uint64{},
		payloads:  map[string]snapshotEntry{},
	}
}

func snapshotKey(userID string, view string) string {
	return userID + "\x00" + view
}

// Begin issues the next refresh sequence for a view.
func (snapshots *viewSnapshots) Begin(userID string, view string) uint64 {
	snapshots.mu.Lock()
	defer snapshots.mu.Unlock()
	key := snapshotKey(userID, view)
	snapshots.issued[key]++
	return snapshots.issued[key]
}

// Commit stores a refreshed payload unless a later refresh already
// committed. It reports whether the payload was accepted.
func (snapshots *viewSnapshots) Commit(userID string, view string, sequence uint64, payload any) bool {
	snapshots.mu.Lock()
	defer snapshots.mu.Unlock()
	snapshots.evictExpired()
	key := snapshotKey(userID, view)
	if sequence < snapshots.committed[key] {
		return false
	}
	snapshots.committed[key] = sequence
	snapshots.payloads[key] = snapshotEntry{payload: payload, committedAt: snapshots.clock()}
	return true
}

// Latest returns the last committed payload for a view, if it has not
// expired.
func (snapshots *viewSnapshots) Latest(userID string, view string) (any, bool) {
	snapshots.mu.Lock()
	defer snapshots.mu.Unlock()
	entry, ok := snapshots.payloads[snapshotKey(userID, view)]
	if !ok || snapshots.expired(entry) {
		return nil, false
	}
	return entry.payload, true
}

// Forget drops a user's snapshots, used on logout.
func (snapshots *viewSnapshots) Forget(userID string) {
	snapshots.mu.Lock()
	defer snapshots.mu.Unlock()
	prefix := userID + "\x00"
	for key := range snapshots.payloads {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			snapshots.drop(key)
		}
	}
}

// evictExpired sweeps expired entries; called under the lock.
func (snapshots *viewSnapshots) evictExpired() {
	for key, entry := range snapshots.payloads {
		if snapshots.expired(entry) {
			snapshots.drop(key)
		}
	}
}

func (snapshots *viewSnapshots) expired(entry snapshotEntry) bool {
	return snapshots.clock().Sub(entry.committedAt) > snapshots.ttl
}

func (snapshots *viewSnapshots) drop(key string) {
	delete(snapshots.payloads, key)
	delete(snapshots.issued, key)
	delete(snapshots.committed, key)
}
