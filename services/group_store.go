package services

import (
	"sync"
	"time"

	"poolup_server/models"
)

// GroupStore is the authoritative local snapshot of groups, keyed by group
// id. It supports concurrent readers; writes are serialized, so a reader
// never observes a partially-updated group.
//
// Deletes leave a tombstone stamped with the remote event time. A remote
// update that was reordered behind a fresher delete is discarded instead of
// resurrecting the group; a full pull clears the tombstone and converges.
type GroupStore struct {
	mu         sync.RWMutex
	groups     map[string]models.Group
	tombstones map[string]int64 // group id -> delete event time, epoch millis
	ttl        time.Duration
}

// NewGroupStore creates a store with the given TTL. A non-positive ttl falls
// back to the default 30 minutes.
func NewGroupStore(ttl time.Duration) *GroupStore {
	if ttl <= 0 {
		ttl = models.DefaultGroupTTL
	}
	return &GroupStore{
		groups:     make(map[string]models.Group),
		tombstones: make(map[string]int64),
		ttl:        ttl,
	}
}

// TTL returns the configured time-to-live.
func (s *GroupStore) TTL() time.Duration { return s.ttl }

// Upsert inserts or fully replaces the group by id, reconciling the member
// representation on the way in. A record without an id is a local-invariant
// error and is never stored. Upsert carries full authority: it clears any
// tombstone for the id (used by full pulls and confirmed writes).
func (s *GroupStore) Upsert(group models.Group) error {
	if group.GroupID == "" {
		return InvariantError("upsert rejected: group record has no id")
	}
	group.Reconcile()

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tombstones, group.GroupID)
	s.groups[group.GroupID] = group.Clone()
	return nil
}

// UpsertEvent applies a remote change event stamped with eventTS. The event
// is discarded when a delete with at least the same recency has already been
// applied for the id.
func (s *GroupStore) UpsertEvent(group models.Group, eventTS int64) error {
	if group.GroupID == "" {
		return InvariantError("upsert rejected: group record has no id")
	}
	group.Reconcile()

	s.mu.Lock()
	defer s.mu.Unlock()
	if deletedAt, ok := s.tombstones[group.GroupID]; ok && deletedAt >= eventTS {
		return nil
	}
	delete(s.tombstones, group.GroupID)
	s.groups[group.GroupID] = group.Clone()
	return nil
}

// Remove deletes the group by id, tombstoning it at the current time.
// Removing an absent id is a no-op, not an error.
func (s *GroupStore) Remove(id string) {
	s.RemoveEvent(id, time.Now().UnixMilli())
}

// RemoveEvent deletes the group by id, tombstoning it at the remote event
// time so older updates cannot resurrect it.
func (s *GroupStore) RemoveEvent(id string, eventTS int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, id)
	if prev, ok := s.tombstones[id]; !ok || eventTS > prev {
		s.tombstones[id] = eventTS
	}
	s.pruneTombstonesLocked()
}

// GetByID returns a snapshot copy of the group, if present.
func (s *GroupStore) GetByID(id string) (models.Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	group, ok := s.groups[id]
	if !ok {
		return models.Group{}, false
	}
	return group.Clone(), true
}

// AllActive returns snapshot copies of every stored group whose age at now
// is within the TTL. Expired-but-not-yet-evicted entries are excluded from
// the view but stay physically present until eviction removes them.
func (s *GroupStore) AllActive(now time.Time) []models.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Group, 0, len(s.groups))
	for _, group := range s.groups {
		if group.Expired(now, s.ttl) {
			continue
		}
		out = append(out, group.Clone())
	}
	return out
}

// ExpiredIDs returns the ids of every stored group whose age at now exceeds
// the TTL. These are the eviction candidates.
func (s *GroupStore) ExpiredIDs(now time.Time) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for id, group := range s.groups {
		if group.Expired(now, s.ttl) {
			out = append(out, id)
		}
	}
	return out
}

// Len returns the number of physically stored groups, expired ones included.
func (s *GroupStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.groups)
}

// Tombstones older than the TTL can no longer shadow anything a query would
// return; drop them so the map stays bounded.
func (s *GroupStore) pruneTombstonesLocked() {
	cutoff := time.Now().Add(-s.ttl).UnixMilli()
	for id, ts := range s.tombstones {
		if ts < cutoff {
			delete(s.tombstones, id)
		}
	}
}
