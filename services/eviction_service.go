package services

import (
	"context"
	"fmt"
	"log"
	"time"
)

// EvictionService periodically removes groups whose age has passed the TTL.
// Each run removes the candidates locally first, then requests remote
// deletion through the sync service. Local removal is never rolled back: not
// re-showing expired groups wins over perfect remote/local consistency. A
// remote failure is the run's result so the host scheduler re-invokes later.
type EvictionService struct {
	Store    *GroupStore
	Sync     *GroupSyncService
	Interval time.Duration
}

// DefaultEvictionInterval matches the group TTL.
const DefaultEvictionInterval = 30 * time.Minute

func NewEvictionService(store *GroupStore, sync *GroupSyncService, interval time.Duration) *EvictionService {
	if interval <= 0 {
		interval = DefaultEvictionInterval
	}
	return &EvictionService{Store: store, Sync: sync, Interval: interval}
}

// Start runs the eviction loop until ctx is cancelled.
func (s *EvictionService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	log.Printf("Eviction scheduler started, interval %v", s.Interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("Eviction scheduler stopped")
			return
		case <-ticker.C:
			if evicted, err := s.RunOnce(ctx); err != nil {
				log.Printf("❌ Eviction run failed (will retry next interval): %v", err)
			} else if len(evicted) > 0 {
				log.Printf("Evicted %d expired groups", len(evicted))
			}
		}
	}
}

// RunOnce performs a single eviction pass and returns the evicted ids.
// Running twice with no newly expired groups in between yields an empty set
// and no error.
func (s *EvictionService) RunOnce(ctx context.Context) ([]string, error) {
	expired := s.Store.ExpiredIDs(time.Now())
	if len(expired) == 0 {
		return nil, nil
	}

	for _, id := range expired {
		s.Store.Remove(id)
	}

	if err := s.Sync.DeleteMany(ctx, expired); err != nil {
		return expired, fmt.Errorf("removed %d expired groups locally but remote deletion failed: %w", len(expired), err)
	}
	return expired, nil
}
