package services

import (
	"context"
	"log"

	"poolup_server/models"
)

// GroupSyncService bridges the local GroupStore to the remote group
// collection. Every remote call runs under the retry policy; transient
// failures are retried, permanent and malformed-data failures are not. The
// store is only touched after the remote call succeeds.
type GroupSyncService struct {
	Remote   GroupRemote
	Store    *GroupStore
	Retry    RetryPolicy
	Notifier GroupNotifier // optional
}

func NewGroupSyncService(remote GroupRemote, store *GroupStore) *GroupSyncService {
	policy := DefaultRetryPolicy()
	policy.ShouldRetry = IsRetryable
	return &GroupSyncService{Remote: remote, Store: store, Retry: policy}
}

// PullAll fetches the full remote collection and upserts every record into
// the store, returning the number ingested. On exhausted failure the store
// is left untouched: stale-but-present beats empty. Records without an id
// are dropped and logged, never stored.
func (s *GroupSyncService) PullAll(ctx context.Context) (int, error) {
	var groups []models.Group
	err := RunWithRetry(ctx, s.Retry, func(ctx context.Context) error {
		var err error
		groups, err = s.Remote.FetchAll(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}

	count := 0
	for _, group := range groups {
		if err := s.Store.Upsert(group); err != nil {
			log.Printf("Dropping malformed group record during pull: %v", err)
			continue
		}
		count++
	}
	log.Printf("Pulled %d groups from remote", count)
	return count, nil
}

// CreateGroup submits a new group. The remote assigns the canonical id; the
// returned record is mirrored into the store.
func (s *GroupSyncService) CreateGroup(ctx context.Context, group models.Group) (models.Group, error) {
	var created models.Group
	err := RunWithRetry(ctx, s.Retry, func(ctx context.Context) error {
		var err error
		created, err = s.Remote.Create(ctx, group)
		return err
	})
	if err != nil {
		return models.Group{}, err
	}

	if err := s.Store.Upsert(created); err != nil {
		return models.Group{}, err
	}
	s.notifyChanged(EventGroupCreated, created)
	return created, nil
}

// JoinGroup adds userID to the group remotely, then mirrors the canonical
// post-update record. Join and leave for the same group must be serialized
// by the caller; the cache does not arbitrate concurrent membership changes
// beyond what the remote's conditional update enforces.
func (s *GroupSyncService) JoinGroup(ctx context.Context, groupID, userID string) (models.Group, error) {
	return s.applyMembership(ctx, groupID, userID, s.Remote.AddMember)
}

// LeaveGroup removes userID from the group remotely, then mirrors the
// canonical post-update record.
func (s *GroupSyncService) LeaveGroup(ctx context.Context, groupID, userID string) (models.Group, error) {
	return s.applyMembership(ctx, groupID, userID, s.Remote.RemoveMember)
}

func (s *GroupSyncService) applyMembership(
	ctx context.Context,
	groupID, userID string,
	op func(ctx context.Context, groupID, userID string) (models.Group, error),
) (models.Group, error) {
	var updated models.Group
	err := RunWithRetry(ctx, s.Retry, func(ctx context.Context) error {
		var err error
		updated, err = op(ctx, groupID, userID)
		return err
	})
	if err != nil {
		return models.Group{}, err
	}

	if err := s.Store.Upsert(updated); err != nil {
		return models.Group{}, err
	}
	s.notifyChanged(EventGroupUpdated, updated)
	return updated, nil
}

// DeleteMany removes the given ids remotely, then from the store. Used by
// the eviction scheduler; deleting already-deleted ids is a no-op success.
func (s *GroupSyncService) DeleteMany(ctx context.Context, groupIDs []string) error {
	if len(groupIDs) == 0 {
		return nil
	}
	err := RunWithRetry(ctx, s.Retry, func(ctx context.Context) error {
		return s.Remote.DeleteMany(ctx, groupIDs)
	})
	if err != nil {
		return err
	}

	for _, id := range groupIDs {
		s.Store.Remove(id)
		if s.Notifier != nil {
			s.Notifier.GroupRemoved(id)
		}
	}
	return nil
}

func (s *GroupSyncService) notifyChanged(event string, group models.Group) {
	if s.Notifier != nil {
		s.Notifier.GroupChanged(event, group)
	}
}
