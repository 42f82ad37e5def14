package services

import (
	"context"
	"testing"
	"time"

	"poolup_server/models"
)

func TestEvictionRemovesExpiredAndDeletesRemotely(t *testing.T) {
	now := time.Now()
	remote := newFakeRemote(
		models.Group{GroupID: "A", Timestamp: now.Add(-40 * time.Minute).UnixMilli()},
		models.Group{GroupID: "B", Timestamp: now.Add(-5 * time.Minute).UnixMilli()},
	)
	store, sync := newSyncFixture(remote)
	sync.PullAll(context.Background())

	evictor := NewEvictionService(store, sync, time.Minute)

	evicted, err := evictor.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if len(evicted) != 1 || evicted[0] != "A" {
		t.Fatalf("evicted = %v, want [A]", evicted)
	}
	if len(remote.deleteCalls) != 1 || len(remote.deleteCalls[0]) != 1 || remote.deleteCalls[0][0] != "A" {
		t.Fatalf("remote deletions = %v, want exactly one DeleteMany([A])", remote.deleteCalls)
	}
	if _, ok := store.GetByID("A"); ok {
		t.Error("A should be gone from the store")
	}
	if _, ok := store.GetByID("B"); !ok {
		t.Error("B should survive eviction")
	}
}

func TestEvictionIsIdempotent(t *testing.T) {
	now := time.Now()
	remote := newFakeRemote(models.Group{GroupID: "A", Timestamp: now.Add(-40 * time.Minute).UnixMilli()})
	store, sync := newSyncFixture(remote)
	sync.PullAll(context.Background())

	evictor := NewEvictionService(store, sync, time.Minute)

	if _, err := evictor.RunOnce(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// No newly expired groups between runs: the second pass must be an
	// empty no-op, not an error.
	evicted, err := evictor.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(evicted) != 0 {
		t.Errorf("second run evicted %v, want nothing", evicted)
	}
	if len(remote.deleteCalls) != 1 {
		t.Errorf("remote delete called %d times, want 1", len(remote.deleteCalls))
	}
}

func TestEvictionKeepsLocalRemovalWhenRemoteFails(t *testing.T) {
	now := time.Now()
	remote := newFakeRemote(models.Group{GroupID: "A", Timestamp: now.Add(-40 * time.Minute).UnixMilli()})
	store, sync := newSyncFixture(remote)
	sync.PullAll(context.Background())
	remote.deleteErr = TransientError("remote down")

	evictor := NewEvictionService(store, sync, time.Minute)

	evicted, err := evictor.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected the remote failure to surface as the run's result")
	}
	if len(evicted) != 1 || evicted[0] != "A" {
		t.Fatalf("evicted = %v, want [A]", evicted)
	}
	// Local removal is not rolled back: expired groups must not reappear.
	if _, ok := store.GetByID("A"); ok {
		t.Error("A must stay locally removed despite the remote failure")
	}
}

func TestEvictionQueriesAgainstThreshold(t *testing.T) {
	store := NewGroupStore(30 * time.Minute)
	now := time.Now()

	store.Upsert(models.Group{GroupID: "edge", Timestamp: now.Add(-29 * time.Minute).UnixMilli()})

	if ids := store.ExpiredIDs(now); len(ids) != 0 {
		t.Errorf("group within TTL flagged for eviction: %v", ids)
	}
	if ids := store.ExpiredIDs(now.Add(2 * time.Minute)); len(ids) != 1 {
		t.Errorf("group past TTL not flagged: %v", ids)
	}
}
