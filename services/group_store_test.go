package services

import (
	"testing"
	"time"

	"poolup_server/models"
)

func TestUpsertAndGetByID(t *testing.T) {
	store := NewGroupStore(0)

	group := models.Group{GroupID: "g1", Members: []string{"a", "b"}, MemberCount: 1, Timestamp: time.Now().UnixMilli()}
	if err := store.Upsert(group); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, ok := store.GetByID("g1")
	if !ok {
		t.Fatal("expected group to be present")
	}
	if got.MemberCount != 2 {
		t.Errorf("member count not reconciled to members set: got %d, want 2", got.MemberCount)
	}

	// Same id is a replacement, never a duplicate.
	group.DestinationName = "Airport"
	if err := store.Upsert(group); err != nil {
		t.Fatalf("replacing upsert failed: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("store holds %d entries, want 1", store.Len())
	}
	got, _ = store.GetByID("g1")
	if got.DestinationName != "Airport" {
		t.Errorf("replacement did not take: destination %q", got.DestinationName)
	}
}

func TestUpsertRejectsMissingID(t *testing.T) {
	store := NewGroupStore(0)
	err := store.Upsert(models.Group{DestinationName: "nowhere"})
	if err == nil {
		t.Fatal("expected an error for a record without an id")
	}
	if Classify(err) != ErrInvariant {
		t.Errorf("missing-id error classified as %v, want ErrInvariant", Classify(err))
	}
	if store.Len() != 0 {
		t.Error("malformed record must never be stored")
	}
}

func TestAllActiveExcludesExpired(t *testing.T) {
	store := NewGroupStore(30 * time.Minute)
	now := time.Now()

	store.Upsert(models.Group{GroupID: "A", Timestamp: now.Add(-40 * time.Minute).UnixMilli()})
	store.Upsert(models.Group{GroupID: "B", Timestamp: now.Add(-5 * time.Minute).UnixMilli()})

	active := store.AllActive(now)
	if len(active) != 1 || active[0].GroupID != "B" {
		t.Fatalf("AllActive = %v, want only B", active)
	}

	// Expired entries stay physically present until eviction.
	if store.Len() != 2 {
		t.Errorf("store holds %d entries, want 2", store.Len())
	}

	expired := store.ExpiredIDs(now)
	if len(expired) != 1 || expired[0] != "A" {
		t.Fatalf("ExpiredIDs = %v, want [A]", expired)
	}
}

func TestRemoveAbsentIsNoOp(t *testing.T) {
	store := NewGroupStore(0)
	store.Remove("never-existed") // must not panic or error
	if store.Len() != 0 {
		t.Error("store should stay empty")
	}
}

func TestTombstoneBlocksStaleUpdate(t *testing.T) {
	store := NewGroupStore(0)
	now := time.Now().UnixMilli()

	store.Upsert(models.Group{GroupID: "g1", Timestamp: time.Now().UnixMilli()})
	store.RemoveEvent("g1", now)

	// An update event older than the delete must not resurrect the group.
	stale := models.Group{GroupID: "g1", Timestamp: time.Now().UnixMilli()}
	if err := store.UpsertEvent(stale, now-1000); err != nil {
		t.Fatalf("UpsertEvent failed: %v", err)
	}
	if _, ok := store.GetByID("g1"); ok {
		t.Error("stale update resurrected a deleted group")
	}

	// A fresher update wins over the tombstone.
	if err := store.UpsertEvent(stale, now+1000); err != nil {
		t.Fatalf("UpsertEvent failed: %v", err)
	}
	if _, ok := store.GetByID("g1"); !ok {
		t.Error("fresher update should re-create the group")
	}
}

func TestFullUpsertClearsTombstone(t *testing.T) {
	store := NewGroupStore(0)
	store.RemoveEvent("g1", time.Now().UnixMilli())

	// A full pull is authoritative and converges past any tombstone.
	if err := store.Upsert(models.Group{GroupID: "g1", Timestamp: time.Now().UnixMilli()}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if _, ok := store.GetByID("g1"); !ok {
		t.Error("authoritative upsert should override the tombstone")
	}
}

func TestSnapshotReadsDoNotShareState(t *testing.T) {
	store := NewGroupStore(0)
	store.Upsert(models.Group{GroupID: "g1", Members: []string{"a"}, Timestamp: time.Now().UnixMilli()})

	snapshot := store.AllActive(time.Now())
	snapshot[0].Members[0] = "mutated"

	got, _ := store.GetByID("g1")
	if got.Members[0] != "a" {
		t.Error("mutating a snapshot leaked into the store")
	}
}
