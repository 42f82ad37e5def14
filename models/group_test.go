package models

import (
	"testing"
	"time"
)

func TestReconcile(t *testing.T) {
	tests := []struct {
		name          string
		group         Group
		wantCount     int
		wantMaxMembers int
	}{
		{
			name:          "members set wins over stale count",
			group:         Group{GroupID: "g1", Members: []string{"a", "b", "c"}, MemberCount: 1, MaxMembers: 4},
			wantCount:     3,
			wantMaxMembers: 4,
		},
		{
			name:          "count trusted when members absent",
			group:         Group{GroupID: "g2", MemberCount: 2, MaxMembers: 4},
			wantCount:     2,
			wantMaxMembers: 4,
		},
		{
			name:          "negative count clamped to zero",
			group:         Group{GroupID: "g3", MemberCount: -1, MaxMembers: 4},
			wantCount:     0,
			wantMaxMembers: 4,
		},
		{
			name:          "count clamped to capacity",
			group:         Group{GroupID: "g4", MemberCount: 9, MaxMembers: 4},
			wantCount:     4,
			wantMaxMembers: 4,
		},
		{
			name:          "zero capacity gets the default",
			group:         Group{GroupID: "g5", Members: []string{"a"}},
			wantCount:     1,
			wantMaxMembers: DefaultMaxMembers,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.group.Reconcile()
			if tt.group.MemberCount != tt.wantCount {
				t.Errorf("MemberCount = %d, want %d", tt.group.MemberCount, tt.wantCount)
			}
			if tt.group.MaxMembers != tt.wantMaxMembers {
				t.Errorf("MaxMembers = %d, want %d", tt.group.MaxMembers, tt.wantMaxMembers)
			}
		})
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	ttl := 30 * time.Minute

	fresh := Group{GroupID: "fresh", Timestamp: now.Add(-5 * time.Minute).UnixMilli()}
	if fresh.Expired(now, ttl) {
		t.Error("5-minute-old group should not be expired")
	}

	stale := Group{GroupID: "stale", Timestamp: now.Add(-40 * time.Minute).UnixMilli()}
	if !stale.Expired(now, ttl) {
		t.Error("40-minute-old group should be expired")
	}
}

func TestAvailableSeats(t *testing.T) {
	g := Group{MaxMembers: 4, MemberCount: 3}
	if got := g.AvailableSeats(); got != 1 {
		t.Errorf("AvailableSeats = %d, want 1", got)
	}

	full := Group{MaxMembers: 4, MemberCount: 4}
	if got := full.AvailableSeats(); got != 0 {
		t.Errorf("AvailableSeats on full group = %d, want 0", got)
	}
}

func TestCloneDoesNotShareMembers(t *testing.T) {
	original := Group{GroupID: "g1", Members: []string{"a", "b"}}
	clone := original.Clone()
	clone.Members[0] = "z"

	if original.Members[0] != "a" {
		t.Error("mutating a clone leaked into the original members slice")
	}
}

func TestRefreshPage(t *testing.T) {
	one, three := 1, 3

	tests := []struct {
		name string
		page GroupPage
		want int
	}{
		{"prefers prev+1", GroupPage{PrevPage: &one, NextPage: &three}, 2},
		{"falls back to next-1", GroupPage{NextPage: &three}, 2},
		{"first page without keys", GroupPage{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.page.RefreshPage(); got != tt.want {
				t.Errorf("RefreshPage() = %d, want %d", got, tt.want)
			}
		})
	}
}
