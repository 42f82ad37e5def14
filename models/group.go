package models

import "time"

// Group represents a short-lived ride-sharing group anchored to a pickup
// point. Groups are created in DynamoDB, mirrored into the local cache, and
// expire once their age exceeds the configured TTL.
type Group struct {
	GroupID         string   `dynamodbav:"groupId" json:"groupId"`
	CreatorID       string   `dynamodbav:"creatorId" json:"creatorId"`
	DestinationName string   `dynamodbav:"destinationName" json:"destinationName"`
	PickupLat       *float64 `dynamodbav:"pickupLat,omitempty" json:"pickupLat,omitempty"` // absent means unknown, never 0,0
	PickupLng       *float64 `dynamodbav:"pickupLng,omitempty" json:"pickupLng,omitempty"`
	Timestamp       int64    `dynamodbav:"timestamp" json:"timestamp"` // creation time, epoch millis
	MaxMembers      int      `dynamodbav:"maxMembers" json:"maxMembers"`
	Members         []string `dynamodbav:"members,stringset,omitempty" json:"members"`
	MemberCount     int      `dynamodbav:"memberCount" json:"memberCount"`
	PopularityScore float64  `dynamodbav:"popularityScore" json:"popularityScore"` // remote-supplied, treated as opaque
	ImageURL        string   `dynamodbav:"imageUrl,omitempty" json:"imageUrl,omitempty"`

	// DistanceKm is computed per query against the caller's coordinate.
	// It is never persisted.
	DistanceKm *float64 `dynamodbav:"-" json:"distanceKm,omitempty"`
}

// Table name for DynamoDB
const GroupsTable = "RideGroups"

// DefaultMaxMembers is the capacity assigned when a group is created without one.
const DefaultMaxMembers = 4

// DefaultGroupTTL is the age after which a group is expired and must not be
// returned by any query.
const DefaultGroupTTL = 30 * time.Minute

// Reconcile normalizes the dual member representation on ingest. The members
// set is the source of truth when present; otherwise the stored count is
// trusted. The count is always clamped into [0, maxMembers].
func (g *Group) Reconcile() {
	if g.MaxMembers <= 0 {
		g.MaxMembers = DefaultMaxMembers
	}
	if len(g.Members) > 0 {
		g.MemberCount = len(g.Members)
	}
	if g.MemberCount < 0 {
		g.MemberCount = 0
	}
	if g.MemberCount > g.MaxMembers {
		g.MemberCount = g.MaxMembers
	}
}

// HasCoordinates reports whether the pickup point is known.
func (g *Group) HasCoordinates() bool {
	return g.PickupLat != nil && g.PickupLng != nil
}

// Age returns how long ago the group was created.
func (g *Group) Age(now time.Time) time.Duration {
	created := time.UnixMilli(g.Timestamp)
	return now.Sub(created)
}

// Expired reports whether the group's age exceeds ttl.
func (g *Group) Expired(now time.Time, ttl time.Duration) bool {
	return g.Age(now) > ttl
}

// HasMember reports whether userID has joined the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// AvailableSeats returns the remaining capacity.
func (g *Group) AvailableSeats() int {
	seats := g.MaxMembers - g.MemberCount
	if seats < 0 {
		return 0
	}
	return seats
}

// Clone returns a deep copy so callers can hand out snapshots without
// sharing the members slice.
func (g Group) Clone() Group {
	out := g
	if g.Members != nil {
		out.Members = append([]string(nil), g.Members...)
	}
	if g.PickupLat != nil {
		lat := *g.PickupLat
		out.PickupLat = &lat
	}
	if g.PickupLng != nil {
		lng := *g.PickupLng
		out.PickupLng = &lng
	}
	if g.DistanceKm != nil {
		d := *g.DistanceKm
		out.DistanceKm = &d
	}
	return out
}
