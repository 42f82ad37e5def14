package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"poolup_server/models"
	"poolup_server/utils"
)

// LocationProvider supplies the caller's current coordinate. The query
// engine takes one per call instead of reading process-wide location state.
type LocationProvider interface {
	CurrentCoordinate() (models.Coordinate, bool)
}

type fixedLocation struct {
	coord models.Coordinate
}

func (f fixedLocation) CurrentCoordinate() (models.Coordinate, bool) { return f.coord, true }

type noLocation struct{}

func (noLocation) CurrentCoordinate() (models.Coordinate, bool) { return models.Coordinate{}, false }

// FixedLocation returns a provider pinned to a single coordinate, e.g. the
// lat/lng a client sent with its request.
func FixedLocation(lat, lng float64) LocationProvider {
	return fixedLocation{coord: models.Coordinate{Lat: lat, Lng: lng}}
}

// NoLocation returns a provider for callers whose position is unknown.
func NoLocation() LocationProvider {
	return noLocation{}
}

// GroupQueryService answers paged, filtered, distance-sorted queries over the
// active view of the store. Each query runs against a snapshot copy, so
// concurrent eviction cannot leak a half-removed group into a page.
type GroupQueryService struct {
	Store *GroupStore
}

func NewGroupQueryService(store *GroupStore) *GroupQueryService {
	return &GroupQueryService{Store: store}
}

// Page computes one page of the discovery result. Any failure while
// computing the page is reported as an error the caller may retry, never a
// panic.
func (s *GroupQueryService) Page(filters models.SearchFilters, location LocationProvider, pageIndex, pageSize int) (page models.GroupPage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page computation failed: %v", r)
		}
	}()

	if pageIndex < 0 {
		return models.GroupPage{}, fmt.Errorf("pageIndex must be >= 0, got %d", pageIndex)
	}
	if pageSize <= 0 {
		return models.GroupPage{}, fmt.Errorf("pageSize must be > 0, got %d", pageSize)
	}
	if location == nil {
		location = NoLocation()
	}

	groups := s.Store.AllActive(time.Now())
	userCoord, hasLocation := location.CurrentCoordinate()

	filtered := make([]models.Group, 0, len(groups))
	for _, group := range groups {
		if !matchesFilters(group, filters) {
			continue
		}
		if filters.MaxDistanceKm > 0 {
			// A distance cap excludes groups whose pickup point (or the
			// caller's position) is unknown.
			if !group.HasCoordinates() || !hasLocation {
				continue
			}
			d := utils.HaversineKm(userCoord.Lat, userCoord.Lng, *group.PickupLat, *group.PickupLng)
			if d > filters.MaxDistanceKm {
				continue
			}
		}
		filtered = append(filtered, group)
	}

	if hasLocation {
		for i := range filtered {
			if filtered[i].HasCoordinates() {
				d := utils.HaversineKm(userCoord.Lat, userCoord.Lng, *filtered[i].PickupLat, *filtered[i].PickupLng)
				filtered[i].DistanceKm = &d
			}
		}
	}

	sortGroups(filtered, filters.SortBy)

	return slicePage(filtered, pageIndex, pageSize), nil
}

func matchesFilters(group models.Group, filters models.SearchFilters) bool {
	if filters.Destination != "" {
		if !strings.Contains(strings.ToLower(group.DestinationName), strings.ToLower(filters.Destination)) {
			return false
		}
	}
	if filters.MinTimestamp > 0 && group.Timestamp < filters.MinTimestamp {
		return false
	}
	if filters.MaxTimestamp > 0 && group.Timestamp > filters.MaxTimestamp {
		return false
	}
	if filters.AvailableSeatsOnly {
		if group.MemberCount >= group.MaxMembers {
			return false
		}
	} else if filters.MaxMemberCount > 0 && group.MemberCount > filters.MaxMemberCount {
		return false
	}
	return true
}

// sortGroups orders the surviving set. Ties under every sort key are broken
// by ascending id so pagination stays stable across repeated queries against
// an unchanged snapshot.
func sortGroups(groups []models.Group, sortBy models.SortOption) {
	less := func(a, b models.Group) bool { return newestFirst(a, b) }
	switch sortBy {
	case models.SortNearest:
		less = nearestFirst
	case models.SortDepartureTime:
		less = departureFirst
	case models.SortMostPopular:
		less = popularFirst
	case models.SortAvailableSeats:
		less = mostSeatsFirst
	case models.SortNewest:
		less = newestFirst
	}
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return a.GroupID < b.GroupID
	})
}

// Ascending distance, unknown distance last.
func nearestFirst(a, b models.Group) bool {
	switch {
	case a.DistanceKm == nil && b.DistanceKm == nil:
		return false
	case a.DistanceKm == nil:
		return false
	case b.DistanceKm == nil:
		return true
	}
	return *a.DistanceKm < *b.DistanceKm
}

// Ascending departure (creation) time, unknown last.
func departureFirst(a, b models.Group) bool {
	switch {
	case a.Timestamp == 0 && b.Timestamp == 0:
		return false
	case a.Timestamp == 0:
		return false
	case b.Timestamp == 0:
		return true
	}
	return a.Timestamp < b.Timestamp
}

// Descending popularity score.
func popularFirst(a, b models.Group) bool {
	return a.PopularityScore > b.PopularityScore
}

// Descending timestamp; a zero timestamp sorts as oldest.
func newestFirst(a, b models.Group) bool {
	return a.Timestamp > b.Timestamp
}

// Descending free capacity.
func mostSeatsFirst(a, b models.Group) bool {
	return a.AvailableSeats() > b.AvailableSeats()
}

func slicePage(groups []models.Group, pageIndex, pageSize int) models.GroupPage {
	start := pageIndex * pageSize
	end := start + pageSize
	if start > len(groups) {
		start = len(groups)
	}
	if end > len(groups) {
		end = len(groups)
	}

	page := models.GroupPage{Groups: groups[start:end]}
	if pageIndex > 0 {
		prev := pageIndex - 1
		page.PrevPage = &prev
	}
	if len(page.Groups) == pageSize {
		next := pageIndex + 1
		page.NextPage = &next
	}
	return page
}
