package models

// SortOption selects the ordering applied by the discovery query.
type SortOption string

const (
	SortNearest        SortOption = "NEAREST"
	SortDepartureTime  SortOption = "DEPARTURE_TIME"
	SortMostPopular    SortOption = "MOST_POPULAR"
	SortNewest         SortOption = "NEWEST"
	SortAvailableSeats SortOption = "AVAILABLE_SEATS"
)

// SearchFilters carries the per-query filter and sort parameters. A filters
// value is immutable for the duration of a query; zero values mean "not set".
type SearchFilters struct {
	Destination        string     `json:"destination"`
	MinTimestamp       int64      `json:"minTimestamp"`
	MaxTimestamp       int64      `json:"maxTimestamp"`
	MaxMemberCount     int        `json:"maxMemberCount"`
	AvailableSeatsOnly bool       `json:"availableSeatsOnly"`
	MaxDistanceKm      float64    `json:"maxDistanceKm"` // <= 0 means unbounded
	SortBy             SortOption `json:"sortBy"`
}

// Coordinate is a geographic point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GroupPage is one page of a discovery query result. PrevPage is absent on
// the first page; NextPage is absent when the page came back empty or short.
type GroupPage struct {
	Groups   []Group `json:"groups"`
	PrevPage *int    `json:"prevPage,omitempty"`
	NextPage *int    `json:"nextPage,omitempty"`
}

// RefreshPage derives the page index to reload after the backing snapshot is
// invalidated, anchored on this page: prevPage+1 when known, else nextPage-1,
// else the first page.
func (p GroupPage) RefreshPage() int {
	if p.PrevPage != nil {
		return *p.PrevPage + 1
	}
	if p.NextPage != nil {
		return *p.NextPage - 1
	}
	return 0
}
