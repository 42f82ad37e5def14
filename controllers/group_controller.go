package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"poolup_server/models"
	"poolup_server/services"

	"github.com/gorilla/mux"
)

// GroupController handles the ride-group HTTP surface: create, join/leave,
// lookup, discovery and manual refresh.
type GroupController struct {
	syncService  *services.GroupSyncService
	queryService *services.GroupQueryService
	store        *services.GroupStore

	// Join and leave for the same group must never run concurrently from
	// this process; a mutex per group id serializes them.
	groupLocks sync.Map
}

// NewGroupController creates a new instance of the controller
func NewGroupController(syncService *services.GroupSyncService, queryService *services.GroupQueryService, store *services.GroupStore) *GroupController {
	return &GroupController{
		syncService:  syncService,
		queryService: queryService,
		store:        store,
	}
}

// HandleCreateGroup creates a new ride group
func (c *GroupController) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CreatorID       string   `json:"creatorId"`
		DestinationName string   `json:"destinationName"`
		PickupLat       *float64 `json:"pickupLat"`
		PickupLng       *float64 `json:"pickupLng"`
		MaxMembers      int      `json:"maxMembers"`
		ImageURL        string   `json:"imageUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.CreatorID == "" {
		http.Error(w, "creatorId is required", http.StatusBadRequest)
		return
	}

	group := models.Group{
		CreatorID:       payload.CreatorID,
		DestinationName: payload.DestinationName,
		PickupLat:       payload.PickupLat,
		PickupLng:       payload.PickupLng,
		MaxMembers:      payload.MaxMembers,
		ImageURL:        payload.ImageURL,
	}

	created, err := c.syncService.CreateGroup(r.Context(), group)
	if err != nil {
		log.Printf("Failed to create group: %v", err)
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// HandleJoinGroup adds a user to a group
func (c *GroupController) HandleJoinGroup(w http.ResponseWriter, r *http.Request) {
	c.handleMembershipChange(w, r, c.syncService.JoinGroup)
}

// HandleLeaveGroup removes a user from a group
func (c *GroupController) HandleLeaveGroup(w http.ResponseWriter, r *http.Request) {
	c.handleMembershipChange(w, r, c.syncService.LeaveGroup)
}

func (c *GroupController) handleMembershipChange(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, groupID, userID string) (models.Group, error),
) {
	groupID := mux.Vars(r)["groupId"]
	if groupID == "" {
		http.Error(w, "groupId is required", http.StatusBadRequest)
		return
	}

	var payload struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.UserID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	lock := c.lockFor(groupID)
	lock.Lock()
	defer lock.Unlock()

	updated, err := op(r.Context(), groupID, payload.UserID)
	if err != nil {
		log.Printf("Membership change failed for group %s: %v", groupID, err)
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(updated)
}

// HandleGetGroup returns a single group by id. Expired groups are reported
// as not found even when eviction has not physically removed them yet.
func (c *GroupController) HandleGetGroup(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["groupId"]

	group, ok := c.store.GetByID(groupID)
	if !ok || group.Expired(time.Now(), c.store.TTL()) {
		http.Error(w, "Group not found", http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(group)
}

// HandleDiscoverGroups answers a paged, filtered, distance-sorted discovery
// query built from query parameters.
func (c *GroupController) HandleDiscoverGroups(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := models.SearchFilters{
		Destination:        q.Get("destination"),
		MinTimestamp:       parseInt64(q.Get("minTime")),
		MaxTimestamp:       parseInt64(q.Get("maxTime")),
		MaxMemberCount:     parseInt(q.Get("maxMembers")),
		AvailableSeatsOnly: q.Get("availableSeatsOnly") == "true",
		MaxDistanceKm:      parseFloat(q.Get("maxDistanceKm")),
		SortBy:             models.SortOption(q.Get("sortBy")),
	}

	location := services.NoLocation()
	if q.Get("lat") != "" && q.Get("lng") != "" {
		location = services.FixedLocation(parseFloat(q.Get("lat")), parseFloat(q.Get("lng")))
	}

	pageIndex := parseInt(q.Get("page"))
	pageSize := parseInt(q.Get("pageSize"))
	if pageSize <= 0 {
		pageSize = 20
	}

	page, err := c.queryService.Page(filters, location, pageIndex, pageSize)
	if err != nil {
		log.Printf("Failed to compute discovery page: %v", err)
		http.Error(w, "Failed to load page, please retry", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(page)
}

// HandleRefreshGroups triggers a full pull from the remote collection
func (c *GroupController) HandleRefreshGroups(w http.ResponseWriter, r *http.Request) {
	count, err := c.syncService.PullAll(r.Context())
	if err != nil {
		log.Printf("Failed to refresh groups: %v", err)
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]int{"count": count})
}

func (c *GroupController) lockFor(groupID string) *sync.Mutex {
	lock, _ := c.groupLocks.LoadOrStore(groupID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch services.Classify(err) {
	case services.ErrPermanent:
		http.Error(w, err.Error(), http.StatusConflict)
	case services.ErrInvariant:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case services.ErrCancelled:
		// Client went away; nothing useful to write.
	default:
		http.Error(w, "Remote service unavailable, please retry", http.StatusServiceUnavailable)
	}
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
