package routes

import (
	"poolup_server/controllers"
	"poolup_server/services"

	"github.com/gorilla/mux"
)

// RegisterGroupRoutes registers ride-group routes
func RegisterGroupRoutes(r *mux.Router, syncService *services.GroupSyncService, queryService *services.GroupQueryService, store *services.GroupStore) {
	controller := controllers.NewGroupController(syncService, queryService, store)

	groupRouter := r.PathPrefix("/api/groups").Subrouter()
	groupRouter.HandleFunc("", controller.HandleDiscoverGroups).Methods("GET")
	groupRouter.HandleFunc("", controller.HandleCreateGroup).Methods("POST")
	groupRouter.HandleFunc("/refresh", controller.HandleRefreshGroups).Methods("POST")
	groupRouter.HandleFunc("/{groupId}", controller.HandleGetGroup).Methods("GET")
	groupRouter.HandleFunc("/{groupId}/join", controller.HandleJoinGroup).Methods("POST")
	groupRouter.HandleFunc("/{groupId}/leave", controller.HandleLeaveGroup).Methods("POST")
}
