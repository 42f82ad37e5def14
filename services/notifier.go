package services

import "poolup_server/models"

// Group change events published to connected clients.
const (
	EventGroupCreated = "groupCreated"
	EventGroupUpdated = "groupUpdated"
	EventGroupRemoved = "groupRemoved"
)

// GroupNotifier receives group change events after the local store has been
// updated. Implementations must not block.
type GroupNotifier interface {
	GroupChanged(event string, group models.Group)
	GroupRemoved(groupID string)
}
