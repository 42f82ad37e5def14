package socket

import (
	"log"

	"poolup_server/models"

	socketio "github.com/googollee/go-socket.io"
)

const groupsRoom = "groups"

// NewSocketServer initializes and returns a new Socket.IO server. Clients
// emit "subscribeGroups" to receive group change events.
func NewSocketServer() *socketio.Server {
	server := socketio.NewServer(nil)

	server.OnConnect("/", func(c socketio.Conn) error {
		log.Println("✅ Socket connected:", c.ID())
		return nil
	})

	server.OnEvent("/", "subscribeGroups", func(c socketio.Conn) {
		log.Printf("👥 Client %s subscribed to group updates\n", c.ID())
		c.Join(groupsRoom)
	})

	server.OnEvent("/", "unsubscribeGroups", func(c socketio.Conn) {
		c.Leave(groupsRoom)
	})

	server.OnError("/", func(c socketio.Conn, err error) {
		log.Println("❌ Socket error:", err)
	})

	server.OnDisconnect("/", func(c socketio.Conn, reason string) {
		log.Println("Socket disconnected:", reason)
	})

	return server
}

// Broadcaster pushes group change events to subscribed clients. It satisfies
// the services.GroupNotifier interface.
type Broadcaster struct {
	server *socketio.Server
}

func NewBroadcaster(server *socketio.Server) *Broadcaster {
	return &Broadcaster{server: server}
}

// GroupChanged broadcasts a created/updated group to the groups room.
func (b *Broadcaster) GroupChanged(event string, group models.Group) {
	b.server.BroadcastToRoom("/", groupsRoom, event, group)
}

// GroupRemoved broadcasts a removal so clients drop the group immediately.
func (b *Broadcaster) GroupRemoved(groupID string) {
	b.server.BroadcastToRoom("/", groupsRoom, "groupRemoved", map[string]string{"groupId": groupID})
}
