package chat

// Server -> client event names.
const (
	EventGetOnlineUsers = "getOnlineUsers"
	EventNewMessage     = "newMessage"
	EventNotification   = "notification"
)

// Event is one server -> client frame: {"event": "...", "data": ...}.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// DeliveryResult is the outcome of a best-effort push.
type DeliveryResult int

const (
	Delivered DeliveryResult = iota // handed to the connection's send queue
	Offline                         // no live connection for the identity
	Dropped                         // connection queue full or closed
)

func (r DeliveryResult) String() string {
	switch r {
	case Delivered:
		return "delivered"
	case Offline:
		return "offline"
	case Dropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Connection is a live realtime transport. Both push methods must not block.
type Connection interface {
	ID() string
	// Push enqueues an event; false means it was dropped.
	Push(ev Event) bool
	// PushPresence replaces any presence snapshot not yet written.
	PushPresence(online []string)
}

// Pusher is the delivery side of the registry used by domain services.
type Pusher interface {
	Push(user string, ev Event) DeliveryResult
}
