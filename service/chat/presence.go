package chat

import (
	"sort"

	"go.uber.org/zap"
)

// PresenceHook observes registry mutations. It runs under the registry lock,
// so implementations must return quickly.
type PresenceHook func(user string, online bool, count int)

// PresenceBroadcaster sends the full online set to every live connection.
type PresenceBroadcaster struct {
	log *zap.Logger
}

func NewPresenceBroadcaster(log *zap.Logger) *PresenceBroadcaster {
	if log == nil {
		log = zap.NewNop()
	}
	return &PresenceBroadcaster{log: log}
}

// Broadcast pushes snapshot to each target. Slow connections coalesce
// snapshots; the latest one always wins.
func (p *PresenceBroadcaster) Broadcast(snapshot []string, targets map[string]Connection) {
	for _, c := range targets {
		c.PushPresence(snapshot)
	}
	p.log.Debug("presence broadcast", zap.Int("online", len(snapshot)), zap.Int("targets", len(targets)))
}

// OnlineUsersEvent builds the getOnlineUsers frame.
func OnlineUsersEvent(snapshot []string) Event {
	if snapshot == nil {
		snapshot = []string{}
	}
	return Event{Name: EventGetOnlineUsers, Data: snapshot}
}

func sortedKeys(m map[string]Connection) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
