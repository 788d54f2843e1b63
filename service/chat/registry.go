package chat

import (
	"sync"

	"go.uber.org/zap"
)

// Registry maps an identity to at most one live connection (last write wins).
// Every mutation and its presence broadcast happen under one lock, so
// broadcasts are observed in mutation order.
type Registry struct {
	mu       sync.Mutex
	byUser   map[string]Connection
	presence *PresenceBroadcaster
	hooks    []PresenceHook
	onPush   func(event string, res DeliveryResult)
	log      *zap.Logger
}

type RegistryOption func(*Registry)

func WithLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

func WithPresenceHook(h PresenceHook) RegistryOption {
	return func(r *Registry) { r.hooks = append(r.hooks, h) }
}

// WithPushObserver sees the result of every Push (metrics).
func WithPushObserver(fn func(event string, res DeliveryResult)) RegistryOption {
	return func(r *Registry) { r.onPush = fn }
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{byUser: make(map[string]Connection)}
	for _, o := range opts {
		o(r)
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	r.presence = NewPresenceBroadcaster(r.log)
	return r
}

// Register binds user to conn, replacing any previous binding. The superseded
// connection is left open.
func (r *Registry) Register(user string, conn Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byUser[user]; ok && prev != conn {
		r.log.Info("connection replaced", zap.String("user", user), zap.String("old", prev.ID()), zap.String("conn", conn.ID()))
	} else {
		r.log.Info("connection registered", zap.String("user", user), zap.String("conn", conn.ID()))
	}
	r.byUser[user] = conn
	r.changedLocked(user, true)
}

// Unregister removes the binding only if conn is the one currently bound.
// A late close of a superseded connection is a no-op and does not broadcast.
func (r *Registry) Unregister(user string, conn Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byUser[user]
	if !ok || cur != conn {
		r.log.Debug("stale unregister ignored", zap.String("user", user), zap.String("conn", conn.ID()))
		return false
	}
	delete(r.byUser, user)
	r.log.Info("connection unregistered", zap.String("user", user), zap.String("conn", conn.ID()))
	r.changedLocked(user, false)
	return true
}

func (r *Registry) changedLocked(user string, online bool) {
	for _, h := range r.hooks {
		h(user, online, len(r.byUser))
	}
	r.presence.Broadcast(sortedKeys(r.byUser), r.byUser)
}

// Lookup returns the live connection for user; false means offline.
func (r *Registry) Lookup(user string) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byUser[user]
	return c, ok
}

// Identities returns a sorted snapshot of online identities.
func (r *Registry) Identities() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedKeys(r.byUser)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUser)
}

// Push delivers ev to user's current connection without blocking.
func (r *Registry) Push(user string, ev Event) DeliveryResult {
	res := r.push(user, ev)
	if r.onPush != nil {
		r.onPush(ev.Name, res)
	}
	return res
}

func (r *Registry) push(user string, ev Event) DeliveryResult {
	conn, ok := r.Lookup(user)
	if !ok {
		return Offline
	}
	if !conn.Push(ev) {
		r.log.Warn("push dropped", zap.String("user", user), zap.String("conn", conn.ID()), zap.String("event", ev.Name))
		return Dropped
	}
	return Delivered
}
