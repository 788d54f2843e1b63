package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordMirror struct {
	mu  sync.Mutex
	ops []string
}

func (m *recordMirror) Online(_ context.Context, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "+"+user)
	return nil
}

func (m *recordMirror) Offline(_ context.Context, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "-"+user)
	if user == "bad" {
		return errors.New("redis down")
	}
	return nil
}

func TestMirrorWorkerKeepsOrder(t *testing.T) {
	m := &recordMirror{}
	w := NewMirrorWorker(m, 16, nil)
	reg := NewRegistry(WithPresenceHook(w.Hook))

	a, b := newFakeConn(), newFakeConn()
	reg.Register("A", a)
	reg.Register("B", b)
	reg.Unregister("A", a)
	reg.Register("bad", newFakeConn())
	c, _ := reg.Lookup("bad")
	reg.Unregister("bad", c)

	w.Stop()
	assert.Equal(t, []string{"+A", "+B", "-A", "+bad", "-bad"}, m.ops)

	// ignored after stop
	w.Hook("late", true, 0)
	w.Stop()
	assert.Len(t, m.ops, 5)
}
