package chat

import (
	"fmt"
	"sync"
	"sync/atomic"
)

var fakeSeq atomic.Int64

// fakeConn records what the registry pushes to it.
type fakeConn struct {
	id string

	mu        sync.Mutex
	events    []Event
	snapshots [][]string
	full      bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{id: fmt.Sprintf("fake-%d", fakeSeq.Add(1))}
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Push(ev Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return false
	}
	f.events = append(f.events, ev)
	return true
}

func (f *fakeConn) PushPresence(online []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, append([]string(nil), online...))
}

func (f *fakeConn) lastSnapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.snapshots) == 0 {
		return nil
	}
	return f.snapshots[len(f.snapshots)-1]
}

func (f *fakeConn) snapshotCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snapshots)
}

func (f *fakeConn) eventsNamed(name string) []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Event
	for _, e := range f.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
