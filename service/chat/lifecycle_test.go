package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLifecycleTransitions(t *testing.T) {
	tests := []struct {
		name      string
		triggers  []Trigger
		wantOK    []bool
		wantState ConnState
		online    bool
	}{
		{"connect", []Trigger{TriggerConnect}, []bool{true}, StateConnected, true},
		{"connect then close", []Trigger{TriggerConnect, TriggerClose}, []bool{true, true}, StateDisconnected, false},
		{"close before connect", []Trigger{TriggerClose}, []bool{false}, StateDisconnected, false},
		{"double connect", []Trigger{TriggerConnect, TriggerConnect}, []bool{true, false}, StateConnected, true},
		{"double close", []Trigger{TriggerConnect, TriggerClose, TriggerClose}, []bool{true, true, false}, StateDisconnected, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			s := NewSession(reg, "U", newFakeConn())
			for i, tr := range tt.triggers {
				assert.Equal(t, tt.wantOK[i], s.Fire(tr), "trigger %d (%s)", i, tr)
			}
			assert.Equal(t, tt.wantState, s.State())
			_, ok := reg.Lookup("U")
			assert.Equal(t, tt.online, ok)
		})
	}
}

func TestIgnoredTransitionDoesNotBroadcast(t *testing.T) {
	reg := NewRegistry()
	observer := newFakeConn()
	reg.Register("O", observer)
	before := observer.snapshotCount()

	s := NewSession(reg, "U", newFakeConn())
	s.Close()
	assert.Equal(t, before, observer.snapshotCount())

	s.Connect()
	assert.Equal(t, before+1, observer.snapshotCount())
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "close", TriggerClose.String())
	assert.Equal(t, "dropped", Dropped.String())
}
