package chat

import (
	"sync"

	"go.uber.org/zap"
)

type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnected
)

func (s ConnState) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "disconnected"
}

type Trigger int

const (
	TriggerConnect Trigger = iota
	TriggerClose
)

func (t Trigger) String() string {
	if t == TriggerConnect {
		return "connect"
	}
	return "close"
}

type transition struct {
	to     ConnState
	action func(s *Session)
}

// lifecycle is the full transition table; anything not listed is ignored.
var lifecycle = map[ConnState]map[Trigger]transition{
	StateDisconnected: {
		TriggerConnect: {to: StateConnected, action: func(s *Session) { s.reg.Register(s.user, s.conn) }},
	},
	StateConnected: {
		TriggerClose: {to: StateDisconnected, action: func(s *Session) { s.reg.Unregister(s.user, s.conn) }},
	},
}

// Session drives one connection through the lifecycle table.
type Session struct {
	mu    sync.Mutex
	state ConnState
	user  string
	conn  Connection
	reg   *Registry
	log   *zap.Logger
}

func NewSession(reg *Registry, user string, conn Connection) *Session {
	return &Session{state: StateDisconnected, user: user, conn: conn, reg: reg, log: reg.log}
}

// Fire applies t; it reports false when the table has no such transition.
func (s *Session) Fire(t Trigger) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, ok := lifecycle[s.state][t]
	if !ok {
		s.log.Debug("transition ignored", zap.String("user", s.user), zap.String("conn", s.conn.ID()),
			zap.Stringer("state", s.state), zap.Stringer("trigger", t))
		return false
	}
	s.state = tr.to
	tr.action(s)
	return true
}

func (s *Session) Connect() bool { return s.Fire(TriggerConnect) }
func (s *Session) Close() bool   { return s.Fire(TriggerClose) }

func (s *Session) State() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
