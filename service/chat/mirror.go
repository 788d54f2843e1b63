package chat

import (
	"context"
	"sync"
	"time"

	"PSocial/tools/safe"

	"go.uber.org/zap"
)

// PresenceMirror is an external copy of the online set (Redis).
type PresenceMirror interface {
	Online(ctx context.Context, user string) error
	Offline(ctx context.Context, user string) error
}

type mirrorOp struct {
	user   string
	online bool
}

// MirrorWorker replays registry mutations into a PresenceMirror in order,
// off the registry lock. A full queue drops the update.
type MirrorWorker struct {
	m    PresenceMirror
	ops  chan mirrorOp
	stop chan struct{}
	done chan struct{}
	once sync.Once
	log  *zap.Logger
}

func NewMirrorWorker(m PresenceMirror, queue int, log *zap.Logger) *MirrorWorker {
	if queue <= 0 {
		queue = 1024
	}
	if log == nil {
		log = zap.NewNop()
	}
	w := &MirrorWorker{m: m, ops: make(chan mirrorOp, queue), stop: make(chan struct{}), done: make(chan struct{}), log: log}
	safe.SafeGo("presence-mirror", w.run)
	return w
}

// Hook is passed to WithPresenceHook.
func (w *MirrorWorker) Hook(user string, online bool, _ int) {
	select {
	case <-w.stop:
		return
	default:
	}
	select {
	case w.ops <- mirrorOp{user: user, online: online}:
	default:
		w.log.Warn("presence mirror queue full", zap.String("user", user), zap.Bool("online", online))
	}
}

func (w *MirrorWorker) run() {
	defer close(w.done)
	for {
		select {
		case op := <-w.ops:
			w.apply(op)
		case <-w.stop:
			for {
				select {
				case op := <-w.ops:
					w.apply(op)
				default:
					return
				}
			}
		}
	}
}

func (w *MirrorWorker) apply(op mirrorOp) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var err error
	if op.online {
		err = w.m.Online(ctx, op.user)
	} else {
		err = w.m.Offline(ctx, op.user)
	}
	if err != nil {
		w.log.Warn("presence mirror failed", zap.String("user", op.user), zap.Bool("online", op.online), zap.Error(err))
	}
}

// Stop flushes queued updates; later hooks are ignored.
func (w *MirrorWorker) Stop() {
	w.once.Do(func() { close(w.stop) })
	<-w.done
}
