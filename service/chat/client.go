package chat

import (
	"encoding/json"
	"net"
	"sync"
	"time"

	"PSocial/tools/ids"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ---- 常量参数（建议值） ----
const (
	defaultSendQueue = 256
	pingInterval     = 25 * time.Second
	pongWait         = 60 * time.Second
	writeWait        = 10 * time.Second
	maxInboundBytes  = 4096
)

type ConnOptions struct {
	SendQueue    int
	PingInterval time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
}

func (o *ConnOptions) norm() {
	if o.SendQueue <= 0 {
		o.SendQueue = defaultSendQueue
	}
	if o.PingInterval <= 0 {
		o.PingInterval = pingInterval
	}
	if o.PongWait <= o.PingInterval {
		o.PongWait = o.PingInterval * 12 / 5
	}
	if o.WriteWait <= 0 {
		o.WriteWait = writeWait
	}
}

// WsConn is one websocket client. Events go through a bounded queue; presence
// has a single slot that newer snapshots overwrite. One goroutine writes.
type WsConn struct {
	SnowID string
	UserID string
	Remote net.Addr

	conn     *websocket.Conn
	opts     ConnOptions
	send     chan []byte
	presence chan []byte // cap 1, latest snapshot wins
	presMu   sync.Mutex
	done     chan struct{}
	once     sync.Once
	log      *zap.Logger
}

func NewWsConn(user string, ws *websocket.Conn, opts ConnOptions, log *zap.Logger) *WsConn {
	opts.norm()
	if log == nil {
		log = zap.NewNop()
	}
	c := &WsConn{
		SnowID:   ids.GenerateString(),
		UserID:   user,
		conn:     ws,
		opts:     opts,
		send:     make(chan []byte, opts.SendQueue),
		presence: make(chan []byte, 1),
		done:     make(chan struct{}),
	}
	if ws != nil {
		c.Remote = ws.RemoteAddr()
	}
	c.log = log.With(zap.String("conn", c.SnowID), zap.String("user", user))
	return c
}

func (c *WsConn) ID() string { return c.SnowID }

func (c *WsConn) Push(ev Event) bool {
	b, err := json.Marshal(ev)
	if err != nil {
		c.log.Error("marshal event", zap.String("event", ev.Name), zap.Error(err))
		return false
	}
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *WsConn) PushPresence(online []string) {
	b, err := json.Marshal(OnlineUsersEvent(online))
	if err != nil {
		c.log.Error("marshal presence", zap.Error(err))
		return
	}
	c.presMu.Lock()
	defer c.presMu.Unlock()
	select {
	case <-c.presence: // discard the unsent older snapshot
	default:
	}
	c.presence <- b
}

// Close stops the writer; the underlying socket is closed by the writer.
func (c *WsConn) Close() {
	c.once.Do(func() { close(c.done) })
}

// writePump 唯一写协程：业务帧、presence、ping
func (c *WsConn) writePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case b := <-c.send:
			if !c.write(websocket.TextMessage, b) {
				return
			}
		case b := <-c.presence:
			if !c.write(websocket.TextMessage, b) {
				return
			}
		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *WsConn) write(mt int, b []byte) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
	if err := c.conn.WriteMessage(mt, b); err != nil {
		c.log.Info("[WS] write failed", zap.Error(err))
		c.Close()
		return false
	}
	return true
}

// readPump blocks until the peer goes away. Inbound frames carry nothing the
// server acts on; reading keeps pong and close handling alive.
func (c *WsConn) readPump() {
	c.conn.SetReadLimit(maxInboundBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				c.log.Info("[WS] peer closed")
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				c.log.Info("[WS] read timeout", zap.Error(err))
			} else {
				c.log.Info("[WS] read err", zap.Error(err))
			}
			return
		}
		select {
		case <-c.done:
			return
		default:
		}
	}
}
