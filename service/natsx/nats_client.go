package natsx

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"PSocial/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NatsxMode 工作模式
type NatsxMode int

const (
	Core      NatsxMode = iota // no persistence
	JetStream                  // published through a JetStream stream
)

func ParseMode(s string) NatsxMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "js", "jetstream", "js_push", "js_pull":
		return JetStream
	default:
		return Core
	}
}

// NatsxRoute maps an event topic to a subject.
type NatsxRoute struct {
	Topic   string
	Subject string
	Mode    NatsxMode
}

// NatsxConfig 客户端配置
type NatsxConfig struct {
	Servers         []string
	Name            string
	User            string
	Password        string
	ReconnectWait   time.Duration
	Timeout         time.Duration
	PublishAsyncMax int
}

// NatsxClient 统一客户端
type NatsxClient struct {
	cfg NatsxConfig
	nc  *nats.Conn
	js  nats.JetStreamContext

	mu     sync.RWMutex
	routes map[string]NatsxRoute // topic -> route
}

// NewNatsxClient 连接 NATS
func NewNatsxClient(cfg NatsxConfig) (*NatsxClient, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New("nats servers missing")
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.PublishAsyncMax == 0 {
		cfg.PublishAsyncMax = 4096
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("[NATS] disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("[NATS] reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}
	nc, err := nats.Connect(strings.Join(cfg.Servers, ","), opts...)
	if err != nil {
		return nil, err
	}
	return &NatsxClient{
		cfg:    cfg,
		nc:     nc,
		routes: make(map[string]NatsxRoute),
	}, nil
}

// Close flushes pending publishes and closes the connection.
func (c *NatsxClient) Close() error {
	if c.nc != nil {
		return c.nc.Drain()
	}
	return nil
}

// ensureJS 初始化 JetStream 上下文
func (c *NatsxClient) ensureJS() error {
	if c.js != nil {
		return nil
	}
	js, err := c.nc.JetStream(nats.PublishAsyncMaxPending(c.cfg.PublishAsyncMax))
	if err != nil {
		return err
	}
	c.js = js
	return nil
}

// RegisterRoute 注册 topic 路由
func (c *NatsxClient) RegisterRoute(r NatsxRoute) error {
	if r.Topic == "" || r.Subject == "" {
		return errors.New("invalid route")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if r.Mode == JetStream {
		if err := c.ensureJS(); err != nil {
			return fmt.Errorf("init jetstream: %w", err)
		}
	}
	c.routes[r.Topic] = r
	return nil
}

func (c *NatsxClient) route(topic string) (NatsxRoute, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.routes[topic]
	return r, ok
}
