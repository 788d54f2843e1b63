package mgo

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"PSocial/data/database/mgo/mongoutil"
	"PSocial/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	baseBackoff = 200 * time.Millisecond
	maxBackoff  = 5 * time.Second
	healthEvery = 10 * time.Second
	failThresh  = 3 // consecutive ping failures before reconnecting
)

type MongoManager struct {
	mu        sync.RWMutex
	client    *mongoutil.Client
	readyCh   chan struct{} // closed once, on the first successful connect
	readyOnce sync.Once

	lastErr atomic.Value // error
}

var globalMgr = &MongoManager{readyCh: make(chan struct{})}

func Manager() *MongoManager { return globalMgr }

// StartAsync runs until ctx is done: connects with backoff, then health-pings
// and reconnects after failThresh consecutive failures.
func StartAsync(ctx context.Context, cfg *mongoutil.Config) {
	globalMgr.StartAsync(ctx, cfg)
}

func (m *MongoManager) StartAsync(ctx context.Context, cfg *mongoutil.Config) {
	go func() {
		for {
			if !m.connect(ctx, cfg) {
				return
			}
			if !m.watch(ctx) {
				return
			}
		}
	}()
}

// connect returns false when ctx is done.
func (m *MongoManager) connect(ctx context.Context, cfg *mongoutil.Config) bool {
	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		cli, err := mongoutil.NewMongoDB(ctx, cfg)
		if err == nil {
			m.mu.Lock()
			m.client = cli
			m.mu.Unlock()
			m.readyOnce.Do(func() { close(m.readyCh) })
			logger.Info("[Mongo] connected", zap.String("db", cfg.Database))
			return true
		}

		m.lastErr.Store(err)
		logger.Warn("[Mongo] connect failed", zap.Int("attempt", attempt), zap.Error(err))

		// 退避 + 抖动
		backoff := baseBackoff << attempt
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		jitter := time.Duration(rand.Int63n(int64(backoff/5) + 1))
		timer := time.NewTimer(backoff - jitter/2)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
		if attempt < 6 {
			attempt++
		}
	}
}

// watch returns false when ctx is done, true when a reconnect is needed.
func (m *MongoManager) watch(ctx context.Context) bool {
	fail := 0
	ticker := time.NewTicker(healthEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.drop()
			return false
		case <-ticker.C:
			m.mu.RLock()
			c := m.client
			m.mu.RUnlock()
			if c == nil {
				return true
			}
			if err := c.GetDB().Client().Ping(ctx, nil); err != nil {
				fail++
				m.lastErr.Store(err)
				logger.Warn("[Mongo] ping failed", zap.Int("fail", fail), zap.Error(err))
				if fail >= failThresh {
					m.drop()
					return true
				}
				continue
			}
			fail = 0
		}
	}
}

func (m *MongoManager) drop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		_ = m.client.Disconnect(context.Background())
		m.client = nil
	}
}

// Err returns the most recent connect/ping error.
func Err() error { return globalMgr.Err() }

func (m *MongoManager) Err() error {
	if v := m.lastErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

func GetDB() *mongo.Database {
	db, ok := TryGetDB()
	if !ok {
		panic("Mongo not ready: call WaitReady first or use TryGetDB()")
	}
	return db
}

func TryGetDB() (*mongo.Database, bool) {
	globalMgr.mu.RLock()
	defer globalMgr.mu.RUnlock()
	if globalMgr.client == nil {
		return nil, false
	}
	return globalMgr.client.GetDB(), true
}

// WaitReady blocks until the first connect or ctx expiry.
func WaitReady(ctx context.Context, m *MongoManager) error {
	m.mu.RLock()
	readyCh := m.readyCh
	connected := m.client != nil
	m.mu.RUnlock()

	if connected {
		return nil
	}
	if readyCh == nil {
		return fmt.Errorf("mongo manager not started")
	}
	select {
	case <-readyCh:
		return nil
	case <-ctx.Done():
		if err := m.Err(); err != nil {
			return fmt.Errorf("mongo not ready: %w", err)
		}
		return ctx.Err()
	}
}

// Close disconnects the current client.
func Close() { globalMgr.drop() }
