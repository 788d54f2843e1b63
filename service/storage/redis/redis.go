package redis

import (
	"context"
	"sync"
	"time"

	"PSocial/logger"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	redisMu  sync.Mutex
	redisMgr *RedisManager
)

type RedisManager struct {
	client *redis.Client
}

// Config 用于初始化 Redis
type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// InitRedis creates the process-wide client and pings it. Safe to call again
// after a failed attempt.
func InitRedis(c Config) error {
	redisMu.Lock()
	defer redisMu.Unlock()
	if redisMgr != nil {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
		PoolSize: c.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return errors.Wrapf(err, "redis ping %s", c.Addr)
	}

	redisMgr = &RedisManager{client: rdb}
	logger.Info("[Redis] connected", zap.String("addr", c.Addr), zap.Int("db", c.DB))
	return nil
}

// GetRedis 获取 Redis Client
func GetRedis() *redis.Client {
	redisMu.Lock()
	defer redisMu.Unlock()
	if redisMgr == nil {
		panic("Redis not initialized, call InitRedis first")
	}
	return redisMgr.client
}

// CloseRedis 关闭连接
func CloseRedis() error {
	redisMu.Lock()
	defer redisMu.Unlock()
	if redisMgr != nil && redisMgr.client != nil {
		err := redisMgr.client.Close()
		redisMgr = nil
		return err
	}
	return nil
}
