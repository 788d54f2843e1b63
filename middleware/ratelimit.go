package middleware

import (
	"sync"
	"time"

	"PSocial/global"
	"PSocial/tools/errs"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	RPS     float64
	Burst   int
	IdleTTL time.Duration // 多久没请求就回收这个 key 的 limiter
}

type limiterEntry struct {
	l    *rate.Limiter
	seen time.Time
}

type limiterPool struct {
	mu      sync.Mutex
	m       map[string]*limiterEntry
	cfg     RateLimitConfig
	lastGC  time.Time
	nowFunc func() time.Time
}

func newLimiterPool(cfg RateLimitConfig) *limiterPool {
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &limiterPool{m: make(map[string]*limiterEntry), cfg: cfg, nowFunc: time.Now}
}

func (p *limiterPool) Allow(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.nowFunc()
	if now.Sub(p.lastGC) > p.cfg.IdleTTL {
		for k, e := range p.m {
			if now.Sub(e.seen) > p.cfg.IdleTTL {
				delete(p.m, k)
			}
		}
		p.lastGC = now
	}
	e, ok := p.m[key]
	if !ok {
		e = &limiterEntry{l: rate.NewLimiter(rate.Limit(p.cfg.RPS), p.cfg.Burst)}
		p.m[key] = e
	}
	e.seen = now
	return e.l.AllowN(now, 1)
}

func (p *limiterPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

// RateLimit 按登录用户限流, 未登录的按客户端 IP
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	pool := newLimiterPool(cfg)
	return func(c *gin.Context) {
		key := c.ClientIP()
		if s, ok := global.Session(c); ok {
			key = "u:" + s.UserID
		}
		if !pool.Allow(key) {
			global.Fail(c, errs.ErrTooManyRequest.WrapMsg("Too many requests, slow down"))
			return
		}
		c.Next()
	}
}
