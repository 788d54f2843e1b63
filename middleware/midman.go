package middleware

import (
	"sync"
	"time"

	"PSocial/logger"
	"PSocial/tools/errs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	globalMgr *MiddlewareManager
	once      sync.Once
)

// MiddlewareManager 全局中间件链，启动时注册，Use() 挂到 Engine 上
type MiddlewareManager struct {
	mu   sync.RWMutex
	mids []gin.HandlerFunc
}

func NewManager() *MiddlewareManager {
	return &MiddlewareManager{}
}

// Manager 全局实例（惰性初始化）
func Manager() *MiddlewareManager {
	once.Do(func() { globalMgr = NewManager() })
	return globalMgr
}

func (m *MiddlewareManager) Add(h ...gin.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mids = append(m.mids, h...)
}

func (m *MiddlewareManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mids = nil
}

func (m *MiddlewareManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.mids)
}

// Use runs the registered chain in order; an abort stops the chain.
func (m *MiddlewareManager) Use() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.mu.RLock()
		handlers := append([]gin.HandlerFunc{}, m.mids...) // 快照
		m.mu.RUnlock()

		for _, h := range handlers {
			h(c)
			if c.IsAborted() {
				return
			}
		}
		c.Next()
	}
}

// AccessLog 每个请求一条日志
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("[HTTP]",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("cost", time.Since(start)),
		)
	}
}

// Recovery 将 panic 转成 500
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, r any) {
		logger.Error("[HTTP] panic recovered", zap.String("path", c.Request.URL.Path), zap.Error(errs.ErrPanic(r)))
		c.AbortWithStatusJSON(500, gin.H{"success": false, "message": "Internal server error"})
	})
}
