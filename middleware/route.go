package middleware

import (
	"sync"

	midsec "PSocial/middleware/security"

	"github.com/gin-gonic/gin"
)

// 配置选项
type RouteOpt struct {
	IsAuth bool
	Before []gin.HandlerFunc // 鉴权之后、handler 之前执行, 比如限流
}

var (
	authMu      sync.RWMutex
	authHandler gin.HandlerFunc
)

// UseAuth 启动时设置鉴权中间件，POST/GET 的 IsAuth 路由都会挂上它
func UseAuth(opts *midsec.Options) {
	authMu.Lock()
	defer authMu.Unlock()
	authHandler = midsec.Middleware(opts)
}

func auth() gin.HandlerFunc {
	authMu.RLock()
	defer authMu.RUnlock()
	if authHandler == nil {
		panic("middleware: UseAuth must be called before registering authenticated routes")
	}
	return authHandler
}

func (opt RouteOpt) chain(handler gin.HandlerFunc) []gin.HandlerFunc {
	hs := make([]gin.HandlerFunc, 0, len(opt.Before)+2)
	if opt.IsAuth {
		hs = append(hs, auth())
	}
	hs = append(hs, opt.Before...)
	return append(hs, handler)
}

// 封装 POST
func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.POST(path, opt.chain(handler)...)
}

// 封装 GET
func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.GET(path, opt.chain(handler)...)
}

// 封装 DELETE
func DELETE(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.DELETE(path, opt.chain(handler)...)
}
