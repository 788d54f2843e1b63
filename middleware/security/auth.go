package security

import (
	"strings"

	"PSocial/global"
	"PSocial/tools/errs"
	"PSocial/tools/security"

	"github.com/gin-gonic/gin"
)

const DefaultCookieName = "token"

type Options struct {
	JWT                       security.Options
	CookieName                string // 默认 "token"
	EnableAuthorizationBearer bool   // 默认 true
}

func DefaultOptions(secret []byte) *Options {
	return &Options{
		JWT:                       security.DefaultOptions(secret),
		CookieName:                DefaultCookieName,
		EnableAuthorizationBearer: true,
	}
}

// Middleware 解析 cookie / Bearer 中的 token，成功后把 userId 写入 context
func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		panic("auth middleware: nil options")
	}
	return func(c *gin.Context) {
		token := TokenFrom(c, opts)
		if token == "" {
			global.Fail(c, errs.ErrTokenMissing.WrapMsg("User not authenticated"))
			return
		}
		userID, err := security.Verify(opts.JWT, token)
		if err != nil {
			global.Fail(c, err)
			return
		}
		global.SetSession(c, userID)
		c.Next()
	}
}

// TokenFrom prefers the cookie, then Authorization: Bearer.
func TokenFrom(c *gin.Context, opts *Options) string {
	name := opts.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	if v, err := c.Cookie(name); err == nil && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if !opts.EnableAuthorizationBearer {
		return ""
	}
	// 兼容 Authorization: Bearer xxx
	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(authz) > len("bearer ") && strings.EqualFold(authz[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return ""
}
