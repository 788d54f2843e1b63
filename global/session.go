package global

import "github.com/gin-gonic/gin"

// CtxUserID 鉴权中间件写入的调用方身份
const CtxUserID = "userId"

// UserSession 全局的接口请求 需要处理的session
type UserSession struct {
	UserID string `json:"userId"`
}

func SetSession(c *gin.Context, userID string) {
	c.Set(CtxUserID, userID)
}

// Session returns the authenticated caller, if any.
func Session(c *gin.Context) (UserSession, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return UserSession{}, false
	}
	id, _ := v.(string)
	if id == "" {
		return UserSession{}, false
	}
	return UserSession{UserID: id}, true
}
