package global

import (
	"net/http"

	"PSocial/logger"
	"PSocial/tools/errs"
	"PSocial/tools/specialerror"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Msg is the error body every REST route shares.
type Msg struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// OK writes body with success:true merged in.
func OK(c *gin.Context, status int, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	c.JSON(status, body)
}

// Fail maps err to its status code; internal errors are logged, never echoed.
func Fail(c *gin.Context, err error) {
	err = specialerror.Classify(err)
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("[HTTP] request failed",
			zap.String("method", c.Request.Method), zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		logger.Debug("[HTTP] request rejected",
			zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, Msg{Success: false, Message: errs.PublicMessage(err)})
}
