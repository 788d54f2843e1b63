package chat

import (
	"context"
	"net/http"

	"PSocial/global"
	mid "PSocial/middleware"
	"PSocial/module/chat/model"
	"PSocial/tools/errs"

	"github.com/gin-gonic/gin"
)

// MessageService is the part of the delivery pipeline the REST layer needs.
type MessageService interface {
	SendMessage(ctx context.Context, sender, receiver, text string) (*model.Message, error)
	GetConversationMessages(ctx context.Context, me, other string) ([]*model.Message, error)
}

type Handler struct {
	svc        MessageService
	sendGuards []gin.HandlerFunc
}

// NewHandler sendGuards 只挂在发送接口上 (限流)
func NewHandler(svc MessageService, sendGuards ...gin.HandlerFunc) *Handler {
	return &Handler{svc: svc, sendGuards: sendGuards}
}

type sendReq struct {
	TextMessage string `json:"textMessage"`
}

// Routes 挂在 /message 下，全部需要登录
func (h *Handler) Routes(r gin.IRouter) {
	g := r.Group("/message")
	mid.POST(g, "/send/:id", h.SendMessage, mid.RouteOpt{IsAuth: true, Before: h.sendGuards})
	mid.GET(g, "/all/:id", h.GetAllMessages, mid.RouteOpt{IsAuth: true})
}

// SendMessage POST /message/send/:id
func (h *Handler) SendMessage(c *gin.Context) {
	me, ok := global.Session(c)
	if !ok {
		global.Fail(c, errs.ErrTokenMissing.WrapMsg("User not authenticated"))
		return
	}
	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		global.Fail(c, errs.ErrArgs.WrapMsg("invalid body"))
		return
	}
	msg, err := h.svc.SendMessage(c.Request.Context(), me.UserID, c.Param("id"), req.TextMessage)
	if err != nil {
		global.Fail(c, err)
		return
	}
	global.OK(c, http.StatusCreated, gin.H{"message": "Message sent!", "newMessage": msg})
}

// GetAllMessages GET /message/all/:id
func (h *Handler) GetAllMessages(c *gin.Context) {
	me, ok := global.Session(c)
	if !ok {
		global.Fail(c, errs.ErrTokenMissing.WrapMsg("User not authenticated"))
		return
	}
	msgs, err := h.svc.GetConversationMessages(c.Request.Context(), me.UserID, c.Param("id"))
	if err != nil {
		global.Fail(c, err)
		return
	}
	global.OK(c, http.StatusOK, gin.H{"messages": msgs})
}
