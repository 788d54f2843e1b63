package post

import (
	"net/http"

	"PSocial/global"
	mid "PSocial/middleware"
	"PSocial/module/post/service"
	"PSocial/tools/errs"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r gin.IRouter) {
	g := r.Group("/post")
	mid.POST(g, "/addpost", h.AddPost, mid.RouteOpt{IsAuth: true})
	mid.GET(g, "/all", h.GetAll, mid.RouteOpt{IsAuth: true})
	mid.GET(g, "/:id/like", h.Like, mid.RouteOpt{IsAuth: true})
	mid.GET(g, "/:id/dislike", h.Dislike, mid.RouteOpt{IsAuth: true})
	mid.GET(g, "/userpost/all", h.GetUserPosts, mid.RouteOpt{IsAuth: true})
	mid.POST(g, "/:id/comment", h.AddComment, mid.RouteOpt{IsAuth: true})
	// 老前端用 POST 取评论, 两个都挂
	mid.POST(g, "/:id/comment/all", h.GetComments, mid.RouteOpt{IsAuth: true})
	mid.GET(g, "/:id/comment/all", h.GetComments, mid.RouteOpt{IsAuth: true})
	mid.DELETE(g, "/delete/:id", h.Delete, mid.RouteOpt{IsAuth: true})
	mid.GET(g, "/:id/bookmark", h.Bookmark, mid.RouteOpt{IsAuth: true})
}

func caller(c *gin.Context) (string, bool) {
	s, ok := global.Session(c)
	if !ok {
		global.Fail(c, errs.ErrTokenMissing.WrapMsg("User not authenticated"))
		return "", false
	}
	return s.UserID, true
}

func (h *Handler) AddPost(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	var in service.CreateParams
	if err := c.ShouldBindJSON(&in); err != nil {
		global.Fail(c, errs.ErrArgs.WrapMsg("Image is required"))
		return
	}
	p, err := h.svc.Create(c.Request.Context(), me, in)
	if err != nil {
		global.Fail(c, err)
		return
	}
	global.OK(c, http.StatusCreated, gin.H{"message": "New post added!", "post": p})
}

func (h *Handler) GetAll(c *gin.Context) {
	posts, err := h.svc.List(c.Request.Context())
	if err != nil {
		global.Fail(c, err)
		return
	}
	global.OK(c, http.StatusOK, gin.H{"posts": posts})
}

func (h *Handler) Like(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	if err := h.svc.Like(c.Request.Context(), me, c.Param("id")); err != nil {
		global.Fail(c, err)
		return
	}
	global.OK(c, http.StatusOK, gin.H{"message": "Post liked!"})
}

func (h *Handler) Dislike(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	if err := h.svc.Dislike(c.Request.Context(), me, c.Param("id")); err != nil {
		global.Fail(c, err)
		return
	}
	global.OK(c, http.StatusOK, gin.H{"message": "Post disliked!"})
}

func (h *Handler) GetUserPosts(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	posts, err := h.svc.UserPosts(c.Request.Context(), me)
	if err != nil {
		global.Fail(c, err)
		return
	}
	global.OK(c, http.StatusOK, gin.H{"posts": posts})
}

type commentReq struct {
	Text string `json:"text"`
}

func (h *Handler) AddComment(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	var req commentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		global.Fail(c, errs.ErrArgs.WrapMsg("Comment is required"))
		return
	}
	cm, err := h.svc.AddComment(c.Request.Context(), me, c.Param("id"), req.Text)
	if err != nil {
		global.Fail(c, err)
		return
	}
	global.OK(c, http.StatusCreated, gin.H{"message": "Comment added!", "comment": cm})
}

func (h *Handler) GetComments(c *gin.Context) {
	comments, err := h.svc.Comments(c.Request.Context(), c.Param("id"))
	if err != nil {
		global.Fail(c, err)
		return
	}
	global.OK(c, http.StatusOK, gin.H{"comments": comments})
}

func (h *Handler) Delete(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), me, c.Param("id")); err != nil {
		global.Fail(c, err)
		return
	}
	global.OK(c, http.StatusOK, gin.H{"message": "Post and associated comments deleted!"})
}

func (h *Handler) Bookmark(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	added, bookmarks, err := h.svc.Bookmark(c.Request.Context(), me, c.Param("id"))
	if err != nil {
		global.Fail(c, err)
		return
	}
	msg := "Post removed from bookmarks!"
	if added {
		msg = "Post bookmarked!"
	}
	global.OK(c, http.StatusOK, gin.H{"message": msg, "bookmarks": bookmarks})
}
