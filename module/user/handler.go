package user

import (
	"net/http"
	"time"

	"PSocial/global"
	mid "PSocial/middleware"
	midsec "PSocial/middleware/security"
	"PSocial/module/user/service"
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
	g := r.Group("/user")
	mid.POST(g, "/register", h.Register, mid.RouteOpt{})
	mid.POST(g, "/login", h.Login, mid.RouteOpt{})
	mid.GET(g, "/logout", h.Logout, mid.RouteOpt{})
	mid.GET(g, "/:id/profile", h.Profile, mid.RouteOpt{IsAuth: true})
	mid.POST(g, "/profile/edit", h.EditProfile, mid.RouteOpt{IsAuth: true})
	mid.GET(g, "/suggested", h.Suggested, mid.RouteOpt{IsAuth: true})
	mid.GET(g, "/followorunfollow/:id", h.FollowOrUnfollow, mid.RouteOpt{IsAuth: true})
}

func caller(c *gin.Context) (string, bool) {
	s, ok := global.Session(c)
	if !ok {
		global.Fail(c, errs.ErrTokenMissing.WrapMsg("User not authenticated"))
		return "", false
	}
	return s.UserID, true
}

func (h *Handler) Register(c *gin.Context) {
	var in service.RegisterParams
	if err := c.ShouldBindJSON(&in); err != nil {
		global.Fail(c, errs.ErrArgs.WrapMsg("All fields are required."))
		return
	}
	if err := h.svc.Register(c.Request.Context(), in); err != nil {
		global.Fail(c, err)
		return
	}
	global.OK(c, http.StatusCreated, gin.H{"message": "Account created successfully!"})
}

func (h *Handler) Login(c *gin.Context) {
	var in service.LoginParams
	if err := c.ShouldBindJSON(&in); err != nil {
		global.Fail(c, errs.ErrArgs.WrapMsg("All fields are required!"))
		return
	}
	res, err := h.svc.Login(c.Request.Context(), in)
	if err != nil {
		global.Fail(c, err)
		return
	}
	maxAge := int(time.Until(res.ExpireAt).Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(midsec.DefaultCookieName, res.Token, maxAge, "/", "", false, true)
	global.OK(c, http.StatusOK, gin.H{
		"message": "Welcome back, " + res.User.Username + "!",
		"user":    res.User,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(midsec.DefaultCookieName, "", -1, "/", "", false, true)
	global.OK(c, http.StatusOK, gin.H{"message": "Logged out successfully."})
}

func (h *Handler) Profile(c *gin.Context) {
	u, err := h.svc.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		global.Fail(c, err)
		return
	}
	global.OK(c, http.StatusOK, gin.H{"user": u})
}

func (h *Handler) EditProfile(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	var in service.EditProfileParams
	if err := c.ShouldBindJSON(&in); err != nil {
		global.Fail(c, errs.ErrArgs.WrapMsg("Invalid profile fields."))
		return
	}
	u, err := h.svc.EditProfile(c.Request.Context(), me, in)
	if err != nil {
		global.Fail(c, err)
		return
	}
	global.OK(c, http.StatusOK, gin.H{"message": "Profile updated successfully.", "user": u})
}

func (h *Handler) Suggested(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	users, err := h.svc.Suggested(c.Request.Context(), me)
	if err != nil {
		global.Fail(c, err)
		return
	}
	global.OK(c, http.StatusOK, gin.H{"users": users})
}

func (h *Handler) FollowOrUnfollow(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	followed, err := h.svc.FollowOrUnfollow(c.Request.Context(), me, c.Param("id"))
	if err != nil {
		global.Fail(c, err)
		return
	}
	msg := "User unfollowed successfully."
	if followed {
		msg = "User followed successfully."
	}
	global.OK(c, http.StatusOK, gin.H{"message": msg})
}
