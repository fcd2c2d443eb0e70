package handlers

import (
	"errors"
	"net/http"

	"github.com/eToThePiIPower/tldrit/internal/middleware"
	"github.com/eToThePiIPower/tldrit/internal/services"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	users *services.UserService
	log   *zap.Logger
}

func NewAuthHandler(users *services.UserService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, log: log.Named("auth")}
}

type loginParams struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var reg services.Registration
	if err := c.ShouldBind(&reg); err != nil {
		RenderError(c, http.StatusBadRequest, "Malformed registration parameters")
		return
	}

	user, err := h.users.Register(c.Request.Context(), reg)
	if errs, ok := asValidation(err); ok {
		reg.Password = ""
		RenderInvalid(c, errs, gin.H{"user": reg})
		return
	}
	if err != nil {
		internalError(c, h.log, "Failed to register user", err)
		return
	}

	h.signIn(c, user.ID)
	Flash(c, FlashNotice, "Welcome! You have signed up successfully.")
	redirect(c, "/")
}

func (h *AuthHandler) Login(c *gin.Context) {
	var params loginParams
	if err := c.ShouldBind(&params); err != nil {
		RenderError(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), params.Email, params.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		RenderError(c, http.StatusUnauthorized, "Invalid email or password.")
		return
	}
	if err != nil {
		internalError(c, h.log, "Failed to sign in", err)
		return
	}

	h.signIn(c, user.ID)
	Flash(c, FlashNotice, "Signed in successfully.")
	redirect(c, "/")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete(middleware.SessionUserKey)
	_ = session.Save()

	Flash(c, FlashNotice, "Signed out successfully.")
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) signIn(c *gin.Context, userID uint) {
	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, userID)
	_ = session.Save()
	h.log.Info("User signed in", zap.Uint("user_id", userID))
}
