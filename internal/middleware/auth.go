package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/eToThePiIPower/tldrit/internal/models"
	"github.com/eToThePiIPower/tldrit/internal/services"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	// SessionUserKey is the session key holding the signed-in user's id.
	SessionUserKey = "user_id"
	CheckUserKey   = "user"
)

// UserFinder loads users by id.
type UserFinder interface {
	Find(ctx context.Context, id uint) (*models.User, error)
}

// AuthRequired redirects anonymous requests to the sign-in page.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUserID(c) == 0 {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoadUser retrieves the user from the session and sets it on the context.
// A session pointing at a user that no longer exists is cleared.
func LoadUser(users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(SessionUserKey).(uint)

		if ok && userID != 0 {
			user, err := users.Find(c.Request.Context(), userID)
			switch {
			case err == nil:
				c.Set(CheckUserKey, user)
			case errors.Is(err, services.ErrUserNotFound):
				session.Delete(SessionUserKey)
				_ = session.Save()
			default:
				_ = c.Error(err)
			}
		}
		c.Next()
	}
}

// CurrentUser is the signed-in user, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, exists := c.Get(CheckUserKey); exists {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// CurrentUserID is the signed-in user's id, or 0 for anonymous requests.
func CurrentUserID(c *gin.Context) uint {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}
