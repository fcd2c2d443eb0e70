package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/eToThePiIPower/tldrit/internal/middleware"
	"github.com/eToThePiIPower/tldrit/internal/models"
	"github.com/eToThePiIPower/tldrit/internal/validation"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
)

// Flash kinds.
const (
	FlashNotice = "notice"
	FlashAlert  = "alert"
)

// Flash queues a message for the next response that renders flashes.
func Flash(c *gin.Context, kind, msg string) {
	session := sessions.Default(c)
	session.AddFlash(msg, kind)
	_ = session.Save()
}

func takeFlashes(c *gin.Context) gin.H {
	session := sessions.Default(c)
	out := gin.H{}
	for _, kind := range []string{FlashNotice, FlashAlert} {
		var msgs []string
		for _, f := range session.Flashes(kind) {
			if s, ok := f.(string); ok {
				msgs = append(msgs, s)
			}
		}
		if len(msgs) > 0 {
			out[kind] = msgs
		}
	}
	if len(out) > 0 {
		_ = session.Save()
	}
	return out
}

// Render writes obj as JSON with the common fields every page carries.
func Render(c *gin.Context, code int, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}
	if user := middleware.CurrentUser(c); user != nil {
		obj["current_user"] = userView{ID: user.ID, Username: user.Username}
	}
	if flashes := takeFlashes(c); len(flashes) > 0 {
		obj["flash"] = flashes
	}
	c.JSON(code, obj)
}

// RenderError writes a JSON error body.
func RenderError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

// RenderInvalid re-presents submitted input together with its violations.
func RenderInvalid(c *gin.Context, errs validation.Errors, attempted gin.H) {
	obj := gin.H{"errors": errs, "full_messages": errs.Full()}
	for k, v := range attempted {
		obj[k] = v
	}
	c.JSON(http.StatusUnprocessableEntity, obj)
}

// redirect after a mutation, so the client follows up with a GET.
func redirect(c *gin.Context, path string) {
	c.Redirect(http.StatusSeeOther, path)
}

func redirectBack(c *gin.Context) {
	if ref := c.Request.Referer(); ref != "" {
		redirect(c, ref)
		return
	}
	redirect(c, "/")
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func internalError(c *gin.Context, log *zap.Logger, msg string, err error) {
	log.Error(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
	_ = c.Error(err)
	RenderError(c, http.StatusInternalServerError, "Something went wrong")
}

func asValidation(err error) (validation.Errors, bool) {
	var errs validation.Errors
	ok := errors.As(err, &errs)
	return errs, ok
}

type userView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type commentView struct {
	ID        uint      `json:"id"`
	PostID    uint      `json:"post_id"`
	UserID    uint      `json:"user_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type postView struct {
	ID          uint          `json:"id"`
	UserID      uint          `json:"user_id"`
	Author      string        `json:"author,omitempty"`
	Title       string        `json:"title"`
	URL         string        `json:"url"`
	FullURL     string        `json:"full_url,omitempty"`
	Host        string        `json:"host,omitempty"`
	Link        bool          `json:"link"`
	Description string        `json:"description,omitempty"`
	Score       int           `json:"score"`
	Comments    []commentView `json:"comments,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// newPostView maps a post and any loaded comments onto the response shape.
func newPostView(post *models.Post) postView {
	var view postView
	_ = copier.Copy(&view, post)
	view.Link = post.Link()
	view.Host = post.Host()
	view.Score = post.Score()
	if view.Link {
		view.FullURL = post.FullURL()
	}
	view.Author = post.User.Username
	for i := range view.Comments {
		view.Comments[i].Author = post.Comments[i].User.Username
	}
	return view
}

func newPostViews(posts []models.Post) []postView {
	views := make([]postView, len(posts))
	for i := range posts {
		views[i] = newPostView(&posts[i])
	}
	return views
}

func newCommentView(comment *models.Comment) commentView {
	var view commentView
	_ = copier.Copy(&view, comment)
	view.Author = comment.User.Username
	return view
}
