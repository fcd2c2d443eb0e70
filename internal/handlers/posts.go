package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/eToThePiIPower/tldrit/internal/middleware"
	"github.com/eToThePiIPower/tldrit/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PostHandler struct {
	posts *services.PostService
	log   *zap.Logger
}

func NewPostHandler(posts *services.PostService, log *zap.Logger) *PostHandler {
	return &PostHandler{posts: posts, log: log.Named("posts")}
}

func postPath(id uint) string {
	return fmt.Sprintf("/posts/%d", id)
}

// List serves the front page and /posts. Query: sort=top|new|hot, page=N.
func (h *PostHandler) List(c *gin.Context) {
	order := services.ParseListOrder(c.Query("sort"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	posts, err := h.posts.List(c.Request.Context(), order, page)
	if err != nil {
		internalError(c, h.log, "Failed to list posts", err)
		return
	}

	Render(c, http.StatusOK, gin.H{
		"posts": newPostViews(posts),
		"sort":  order,
		"page":  page,
	})
}

func (h *PostHandler) Show(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		RenderError(c, http.StatusNotFound, "Post not found")
		return
	}

	post, err := h.posts.Get(c.Request.Context(), id)
	if errors.Is(err, services.ErrPostNotFound) {
		RenderError(c, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		internalError(c, h.log, "Failed to load post", err)
		return
	}

	Render(c, http.StatusOK, gin.H{"post": newPostView(post)})
}

func (h *PostHandler) Create(c *gin.Context) {
	var params services.PostParams
	if err := c.ShouldBind(&params); err != nil {
		RenderError(c, http.StatusBadRequest, "Malformed post parameters")
		return
	}

	post, err := h.posts.Create(c.Request.Context(), middleware.CurrentUserID(c), params)
	if errs, ok := asValidation(err); ok {
		RenderInvalid(c, errs, gin.H{"post": newPostView(post)})
		return
	}
	if err != nil {
		internalError(c, h.log, "Failed to create post", err)
		return
	}

	Flash(c, FlashNotice, "Post was successfully created.")
	redirect(c, postPath(post.ID))
}

func (h *PostHandler) Edit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.deny(c)
		return
	}

	post, err := h.posts.Edit(c.Request.Context(), middleware.CurrentUserID(c), id)
	if errors.Is(err, services.ErrNotAuthorized) {
		h.deny(c)
		return
	}
	if err != nil {
		internalError(c, h.log, "Failed to load post for editing", err)
		return
	}

	Render(c, http.StatusOK, gin.H{"post": newPostView(post)})
}

func (h *PostHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.deny(c)
		return
	}

	var params services.PostParams
	if err := c.ShouldBind(&params); err != nil {
		RenderError(c, http.StatusBadRequest, "Malformed post parameters")
		return
	}

	post, err := h.posts.Update(c.Request.Context(), middleware.CurrentUserID(c), id, params)
	if errs, ok := asValidation(err); ok {
		RenderInvalid(c, errs, gin.H{"post": newPostView(post)})
		return
	}
	if errors.Is(err, services.ErrNotAuthorized) {
		h.deny(c)
		return
	}
	if err != nil {
		internalError(c, h.log, "Failed to update post", err)
		return
	}

	Flash(c, FlashNotice, "Post was successfully updated.")
	redirect(c, postPath(post.ID))
}

func (h *PostHandler) Destroy(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.deny(c)
		return
	}

	err := h.posts.Destroy(c.Request.Context(), middleware.CurrentUserID(c), id)
	if errors.Is(err, services.ErrNotAuthorized) {
		h.deny(c)
		return
	}
	if err != nil {
		internalError(c, h.log, "Failed to destroy post", err)
		return
	}

	Flash(c, FlashNotice, "Post was successfully destroyed.")
	redirect(c, "/")
}

// deny sends the user back to the front page, which is the parent of every
// post.
func (h *PostHandler) deny(c *gin.Context) {
	Flash(c, FlashAlert, services.DeniedMessage)
	redirect(c, "/")
}
