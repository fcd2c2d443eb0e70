package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/eToThePiIPower/tldrit/internal/middleware"
	"github.com/eToThePiIPower/tldrit/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CommentHandler struct {
	comments *services.CommentService
	log      *zap.Logger
}

func NewCommentHandler(comments *services.CommentService, log *zap.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, log: log.Named("comments")}
}

// Create always lands back on the post. An invalid comment is dropped with
// an alert.
func (h *CommentHandler) Create(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		redirect(c, "/")
		return
	}

	var params services.CommentParams
	if err := c.ShouldBind(&params); err != nil {
		RenderError(c, http.StatusBadRequest, "Malformed comment parameters")
		return
	}

	_, err := h.comments.Create(c.Request.Context(), middleware.CurrentUserID(c), postID, params)
	if errs, ok := asValidation(err); ok {
		Flash(c, FlashAlert, "Comment could not be saved: "+strings.Join(errs.Full(), ", "))
		redirect(c, postPath(postID))
		return
	}
	switch {
	case err == nil:
		Flash(c, FlashNotice, "Comment was successfully created.")
		redirect(c, postPath(postID))
	case errors.Is(err, services.ErrPostNotFound):
		redirect(c, "/")
	default:
		internalError(c, h.log, "Failed to create comment", err)
	}
}

func (h *CommentHandler) Edit(c *gin.Context) {
	postID, commentID, ok := commentParams(c)
	if !ok {
		h.deny(c, postID)
		return
	}

	comment, err := h.comments.Edit(c.Request.Context(), middleware.CurrentUserID(c), postID, commentID)
	if errors.Is(err, services.ErrNotAuthorized) {
		h.deny(c, postID)
		return
	}
	if err != nil {
		internalError(c, h.log, "Failed to load comment for editing", err)
		return
	}

	Render(c, http.StatusOK, gin.H{"comment": newCommentView(comment)})
}

func (h *CommentHandler) Update(c *gin.Context) {
	postID, commentID, ok := commentParams(c)
	if !ok {
		h.deny(c, postID)
		return
	}

	var params services.CommentParams
	if err := c.ShouldBind(&params); err != nil {
		RenderError(c, http.StatusBadRequest, "Malformed comment parameters")
		return
	}

	comment, err := h.comments.Update(c.Request.Context(), middleware.CurrentUserID(c), postID, commentID, params)
	if errs, ok := asValidation(err); ok {
		RenderInvalid(c, errs, gin.H{"comment": newCommentView(comment)})
		return
	}
	if errors.Is(err, services.ErrNotAuthorized) {
		h.deny(c, postID)
		return
	}
	if err != nil {
		internalError(c, h.log, "Failed to update comment", err)
		return
	}

	Flash(c, FlashNotice, "Comment was successfully updated.")
	redirect(c, postPath(postID))
}

func (h *CommentHandler) Destroy(c *gin.Context) {
	postID, commentID, ok := commentParams(c)
	if !ok {
		h.deny(c, postID)
		return
	}

	err := h.comments.Destroy(c.Request.Context(), middleware.CurrentUserID(c), postID, commentID)
	if errors.Is(err, services.ErrNotAuthorized) {
		h.deny(c, postID)
		return
	}
	if err != nil {
		internalError(c, h.log, "Failed to destroy comment", err)
		return
	}

	Flash(c, FlashNotice, "Comment was successfully destroyed.")
	redirect(c, postPath(postID))
}

func commentParams(c *gin.Context) (postID, commentID uint, ok bool) {
	postID, postOK := paramID(c, "id")
	commentID, commentOK := paramID(c, "cid")
	return postID, commentID, postOK && commentOK
}

// deny sends the user back to the comment's post.
func (h *CommentHandler) deny(c *gin.Context, postID uint) {
	Flash(c, FlashAlert, services.DeniedMessage)
	if postID == 0 {
		redirect(c, "/")
		return
	}
	redirect(c, postPath(postID))
}
