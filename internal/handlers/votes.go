package handlers

import (
	"errors"

	"github.com/eToThePiIPower/tldrit/internal/middleware"
	"github.com/eToThePiIPower/tldrit/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type VoteHandler struct {
	posts *services.PostService
	log   *zap.Logger
}

func NewVoteHandler(posts *services.PostService, log *zap.Logger) *VoteHandler {
	return &VoteHandler{posts: posts, log: log.Named("votes")}
}

func (h *VoteHandler) Upvote(c *gin.Context) {
	h.vote(c, services.Up)
}

func (h *VoteHandler) Downvote(c *gin.Context) {
	h.vote(c, services.Down)
}

// vote always sends the user back where they came from. Anonymous votes are
// dropped without a message.
func (h *VoteHandler) vote(c *gin.Context, dir services.Direction) {
	userID := middleware.CurrentUserID(c)
	id, ok := paramID(c, "id")
	if userID == 0 || !ok {
		redirectBack(c)
		return
	}

	_, err := h.posts.Vote(c.Request.Context(), userID, id, dir)
	switch {
	case err == nil:
		redirectBack(c)
	case errors.Is(err, services.ErrPostNotFound):
		redirect(c, "/")
	default:
		internalError(c, h.log, "Failed to cast vote", err)
	}
}
