package router

import (
	"github.com/eToThePiIPower/tldrit/internal/handlers"
	"github.com/eToThePiIPower/tldrit/internal/middleware"
	"github.com/eToThePiIPower/tldrit/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services are the collaborators the routes call into.
type Services struct {
	Posts    *services.PostService
	Comments *services.CommentService
	Users    *services.UserService
}

// RegisterRoutes wires handlers onto r. Sessions must already be installed.
func RegisterRoutes(r *gin.Engine, svc Services, log *zap.Logger) {
	r.Use(middleware.LoadUser(svc.Users))

	// Handlers
	authHandler := handlers.NewAuthHandler(svc.Users, log)
	postHandler := handlers.NewPostHandler(svc.Posts, log)
	commentHandler := handlers.NewCommentHandler(svc.Comments, log)
	voteHandler := handlers.NewVoteHandler(svc.Posts, log)

	// Public routes
	r.GET("/", postHandler.List)
	r.GET("/posts", postHandler.List)
	r.GET("/posts/:id", postHandler.Show)

	r.POST("/signup", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.GET("/logout", authHandler.Logout)

	// Anonymous votes are accepted and ignored.
	r.POST("/posts/:id/upvote", voteHandler.Upvote)
	r.POST("/posts/:id/downvote", voteHandler.Downvote)

	// Protected routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/posts", postHandler.Create)
		authorized.GET("/posts/:id/edit", postHandler.Edit)
		authorized.PUT("/posts/:id", postHandler.Update)
		authorized.PATCH("/posts/:id", postHandler.Update)
		authorized.DELETE("/posts/:id", postHandler.Destroy)

		authorized.POST("/posts/:id/comments", commentHandler.Create)
		authorized.GET("/posts/:id/comments/:cid/edit", commentHandler.Edit)
		authorized.PUT("/posts/:id/comments/:cid", commentHandler.Update)
		authorized.PATCH("/posts/:id/comments/:cid", commentHandler.Update)
		authorized.DELETE("/posts/:id/comments/:cid", commentHandler.Destroy)
	}
}
