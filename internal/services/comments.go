package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/eToThePiIPower/tldrit/internal/models"
	"github.com/eToThePiIPower/tldrit/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CommentParams struct {
	Body string `json:"body" form:"body"`
}

type CommentService struct {
	db    *gorm.DB
	log   *zap.Logger
	cache *utils.TTLCache
}

func NewCommentService(db *gorm.DB, log *zap.Logger, cache *utils.TTLCache) *CommentService {
	return &CommentService{db: db, log: log.Named("comments"), cache: cache}
}

// Create adds userID's comment to post postID.
func (s *CommentService) Create(ctx context.Context, userID, postID uint, params CommentParams) (*models.Comment, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}

	var post models.Post
	err := s.db.WithContext(ctx).Select("id").First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}

	comment := &models.Comment{PostID: post.ID, UserID: userID, Body: params.Body}
	if errs := comment.Validate(); !errs.Empty() {
		return comment, errs
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	s.invalidate()

	s.log.Info("Comment created",
		zap.Uint("comment_id", comment.ID), zap.Uint("post_id", postID), zap.Uint("user_id", userID))
	return comment, nil
}

// Edit returns userID's own comment for editing.
func (s *CommentService) Edit(ctx context.Context, userID, postID, id uint) (*models.Comment, error) {
	return OwnedComment(s.db.WithContext(ctx), userID, postID, id)
}

func (s *CommentService) Update(ctx context.Context, userID, postID, id uint, params CommentParams) (*models.Comment, error) {
	comment, err := OwnedComment(s.db.WithContext(ctx), userID, postID, id)
	if err != nil {
		s.logDenied(err, "update", userID, id)
		return nil, err
	}

	comment.Body = params.Body
	if errs := comment.Validate(); !errs.Empty() {
		return comment, errs
	}
	if err := s.db.WithContext(ctx).Model(comment).Update("body", comment.Body).Error; err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	s.invalidate()

	s.log.Info("Comment updated", zap.Uint("comment_id", id), zap.Uint("user_id", userID))
	return comment, nil
}

func (s *CommentService) Destroy(ctx context.Context, userID, postID, id uint) error {
	comment, err := OwnedComment(s.db.WithContext(ctx), userID, postID, id)
	if err != nil {
		s.logDenied(err, "destroy", userID, id)
		return err
	}
	if err := s.db.WithContext(ctx).Delete(comment).Error; err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	s.invalidate()

	s.log.Info("Comment destroyed", zap.Uint("comment_id", id), zap.Uint("user_id", userID))
	return nil
}

func (s *CommentService) invalidate() {
	if s.cache != nil {
		s.cache.Flush()
	}
}

func (s *CommentService) logDenied(err error, action string, userID, id uint) {
	if errors.Is(err, ErrNotAuthorized) {
		s.log.Info("Ownership guard denied comment "+action,
			zap.Uint("comment_id", id), zap.Uint("user_id", userID), zap.Error(err))
	}
}
