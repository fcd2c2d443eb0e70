package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/eToThePiIPower/tldrit/internal/models"
	"github.com/eToThePiIPower/tldrit/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListOrder selects how the post listing is ranked.
type ListOrder string

const (
	OrderTop ListOrder = "top"
	OrderNew ListOrder = "new"
	OrderHot ListOrder = "hot"
)

// ParseListOrder falls back to OrderTop for unknown values.
func ParseListOrder(s string) ListOrder {
	switch ListOrder(strings.ToLower(s)) {
	case OrderNew:
		return OrderNew
	case OrderHot:
		return OrderHot
	default:
		return OrderTop
	}
}

const (
	PageSize = 30
	// hotWindow is how many of the newest posts the hot listing ranks.
	hotWindow = 200
	// maxPage bounds the page number so the row offset cannot overflow.
	maxPage = 10000
)

// PostParams carries the attributes a client submitted. Nil fields are left
// untouched on update.
type PostParams struct {
	Title       *string `json:"title" form:"title"`
	URL         *string `json:"url" form:"url"`
	Description *string `json:"description" form:"description"`
}

func (p PostParams) applyTo(post *models.Post) {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.URL != nil {
		post.URL = strings.TrimSpace(*p.URL)
	}
	if p.Description != nil {
		post.Description = *p.Description
	}
}

type PostService struct {
	db     *gorm.DB
	log    *zap.Logger
	ledger *VoteLedger
	cache  *utils.TTLCache
	now    func() time.Time
}

func NewPostService(db *gorm.DB, log *zap.Logger, ledger *VoteLedger, cache *utils.TTLCache) *PostService {
	return &PostService{
		db:     db,
		log:    log.Named("posts"),
		ledger: ledger,
		cache:  cache,
		now:    time.Now,
	}
}

// Create validates and stores a new post owned by userID. On validation
// failure the unsaved post is returned with a validation.Errors error.
func (s *PostService) Create(ctx context.Context, userID uint, params PostParams) (*models.Post, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}

	post := &models.Post{UserID: userID}
	params.applyTo(post)
	if errs := post.Validate(); !errs.Empty() {
		return post, errs
	}

	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	s.invalidate()

	s.log.Info("Post created", zap.Uint("post_id", post.ID), zap.Uint("user_id", userID))
	return post, nil
}

// Get returns a post with its author and comments, oldest comment first.
func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Comments.User").
		First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &post, nil
}

// List returns one page (1-based) of posts in the given order.
func (s *PostService) List(ctx context.Context, order ListOrder, page int) ([]models.Post, error) {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		return []models.Post{}, nil
	}

	key := fmt.Sprintf("posts:%s:%d", order, page)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached.([]models.Post), nil
		}
	}

	var (
		posts []models.Post
		err   error
	)
	switch order {
	case OrderHot:
		posts, err = s.listHot(ctx, page)
	case OrderNew:
		err = s.db.WithContext(ctx).Preload("User").
			Order("created_at DESC, id DESC").
			Offset((page - 1) * PageSize).Limit(PageSize).
			Find(&posts).Error
	default:
		err = s.db.WithContext(ctx).Preload("User").
			Order("cached_score DESC, created_at DESC, id DESC").
			Offset((page - 1) * PageSize).Limit(PageSize).
			Find(&posts).Error
	}
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(key, posts)
	}
	return posts, nil
}

func (s *PostService) listHot(ctx context.Context, page int) ([]models.Post, error) {
	var recent []models.Post
	if err := s.db.WithContext(ctx).Preload("User").
		Order("created_at DESC, id DESC").
		Limit(hotWindow).
		Find(&recent).Error; err != nil {
		return nil, err
	}

	now := s.now()
	slices.SortStableFunc(recent, func(a, b models.Post) int {
		return cmp.Compare(
			utils.HotRank(b.CachedScore, b.CreatedAt, now),
			utils.HotRank(a.CachedScore, a.CreatedAt, now),
		)
	})

	start := (page - 1) * PageSize
	if start >= len(recent) {
		return []models.Post{}, nil
	}
	return recent[start:min(start+PageSize, len(recent))], nil
}

// Edit returns userID's own post for editing.
func (s *PostService) Edit(ctx context.Context, userID, id uint) (*models.Post, error) {
	return OwnedPost(s.db.WithContext(ctx), userID, id)
}

// Update applies params to userID's own post. Only the submitted
// attributes are written, so the cached score is never overwritten.
func (s *PostService) Update(ctx context.Context, userID, id uint, params PostParams) (*models.Post, error) {
	post, err := OwnedPost(s.db.WithContext(ctx), userID, id)
	if err != nil {
		s.logDenied(err, "update", userID, id)
		return nil, err
	}

	params.applyTo(post)
	if errs := post.Validate(); !errs.Empty() {
		return post, errs
	}

	if err := s.db.WithContext(ctx).Model(post).
		Select("title", "url", "description").
		Updates(post).Error; err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	s.invalidate()

	s.log.Info("Post updated", zap.Uint("post_id", post.ID), zap.Uint("user_id", userID))
	return post, nil
}

// Destroy deletes userID's own post together with its comments and votes.
func (s *PostService) Destroy(ctx context.Context, userID, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := OwnedPost(tx, userID, id)
		if err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.Where("votable_type = ? AND votable_id = ?", post.VotableType(), post.ID).
			Delete(&models.Vote{}).Error; err != nil {
			return fmt.Errorf("delete votes: %w", err)
		}
		if err := tx.Delete(post).Error; err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logDenied(err, "destroy", userID, id)
		return err
	}
	s.invalidate()

	s.log.Info("Post destroyed", zap.Uint("post_id", id), zap.Uint("user_id", userID))
	return nil
}

// Vote casts userID's vote on post id and returns the post with its new
// score. Anonymous callers get ErrUnauthenticated and nothing is recorded.
func (s *PostService) Vote(ctx context.Context, userID, id uint, dir Direction) (*models.Post, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}

	var post models.Post
	err := s.db.WithContext(ctx).First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}

	if _, err := s.ledger.CastVote(ctx, userID, &post, dir); err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	s.invalidate()

	s.log.Debug("Vote cast",
		zap.Uint("post_id", post.ID),
		zap.Uint("user_id", userID),
		zap.Stringer("direction", dir),
		zap.Int("score", post.CachedScore))
	return &post, nil
}

func (s *PostService) invalidate() {
	if s.cache != nil {
		s.cache.Flush()
	}
}

func (s *PostService) logDenied(err error, action string, userID, id uint) {
	if errors.Is(err, ErrNotAuthorized) {
		s.log.Info("Ownership guard denied post "+action,
			zap.Uint("post_id", id), zap.Uint("user_id", userID), zap.Error(err))
	}
}
