package services

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/eToThePiIPower/tldrit/internal/db/dbtest"
	"github.com/eToThePiIPower/tldrit/internal/models"
	"github.com/eToThePiIPower/tldrit/internal/utils"
	"github.com/eToThePiIPower/tldrit/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func str(s string) *string { return &s }

func newPostService(t *testing.T) (*gorm.DB, *PostService) {
	t.Helper()
	gdb := dbtest.New(t)
	cache, err := utils.NewTTLCache(100, time.Minute)
	require.NoError(t, err)
	return gdb, NewPostService(gdb, zap.NewNop(), NewVoteLedger(gdb, zap.NewNop()), cache)
}

func TestPostCreate(t *testing.T) {
	ctx := context.Background()
	gdb, svc := newPostService(t)
	author := dbtest.CreateUser(t, gdb)

	t.Run("link post", func(t *testing.T) {
		post, err := svc.Create(ctx, author.ID, PostParams{Title: str("Valid Title"), URL: str("www.example.com")})
		require.NoError(t, err)
		assert.NotZero(t, post.ID)
		assert.Equal(t, author.ID, post.UserID)
		assert.Equal(t, "http://www.example.com", post.FullURL())
		assert.Equal(t, "www.example.com", post.Host())
		assert.Equal(t, 0, post.Score())
	})

	t.Run("text post", func(t *testing.T) {
		post, err := svc.Create(ctx, author.ID, PostParams{
			Title:       str("Ask: anything"),
			Description: str(strings.Repeat("d", 20)),
		})
		require.NoError(t, err)
		assert.False(t, post.Link())
		assert.Empty(t, post.Host())
	})

	t.Run("invalid post is not saved", func(t *testing.T) {
		post, err := svc.Create(ctx, author.ID, PostParams{Title: str("ab"), URL: str("ftp://example.com")})

		var errs validation.Errors
		require.ErrorAs(t, err, &errs)
		assert.NotEmpty(t, errs.On("title"))
		assert.NotEmpty(t, errs.On("url"))
		assert.Empty(t, errs.On("description"))
		assert.Zero(t, post.ID)
		assert.Equal(t, "ab", post.Title)
	})

	t.Run("text post needs a description", func(t *testing.T) {
		_, err := svc.Create(ctx, author.ID, PostParams{Title: str("Valid Title")})

		var errs validation.Errors
		require.ErrorAs(t, err, &errs)
		assert.Equal(t, []string{"can't be blank"}, errs.On("description"))
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := svc.Create(ctx, 0, PostParams{Title: str("Valid Title"), URL: str("example.com")})
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestPostUpdateOwnership(t *testing.T) {
	ctx := context.Background()
	gdb, svc := newPostService(t)
	userA := dbtest.CreateUser(t, gdb)
	userB := dbtest.CreateUser(t, gdb)

	post, err := svc.Create(ctx, userA.ID, PostParams{Title: str("Valid Title"), URL: str("http://www.example.com")})
	require.NoError(t, err)

	_, err = svc.Update(ctx, userB.ID, post.ID, PostParams{Title: str("Hacked")})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	fresh, err := svc.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Valid Title", fresh.Title)

	updated, err := svc.Update(ctx, userA.ID, post.ID, PostParams{Title: str("Hacked")})
	require.NoError(t, err)
	assert.Equal(t, "Hacked", updated.Title)

	fresh, err = svc.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hacked", fresh.Title)
	assert.Equal(t, "http://www.example.com", fresh.URL)
	assert.Equal(t, userA.ID, fresh.UserID)
}

func TestPostUpdate(t *testing.T) {
	ctx := context.Background()
	gdb, svc := newPostService(t)
	author := dbtest.CreateUser(t, gdb)
	voter := dbtest.CreateUser(t, gdb)
	post := dbtest.CreatePost(t, gdb, author)

	_, err := svc.Vote(ctx, voter.ID, post.ID, Up)
	require.NoError(t, err)

	t.Run("keeps the cached score", func(t *testing.T) {
		_, err := svc.Update(ctx, author.ID, post.ID, PostParams{Title: str("Renamed")})
		require.NoError(t, err)
		assert.Equal(t, 1, storedScore(t, gdb, post))
	})

	t.Run("invalid update is not saved", func(t *testing.T) {
		got, err := svc.Update(ctx, author.ID, post.ID, PostParams{URL: str(""), Description: str("too short")})

		var errs validation.Errors
		require.ErrorAs(t, err, &errs)
		assert.NotEmpty(t, errs.On("description"))
		assert.Equal(t, "too short", got.Description)

		fresh, err := svc.Get(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "http://www.example.com", fresh.URL)
	})

	t.Run("switching to a text post", func(t *testing.T) {
		got, err := svc.Update(ctx, author.ID, post.ID, PostParams{
			URL:         str(""),
			Description: str(strings.Repeat("x", 25)),
		})
		require.NoError(t, err)
		assert.False(t, got.Link())
	})
}

func TestPostDestroy(t *testing.T) {
	ctx := context.Background()
	gdb, svc := newPostService(t)
	author := dbtest.CreateUser(t, gdb)
	other := dbtest.CreateUser(t, gdb)
	post := dbtest.CreatePost(t, gdb, author)
	dbtest.CreateComment(t, gdb, other, post)
	dbtest.CreateComment(t, gdb, author, post)
	_, err := svc.Vote(ctx, other.ID, post.ID, Up)
	require.NoError(t, err)

	t.Run("non-owner is denied", func(t *testing.T) {
		err := svc.Destroy(ctx, other.ID, post.ID)
		assert.ErrorIs(t, err, ErrNotAuthorized)

		_, err = svc.Get(ctx, post.ID)
		assert.NoError(t, err)
	})

	t.Run("owner deletes post, comments and votes", func(t *testing.T) {
		require.NoError(t, svc.Destroy(ctx, author.ID, post.ID))

		_, err := svc.Get(ctx, post.ID)
		assert.ErrorIs(t, err, ErrPostNotFound)

		var comments, votes int64
		gdb.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&comments)
		gdb.Model(&models.Vote{}).Where("votable_id = ?", post.ID).Count(&votes)
		assert.Zero(t, comments)
		assert.Zero(t, votes)
	})

	t.Run("missing post", func(t *testing.T) {
		assert.ErrorIs(t, svc.Destroy(ctx, author.ID, post.ID), ErrNotAuthorized)
	})
}

func TestPostVote(t *testing.T) {
	ctx := context.Background()
	gdb, svc := newPostService(t)
	post := dbtest.CreatePost(t, gdb, dbtest.CreateUser(t, gdb))
	voter := dbtest.CreateUser(t, gdb)

	t.Run("anonymous vote changes nothing", func(t *testing.T) {
		_, err := svc.Vote(ctx, 0, post.ID, Up)
		assert.ErrorIs(t, err, ErrUnauthenticated)
		assert.Equal(t, 0, storedScore(t, gdb, post))
		assert.Empty(t, voteRows(t, gdb, post))
	})

	t.Run("returns the new score", func(t *testing.T) {
		got, err := svc.Vote(ctx, voter.ID, post.ID, Down)
		require.NoError(t, err)
		assert.Equal(t, -1, got.Score())
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := svc.Vote(ctx, voter.ID, 9999, Up)
		assert.ErrorIs(t, err, ErrPostNotFound)
	})
}

func TestPostGet(t *testing.T) {
	ctx := context.Background()
	gdb, svc := newPostService(t)
	author := dbtest.CreateUser(t, gdb)
	post := dbtest.CreatePost(t, gdb, author)
	first := dbtest.CreateComment(t, gdb, author, post)
	second := dbtest.CreateComment(t, gdb, author, post)

	got, err := svc.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, author.Username, got.User.Username)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, first.ID, got.Comments[0].ID)
	assert.Equal(t, second.ID, got.Comments[1].ID)
	assert.Equal(t, author.ID, got.Comments[0].User.ID)

	_, err = svc.Get(ctx, 9999)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostList(t *testing.T) {
	ctx := context.Background()
	gdb, svc := newPostService(t)
	author := dbtest.CreateUser(t, gdb)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	mk := func(title string, score int, age time.Duration) *models.Post {
		p := &models.Post{
			UserID:      author.ID,
			Title:       title,
			URL:         "http://example.com/" + title,
			CachedScore: score,
			CreatedAt:   now.Add(-age),
		}
		require.NoError(t, gdb.Create(p).Error)
		return p
	}
	old := mk("old-popular", 50, 72*time.Hour)
	fresh := mk("fresh", 5, time.Hour)
	middle := mk("middle", 10, 10*time.Hour)

	titles := func(posts []models.Post) []string {
		out := make([]string, len(posts))
		for i, p := range posts {
			out[i] = p.Title
		}
		return out
	}

	top, err := svc.List(ctx, OrderTop, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{old.Title, middle.Title, fresh.Title}, titles(top))
	assert.Equal(t, author.Username, top[0].User.Username)

	newest, err := svc.List(ctx, OrderNew, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{fresh.Title, middle.Title, old.Title}, titles(newest))

	hot, err := svc.List(ctx, OrderHot, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{fresh.Title, middle.Title, old.Title}, titles(hot))

	empty, err := svc.List(ctx, OrderHot, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, order := range []ListOrder{OrderHot, OrderTop, OrderNew} {
		far, err := svc.List(ctx, order, math.MaxInt)
		require.NoError(t, err, order)
		assert.Empty(t, far, order)
	}

	t.Run("votes invalidate cached listings", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			voter := dbtest.CreateUser(t, gdb)
			_, err := svc.Vote(ctx, voter.ID, fresh.ID, Down)
			require.NoError(t, err)
		}
		again, err := svc.List(ctx, OrderTop, 1)
		require.NoError(t, err)
		assert.Equal(t, -3, again[2].CachedScore)
		assert.Equal(t, fresh.Title, again[2].Title)
	})
}

func TestParseListOrder(t *testing.T) {
	assert.Equal(t, OrderHot, ParseListOrder("HOT"))
	assert.Equal(t, OrderNew, ParseListOrder("new"))
	assert.Equal(t, OrderTop, ParseListOrder(""))
	assert.Equal(t, OrderTop, ParseListOrder("bogus"))
}
