// Package dbtest provides migrated in-memory databases for tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/eToThePiIPower/tldrit/internal/config"
	"github.com/eToThePiIPower/tldrit/internal/db"
	"github.com/eToThePiIPower/tldrit/internal/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// New returns a freshly migrated in-memory SQLite database.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(config.DBConfig{Driver: "sqlite", URL: "file::memory:"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

var userSeq int

// CreateUser inserts a user named personN with password "password".
func CreateUser(t testing.TB, gdb *gorm.DB) *models.User {
	t.Helper()

	userSeq++
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username:          fmt.Sprintf("person%d", userSeq),
		Email:             fmt.Sprintf("person%d@example.com", userSeq),
		EncryptedPassword: string(hash),
	}
	require.NoError(t, gdb.Create(user).Error)
	return user
}

// CreatePost inserts a valid link post owned by owner.
func CreatePost(t testing.TB, gdb *gorm.DB, owner *models.User) *models.Post {
	t.Helper()

	post := &models.Post{
		UserID: owner.ID,
		Title:  "Valid Title",
		URL:    "http://www.example.com",
	}
	require.NoError(t, gdb.Create(post).Error)
	return post
}

// CreateComment inserts a comment by author on post.
func CreateComment(t testing.TB, gdb *gorm.DB, author *models.User, post *models.Post) *models.Comment {
	t.Helper()

	comment := &models.Comment{PostID: post.ID, UserID: author.ID, Body: "A perfectly fine comment"}
	require.NoError(t, gdb.Create(comment).Error)
	return comment
}
