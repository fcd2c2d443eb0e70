package services

import (
	"context"
	"errors"
	"testing"

	"github.com/eToThePiIPower/tldrit/internal/db/dbtest"
	"github.com/eToThePiIPower/tldrit/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	svc := NewUserService(dbtest.New(t), zap.NewNop())
	svc.cost = bcrypt.MinCost
	return svc
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(t)

	user, err := svc.Register(ctx, Registration{
		Username: "Alice",
		Email:    "alice@example.com",
		Password: "secret1",
		Homepage: "alice.example.com",
		Twitter:  "alice",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.UsernameCanonical)
	assert.Equal(t, "alice", user.Twitter)
	assert.NotEqual(t, "secret1", user.EncryptedPassword)

	tests := []struct {
		name string
		reg  Registration
		attr string
		msg  string
	}{
		{"username taken ignoring case", Registration{Username: "ALICE", Email: "other@example.com", Password: "secret1"}, "username", "has already been taken"},
		{"email taken", Registration{Username: "bob", Email: "alice@example.com", Password: "secret1"}, "email", "has already been taken"},
		{"blank username", Registration{Email: "bob@example.com", Password: "secret1"}, "username", "can't be blank"},
		{"bad email", Registration{Username: "bob", Email: "nope", Password: "secret1"}, "email", "is invalid"},
		{"short password", Registration{Username: "bob", Email: "bob@example.com", Password: "12345"}, "password", "is too short (minimum is 6 characters)"},
		{"bad homepage", Registration{Username: "bob", Email: "bob@example.com", Password: "secret1", Homepage: "ftp://bob"}, "homepage", "is not a valid HTTP or HTTPS URI"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.reg)
			var errs validation.Errors
			require.ErrorAs(t, err, &errs)
			assert.Contains(t, errs.On(tt.attr), tt.msg)
		})
	}
}

func TestRegisterInsertConflictNamesColumn(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(t)
	_, err := svc.Register(ctx, Registration{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	// Blind the two pre-insert uniqueness counts so the insert itself collides,
	// as it does when a concurrent signup commits between check and insert.
	blind := 2
	require.NoError(t, svc.db.Callback().Query().After("gorm:query").Register("test:blind_counts", func(tx *gorm.DB) {
		if count, ok := tx.Statement.Dest.(*int64); ok && blind > 0 && tx.Statement.Table == "users" {
			blind--
			*count = 0
		}
	}))

	_, err = svc.Register(ctx, Registration{Username: "bob", Email: "alice@example.com", Password: "secret1"})
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{"has already been taken"}, errs.On("email"))
	assert.Empty(t, errs.On("username"))
}

func TestRegisterReportsLookupFailure(t *testing.T) {
	svc := newUserService(t)
	boom := errors.New("connection reset")
	require.NoError(t, svc.db.Callback().Query().Before("gorm:query").Register("test:fail_users", func(tx *gorm.DB) {
		if tx.Statement.Table == "users" {
			tx.AddError(boom)
		}
	}))

	_, err := svc.Register(context.Background(), Registration{Username: "bob", Email: "bob@example.com", Password: "secret1"})
	require.ErrorIs(t, err, boom)
	var errs validation.Errors
	assert.False(t, errors.As(err, &errs))
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(t)

	registered, err := svc.Register(ctx, Registration{Username: "carol", Email: "carol@example.com", Password: "hunter22"})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, " carol@example.com ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = svc.Authenticate(ctx, "carol@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	found, err := svc.Find(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol", found.Username)

	_, err = svc.Find(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
