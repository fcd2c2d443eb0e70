package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eToThePiIPower/tldrit/internal/models"
	"github.com/eToThePiIPower/tldrit/internal/validation"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Registration is a sign-up request.
type Registration struct {
	Username   string `json:"username" form:"username" validate:"-"`
	Email      string `json:"email" form:"email" validate:"-"`
	Password   string `json:"password" form:"password" validate:"present,min=6,max=128"`
	Homepage   string `json:"homepage" form:"homepage" validate:"-"`
	Facebook   string `json:"facebook" form:"facebook" validate:"-"`
	Twitter    string `json:"twitter" form:"twitter" validate:"-"`
	GooglePlus string `json:"google_plus" form:"google_plus" validate:"-"`
}

type UserService struct {
	db   *gorm.DB
	log  *zap.Logger
	cost int
}

func NewUserService(db *gorm.DB, log *zap.Logger) *UserService {
	return &UserService{db: db, log: log.Named("users"), cost: bcrypt.DefaultCost}
}

// Register creates a user. Usernames are unique ignoring case.
func (s *UserService) Register(ctx context.Context, reg Registration) (*models.User, error) {
	user := &models.User{}
	if err := copier.Copy(user, &reg); err != nil {
		return nil, fmt.Errorf("copy registration: %w", err)
	}
	user.Email = strings.TrimSpace(user.Email)

	errs := user.Validate()
	for attr, msgs := range validation.Struct(&reg) {
		for _, msg := range msgs {
			errs.Add(attr, msg)
		}
	}
	if err := s.checkUnique(ctx, user, errs); err != nil {
		return nil, err
	}
	if !errs.Empty() {
		return user, errs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.EncryptedPassword = string(hash)

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent signup; find out which column collided.
			dup := validation.Errors{}
			if err := s.checkUnique(ctx, user, dup); err != nil {
				return nil, err
			}
			if dup.Empty() {
				dup.Add("username", "has already been taken")
			}
			return user, dup
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("User registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// checkUnique adds "has already been taken" for each unique column of user
// that another row already holds. Attributes already invalid are skipped.
func (s *UserService) checkUnique(ctx context.Context, user *models.User, errs validation.Errors) error {
	if errs.On("username") == nil {
		taken, err := s.taken(ctx, "username_canonical = ?", models.CanonicalUsername(user.Username))
		if err != nil {
			return err
		}
		if taken {
			errs.Add("username", "has already been taken")
		}
	}
	if errs.On("email") == nil {
		taken, err := s.taken(ctx, "email = ?", user.Email)
		if err != nil {
			return err
		}
		if taken {
			errs.Add("email", "has already been taken")
		}
	}
	return nil
}

func (s *UserService) taken(ctx context.Context, query string, arg any) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check uniqueness: %w", err)
	}
	return count > 0, nil
}

// Authenticate checks an email and password pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.EncryptedPassword), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *UserService) Find(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
