package models

import (
	"strings"
	"time"

	"github.com/eToThePiIPower/tldrit/internal/validation"
	"gorm.io/gorm"
)

type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Username          string    `gorm:"size:64;not null" json:"username" validate:"present,max=64"`
	UsernameCanonical string    `gorm:"size:64;uniqueIndex;not null" json:"-" validate:"-"` // lower-cased username, enforces case-insensitive uniqueness
	Email             string    `gorm:"uniqueIndex;not null" json:"email" validate:"present,email"`
	EncryptedPassword string    `gorm:"not null" json:"-" validate:"-"` // bcrypt hash
	Homepage          string    `json:"homepage" validate:"omitempty,linkuri"`
	Facebook          string    `json:"facebook"`
	Twitter           string    `json:"twitter"`
	GooglePlus        string    `json:"google_plus"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CanonicalUsername is the form usernames are compared by.
func CanonicalUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (u *User) BeforeSave(_ *gorm.DB) error {
	u.UsernameCanonical = CanonicalUsername(u.Username)
	return nil
}

// Validate runs the user's attribute rules.
func (u *User) Validate() validation.Errors {
	return validation.Struct(u)
}
