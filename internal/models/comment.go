package models

import (
	"time"

	"github.com/eToThePiIPower/tldrit/internal/validation"
)

type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id" validate:"-"`
	Post      *Post     `json:"-" validate:"-"`
	UserID    uint      `gorm:"not null;index" json:"user_id" validate:"-"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user" validate:"-"`
	Body      string    `gorm:"type:text;not null" json:"body" validate:"present"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Comment) OwnerID() uint { return c.UserID }

func (c *Comment) Validate() validation.Errors {
	return validation.Struct(c)
}
