package models

import (
	"strings"
	"time"

	"github.com/eToThePiIPower/tldrit/internal/linkurl"
	"github.com/eToThePiIPower/tldrit/internal/validation"
)

// VotableTypePost tags votes cast on posts.
const VotableTypePost = "Post"

// Post is either a link post (URL set) or a text post (Description
// required). The URL decides which one it is.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id" validate:"-"`
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user" validate:"-"`
	Title       string    `gorm:"size:140;not null" json:"title" validate:"present,min=3,max=140"`
	URL         string    `gorm:"size:140" json:"url" validate:"omitempty,linkuri,min=3,max=140"`
	Description string    `gorm:"type:text" json:"description"`
	CachedScore int       `gorm:"not null;default:0;index" json:"cached_score"`
	Comments    []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments,omitempty" validate:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Link reports whether the post is a link post.
func (p *Post) Link() bool {
	return strings.TrimSpace(p.URL) != ""
}

// FullURL is the submitted URL with a scheme.
func (p *Post) FullURL() string {
	return linkurl.FullURL(p.URL)
}

// Host is the host name of the submitted URL, empty for text posts.
func (p *Post) Host() string {
	if !p.Link() {
		return ""
	}
	return linkurl.Host(p.URL)
}

// Score is the sum of the post's votes.
func (p *Post) Score() int {
	return p.CachedScore
}

func (p *Post) OwnerID() uint { return p.UserID }

func (p *Post) VotableType() string { return VotableTypePost }

func (p *Post) VotableID() uint { return p.ID }

func (p *Post) SetCachedScore(score int) { p.CachedScore = score }

// ValidateConditional requires a description on text posts only.
func (p *Post) ValidateConditional(errs validation.Errors) {
	if p.Link() {
		return
	}
	validation.Field(errs, "description", p.Description, "present,min=20,max=2000")
}

// Validate runs the post's attribute rules against its current state.
func (p *Post) Validate() validation.Errors {
	return validation.Struct(p)
}
