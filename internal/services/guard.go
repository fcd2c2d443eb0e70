package services

import (
	"errors"
	"fmt"

	"github.com/eToThePiIPower/tldrit/internal/models"
	"gorm.io/gorm"
)

// DeniedMessage is shown to users whose mutation the guard refused.
const DeniedMessage = "You are not authorized to perform that operation"

// Decision is the outcome of an ownership check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Authorize allows userID to mutate resource only if userID owns it. A nil
// resource means nothing matched within the user's own records, which is
// denied the same way as someone else's resource.
func Authorize(userID uint, resource models.Owned) Decision {
	switch {
	case userID == 0:
		return Decision{Reason: "not signed in"}
	case resource == nil:
		return Decision{Reason: "no such resource for this user"}
	case resource.OwnerID() != userID:
		return Decision{Reason: "owned by another user"}
	}
	return Decision{Allowed: true}
}

// OwnedPost loads post id from userID's own posts and authorizes it.
func OwnedPost(tx *gorm.DB, userID, id uint) (*models.Post, error) {
	var post models.Post
	found, err := scopedTake(tx.Where("id = ? AND user_id = ?", id, userID), &post)
	if err != nil {
		return nil, err
	}
	if err := decide(userID, found); err != nil {
		return nil, err
	}
	return &post, nil
}

// OwnedComment loads comment id on postID from userID's own comments and
// authorizes it.
func OwnedComment(tx *gorm.DB, userID, postID, id uint) (*models.Comment, error) {
	var comment models.Comment
	found, err := scopedTake(tx.Where("id = ? AND post_id = ? AND user_id = ?", id, postID, userID), &comment)
	if err != nil {
		return nil, err
	}
	if err := decide(userID, found); err != nil {
		return nil, err
	}
	return &comment, nil
}

func scopedTake[T models.Owned](query *gorm.DB, dest T) (models.Owned, error) {
	err := query.Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return dest, nil
}

func decide(userID uint, resource models.Owned) error {
	if d := Authorize(userID, resource); !d.Allowed {
		return fmt.Errorf("%w: %s", ErrNotAuthorized, d.Reason)
	}
	return nil
}
