package models

import (
	"time"
)

// Vote values.
const (
	VoteUp   = 1
	VoteDown = -1
)

// Vote is one voter's standing vote on one subject. The unique index makes
// a second row for the same (voter, subject) impossible.
type Vote struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	VoterID     uint      `gorm:"not null;uniqueIndex:idx_votes_voter_subject,priority:1" json:"voter_id"`
	VotableID   uint      `gorm:"not null;uniqueIndex:idx_votes_voter_subject,priority:2;index:idx_votes_subject,priority:2" json:"votable_id"`
	VotableType string    `gorm:"size:32;not null;uniqueIndex:idx_votes_voter_subject,priority:3;index:idx_votes_subject,priority:1" json:"votable_type"`
	Value       int       `gorm:"not null" json:"value"` // 1 or -1
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Votable is anything votes can be cast on. Implementations must be gorm
// models with a cached_score column.
type Votable interface {
	VotableType() string
	VotableID() uint
	SetCachedScore(score int)
}

// Owned is anything that belongs to a single user.
type Owned interface {
	OwnerID() uint
}
