package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/eToThePiIPower/tldrit/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Direction is the way a vote is cast.
type Direction int

const (
	Up Direction = iota + 1
	Down
)

// Value is the vote value stored for the direction.
func (d Direction) Value() int {
	if d == Down {
		return models.VoteDown
	}
	return models.VoteUp
}

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}

// VoteLedger records one vote per (voter, subject) and keeps the subject's
// cached score equal to the sum of its votes.
type VoteLedger struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewVoteLedger(db *gorm.DB, log *zap.Logger) *VoteLedger {
	return &VoteLedger{db: db, log: log.Named("votes")}
}

// CastVote applies voterID's vote on subject and returns the subject's new
// score, which is also set on subject.
//
// A first vote creates the record, a vote in the opposite direction flips
// it, and repeating the current direction changes nothing.
func (l *VoteLedger) CastVote(ctx context.Context, voterID uint, subject models.Votable, dir Direction) (int, error) {
	if voterID == 0 {
		return 0, ErrUnauthenticated
	}

	score, err := l.castOnce(ctx, voterID, subject, dir)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Another request inserted this voter's first vote between our read
		// and our insert. The retry sees that row and takes the flip path.
		l.log.Warn("Concurrent first vote, retrying",
			zap.Uint("voter_id", voterID),
			zap.String("subject_type", subject.VotableType()),
			zap.Uint("subject_id", subject.VotableID()))
		score, err = l.castOnce(ctx, voterID, subject, dir)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, ErrConcurrencyConflict
		}
	}
	if err != nil {
		return 0, err
	}

	subject.SetCachedScore(score)
	return score, nil
}

func (l *VoteLedger) castOnce(ctx context.Context, voterID uint, subject models.Votable, dir Direction) (int, error) {
	var score int
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the subject row so concurrent voters recount one at a time.
		var locked struct{ CachedScore int }
		err := tx.Model(subject).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("cached_score").
			Where("id = ?", subject.VotableID()).
			Take(&locked).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubjectNotFound
		}
		if err != nil {
			return fmt.Errorf("lock subject: %w", err)
		}

		var vote models.Vote
		err = tx.Where("voter_id = ? AND votable_id = ? AND votable_type = ?",
			voterID, subject.VotableID(), subject.VotableType()).
			Take(&vote).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote = models.Vote{
				VoterID:     voterID,
				VotableID:   subject.VotableID(),
				VotableType: subject.VotableType(),
				Value:       dir.Value(),
			}
			if err := tx.Create(&vote).Error; err != nil {
				return fmt.Errorf("create vote: %w", err)
			}
		case err != nil:
			return fmt.Errorf("find vote: %w", err)
		case vote.Value == dir.Value():
			// Same direction again: nothing to change.
		default:
			if err := tx.Model(&vote).Update("value", dir.Value()).Error; err != nil {
				return fmt.Errorf("flip vote: %w", err)
			}
		}

		score, err = tallyScore(tx, subject.VotableType(), subject.VotableID())
		if err != nil {
			return err
		}
		if err := tx.Model(subject).Where("id = ?", subject.VotableID()).
			UpdateColumn("cached_score", score).Error; err != nil {
			return fmt.Errorf("update cached score: %w", err)
		}
		return nil
	})
	return score, err
}

// tallyScore recounts a subject's score from its vote records.
func tallyScore(tx *gorm.DB, votableType string, votableID uint) (int, error) {
	var upvotes, downvotes int64
	if err := tx.Model(&models.Vote{}).
		Where("votable_type = ? AND votable_id = ? AND value = ?", votableType, votableID, models.VoteUp).
		Count(&upvotes).Error; err != nil {
		return 0, fmt.Errorf("count upvotes: %w", err)
	}
	if err := tx.Model(&models.Vote{}).
		Where("votable_type = ? AND votable_id = ? AND value = ?", votableType, votableID, models.VoteDown).
		Count(&downvotes).Error; err != nil {
		return 0, fmt.Errorf("count downvotes: %w", err)
	}
	return int(upvotes - downvotes), nil
}
