package services

import (
	"context"
	"fmt"

	"github.com/eToThePiIPower/tldrit/internal/models"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultReconcileBatch = 200

// ScoreReconciler recomputes cached scores from the vote records and
// repairs any that drifted, e.g. after manual edits to the votes table.
type ScoreReconciler struct {
	db        *gorm.DB
	log       *zap.Logger
	batchSize int
	engine    *cron.Cron
}

func NewScoreReconciler(db *gorm.DB, log *zap.Logger, batchSize int) *ScoreReconciler {
	if batchSize <= 0 {
		batchSize = defaultReconcileBatch
	}
	return &ScoreReconciler{db: db, log: log.Named("reconcile"), batchSize: batchSize}
}

// Reconcile walks every post in batches and returns how many scores it
// corrected.
func (r *ScoreReconciler) Reconcile(ctx context.Context) (int, error) {
	var (
		posts []models.Post
		fixed int
	)
	result := r.db.WithContext(ctx).Select("id", "cached_score").
		FindInBatches(&posts, r.batchSize, func(_ *gorm.DB, _ int) error {
			for i := range posts {
				if err := ctx.Err(); err != nil {
					return err
				}
				changed, err := r.reconcileOne(ctx, &posts[i])
				if err != nil {
					return err
				}
				if changed {
					fixed++
				}
			}
			return nil
		})
	if result.Error != nil {
		return fixed, fmt.Errorf("reconcile scores: %w", result.Error)
	}

	r.log.Info("Score reconciliation finished",
		zap.Int64("checked", result.RowsAffected), zap.Int("fixed", fixed))
	return fixed, nil
}

func (r *ScoreReconciler) reconcileOne(ctx context.Context, subject models.Votable) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked struct{ CachedScore int }
		if err := tx.Model(subject).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("cached_score").
			Where("id = ?", subject.VotableID()).
			Take(&locked).Error; err != nil {
			return err
		}

		score, err := tallyScore(tx, subject.VotableType(), subject.VotableID())
		if err != nil {
			return err
		}
		if score == locked.CachedScore {
			return nil
		}

		r.log.Warn("Cached score drifted",
			zap.String("subject_type", subject.VotableType()),
			zap.Uint("subject_id", subject.VotableID()),
			zap.Int("cached", locked.CachedScore),
			zap.Int("actual", score))
		if err := tx.Model(subject).Where("id = ?", subject.VotableID()).
			UpdateColumn("cached_score", score).Error; err != nil {
			return err
		}
		subject.SetCachedScore(score)
		changed = true
		return nil
	})
	return changed, err
}

// Run implements cron.Job.
func (r *ScoreReconciler) Run() {
	if _, err := r.Reconcile(context.Background()); err != nil {
		r.log.Error("Scheduled score reconciliation failed", zap.Error(err))
	}
}

// Start runs the reconciler on a cron schedule such as "@daily" or
// "0 3 * * *".
func (r *ScoreReconciler) Start(spec string) error {
	r.engine = cron.New()
	if _, err := r.engine.AddJob(spec, r); err != nil {
		return fmt.Errorf("schedule reconciliation %q: %w", spec, err)
	}
	r.log.Info("Score reconciliation scheduled", zap.String("schedule", spec))
	r.engine.Start()
	return nil
}

// Stop halts the schedule and waits for a running reconciliation.
func (r *ScoreReconciler) Stop() {
	if r.engine == nil {
		return
	}
	<-r.engine.Stop().Done()
}
