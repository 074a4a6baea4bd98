package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fractalschool/recsys-backend/internal/logger"
	"github.com/fractalschool/recsys-backend/internal/types"
)

type VariantAttemptRepo interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *types.VariantAttempt) error
	GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.VariantAttempt, error)
	// GetByIDForUserLocked locks the attempt row for the duration of tx and
	// loads the owning assignment and template afterwards. Ownership is
	// verified against the assignment, so a foreign attempt reads as absent.
	GetByIDForUserLocked(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.VariantAttempt, error)
	CountByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) (int, error)
	ActiveExists(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) (bool, error)
	Complete(ctx context.Context, tx *gorm.DB, attempt *types.VariantAttempt) error
}

type variantAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVariantAttemptRepo(db *gorm.DB, baseLog *logger.Logger) VariantAttemptRepo {
	return &variantAttemptRepo{db: db, log: baseLog.With("repo", "VariantAttemptRepo")}
}

func (r *variantAttemptRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *variantAttemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *types.VariantAttempt) error {
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	return r.conn(tx).WithContext(ctx).Create(attempt).Error
}

func (r *variantAttemptRepo) loadAssignment(ctx context.Context, tx *gorm.DB, attempt *types.VariantAttempt, userID uuid.UUID) (bool, error) {
	var assignment types.VariantAssignment
	err := r.conn(tx).WithContext(ctx).
		Preload("Template").
		Preload("Template.TemplateTasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("task_order")
		}).
		Preload("Template.TemplateTasks.Task").
		Where("id = ? AND user_id = ?", attempt.AssignmentID, userID).
		Limit(1).
		Find(&assignment).Error
	if err != nil {
		return false, err
	}
	if assignment.ID == uuid.Nil {
		return false, nil
	}
	attempt.Assignment = &assignment
	return true, nil
}

func (r *variantAttemptRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.VariantAttempt, error) {
	if id == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var row types.VariantAttempt
	err := r.conn(tx).WithContext(ctx).
		Preload("TaskAttempts", func(db *gorm.DB) *gorm.DB {
			return db.Order("variant_task_id, attempt_number, created_at")
		}).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	owned, err := r.loadAssignment(ctx, tx, &row, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, nil
	}
	return &row, nil
}

func (r *variantAttemptRepo) GetByIDForUserLocked(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.VariantAttempt, error) {
	if id == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var row types.VariantAttempt
	err := r.conn(tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	owned, err := r.loadAssignment(ctx, tx, &row, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, nil
	}
	return &row, nil
}

func (r *variantAttemptRepo) CountByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) (int, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).
		Model(&types.VariantAttempt{}).
		Where("assignment_id = ?", assignmentID).
		Count(&count).Error
	return int(count), err
}

func (r *variantAttemptRepo) ActiveExists(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) (bool, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).
		Model(&types.VariantAttempt{}).
		Where("assignment_id = ? AND completed_at IS NULL", assignmentID).
		Count(&count).Error
	return count > 0, err
}

func (r *variantAttemptRepo) Complete(ctx context.Context, tx *gorm.DB, attempt *types.VariantAttempt) error {
	return r.conn(tx).WithContext(ctx).
		Model(attempt).
		Updates(map[string]any{
			"completed_at": attempt.CompletedAt,
			"time_spent":   attempt.TimeSpent,
			"updated_at":   attempt.UpdatedAt,
		}).Error
}
