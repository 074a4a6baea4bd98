package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fractalschool/recsys-backend/internal/logger"
	"github.com/fractalschool/recsys-backend/internal/types"
)

type VariantAssignmentRepo interface {
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.VariantAssignment, error)
	GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.VariantAssignment, error)
	// GetByIDForUserLocked acquires an exclusive row lock on the assignment
	// for the duration of tx, then loads the template (with ordered tasks)
	// through follow-up queries.
	GetByIDForUserLocked(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.VariantAssignment, error)
	MarkStarted(ctx context.Context, tx *gorm.DB, assignment *types.VariantAssignment, at time.Time) error
}

type variantAssignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVariantAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) VariantAssignmentRepo {
	return &variantAssignmentRepo{db: db, log: baseLog.With("repo", "VariantAssignmentRepo")}
}

func (r *variantAssignmentRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func withAssignmentPreloads(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Template").
		Preload("Template.TemplateTasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("task_order")
		}).
		Preload("Template.TemplateTasks.Task").
		Preload("Attempts", func(db *gorm.DB) *gorm.DB {
			return db.Order("attempt_number")
		}).
		Preload("Attempts.TaskAttempts", func(db *gorm.DB) *gorm.DB {
			return db.Order("variant_task_id, attempt_number, created_at")
		})
}

func (r *variantAssignmentRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.VariantAssignment, error) {
	var rows []*types.VariantAssignment
	if userID == uuid.Nil {
		return rows, nil
	}
	err := withAssignmentPreloads(r.conn(tx).WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *variantAssignmentRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.VariantAssignment, error) {
	if id == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var row types.VariantAssignment
	err := withAssignmentPreloads(r.conn(tx).WithContext(ctx)).
		Where("id = ? AND user_id = ?", id, userID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *variantAssignmentRepo) GetByIDForUserLocked(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.VariantAssignment, error) {
	if id == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var row types.VariantAssignment
	err := r.conn(tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, userID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}

	var template types.VariantTemplate
	err = r.conn(tx).WithContext(ctx).
		Preload("TemplateTasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("task_order")
		}).
		Preload("TemplateTasks.Task").
		Where("id = ?", row.TemplateID).
		Limit(1).
		Find(&template).Error
	if err != nil {
		return nil, err
	}
	row.Template = &template
	return &row, nil
}

func (r *variantAssignmentRepo) MarkStarted(ctx context.Context, tx *gorm.DB, assignment *types.VariantAssignment, at time.Time) error {
	if assignment.StartedAt != nil {
		return nil
	}
	assignment.StartedAt = &at
	return r.conn(tx).WithContext(ctx).
		Model(assignment).
		Updates(map[string]any{"started_at": at, "updated_at": at}).Error
}
