package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fractalschool/recsys-backend/internal/logger"
	"github.com/fractalschool/recsys-backend/internal/types"
)

type VariantTaskRepo interface {
	ListByTemplate(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) ([]*types.VariantTask, error)
	// GetByIDInTemplate resolves a variant task only when it belongs to the
	// given template; a task from another template reads as absent.
	GetByIDInTemplate(ctx context.Context, tx *gorm.DB, id, templateID uuid.UUID) (*types.VariantTask, error)
}

type variantTaskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVariantTaskRepo(db *gorm.DB, baseLog *logger.Logger) VariantTaskRepo {
	return &variantTaskRepo{db: db, log: baseLog.With("repo", "VariantTaskRepo")}
}

func (r *variantTaskRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *variantTaskRepo) ListByTemplate(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) ([]*types.VariantTask, error) {
	var rows []*types.VariantTask
	if templateID == uuid.Nil {
		return rows, nil
	}
	err := r.conn(tx).WithContext(ctx).
		Preload("Task").
		Where("template_id = ?", templateID).
		Order("task_order").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *variantTaskRepo) GetByIDInTemplate(ctx context.Context, tx *gorm.DB, id, templateID uuid.UUID) (*types.VariantTask, error) {
	if id == uuid.Nil || templateID == uuid.Nil {
		return nil, nil
	}
	var row types.VariantTask
	err := r.conn(tx).WithContext(ctx).
		Preload("Task").
		Where("id = ? AND template_id = ?", id, templateID).
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
