package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fractalschool/recsys-backend/internal/logger"
	"github.com/fractalschool/recsys-backend/internal/types"
)

type VariantTaskAttemptRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.VariantTaskAttempt) error
	ListByAttempt(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID) ([]*types.VariantTaskAttempt, error)
	// CountSubmissions counts real submissions, excluding the generation row.
	CountSubmissions(ctx context.Context, tx *gorm.DB, attemptID, variantTaskID uuid.UUID) (int, error)
	GetGeneration(ctx context.Context, tx *gorm.DB, attemptID, variantTaskID uuid.UUID) (*types.VariantTaskAttempt, error)
}

type variantTaskAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVariantTaskAttemptRepo(db *gorm.DB, baseLog *logger.Logger) VariantTaskAttemptRepo {
	return &variantTaskAttemptRepo{db: db, log: baseLog.With("repo", "VariantTaskAttemptRepo")}
}

func (r *variantTaskAttemptRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *variantTaskAttemptRepo) Create(ctx context.Context, tx *gorm.DB, row *types.VariantTaskAttempt) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.conn(tx).WithContext(ctx).Create(row).Error
}

func (r *variantTaskAttemptRepo) ListByAttempt(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID) ([]*types.VariantTaskAttempt, error) {
	var rows []*types.VariantTaskAttempt
	if attemptID == uuid.Nil {
		return rows, nil
	}
	err := r.conn(tx).WithContext(ctx).
		Where("variant_attempt_id = ?", attemptID).
		Order("variant_task_id, attempt_number, created_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *variantTaskAttemptRepo) CountSubmissions(ctx context.Context, tx *gorm.DB, attemptID, variantTaskID uuid.UUID) (int, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).
		Model(&types.VariantTaskAttempt{}).
		Where("variant_attempt_id = ? AND variant_task_id = ? AND attempt_number > ?",
			attemptID, variantTaskID, types.GenerationAttemptNumber).
		Count(&count).Error
	return int(count), err
}

func (r *variantTaskAttemptRepo) GetGeneration(ctx context.Context, tx *gorm.DB, attemptID, variantTaskID uuid.UUID) (*types.VariantTaskAttempt, error) {
	if attemptID == uuid.Nil || variantTaskID == uuid.Nil {
		return nil, nil
	}
	var row types.VariantTaskAttempt
	err := r.conn(tx).WithContext(ctx).
		Where("variant_attempt_id = ? AND variant_task_id = ? AND attempt_number = ?",
			attemptID, variantTaskID, types.GenerationAttemptNumber).
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
