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

type TypeMasteryRepo interface {
	Get(ctx context.Context, tx *gorm.DB, userID, taskTypeID uuid.UUID) (*types.TypeMastery, error)
	Upsert(ctx context.Context, tx *gorm.DB, userID, taskTypeID uuid.UUID, mastery, confidence float64) error
}

type typeMasteryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTypeMasteryRepo(db *gorm.DB, baseLog *logger.Logger) TypeMasteryRepo {
	return &typeMasteryRepo{db: db, log: baseLog.With("repo", "TypeMasteryRepo")}
}

func (r *typeMasteryRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *typeMasteryRepo) Get(ctx context.Context, tx *gorm.DB, userID, taskTypeID uuid.UUID) (*types.TypeMastery, error) {
	if userID == uuid.Nil || taskTypeID == uuid.Nil {
		return nil, nil
	}
	var row types.TypeMastery
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND task_type_id = ?", userID, taskTypeID).
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

func (r *typeMasteryRepo) Upsert(ctx context.Context, tx *gorm.DB, userID, taskTypeID uuid.UUID, mastery, confidence float64) error {
	if userID == uuid.Nil || taskTypeID == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	row := &types.TypeMastery{
		ID:         uuid.New(),
		UserID:     userID,
		TaskTypeID: taskTypeID,
		Mastery:    mastery,
		Confidence: confidence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "task_type_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"mastery", "confidence", "updated_at",
			}),
		}).
		Create(row).Error
}
