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

type SkillMasteryRepo interface {
	Get(ctx context.Context, tx *gorm.DB, userID, skillID uuid.UUID) (*types.SkillMastery, error)
	Upsert(ctx context.Context, tx *gorm.DB, userID, skillID uuid.UUID, mastery, confidence float64) error
}

type skillMasteryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSkillMasteryRepo(db *gorm.DB, baseLog *logger.Logger) SkillMasteryRepo {
	return &skillMasteryRepo{db: db, log: baseLog.With("repo", "SkillMasteryRepo")}
}

func (r *skillMasteryRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *skillMasteryRepo) Get(ctx context.Context, tx *gorm.DB, userID, skillID uuid.UUID) (*types.SkillMastery, error) {
	if userID == uuid.Nil || skillID == uuid.Nil {
		return nil, nil
	}
	var row types.SkillMastery
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND skill_id = ?", userID, skillID).
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

func (r *skillMasteryRepo) Upsert(ctx context.Context, tx *gorm.DB, userID, skillID uuid.UUID, mastery, confidence float64) error {
	if userID == uuid.Nil || skillID == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	row := &types.SkillMastery{
		ID:         uuid.New(),
		UserID:     userID,
		SkillID:    skillID,
		Mastery:    mastery,
		Confidence: confidence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "skill_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"mastery", "confidence", "updated_at",
			}),
		}).
		Create(row).Error
}
