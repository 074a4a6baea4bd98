package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fractalschool/recsys-backend/internal/logger"
	"github.com/fractalschool/recsys-backend/internal/types"
)

type TaskSkillRepo interface {
	ListByTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) ([]*types.TaskSkill, error)
}

type taskSkillRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskSkillRepo(db *gorm.DB, baseLog *logger.Logger) TaskSkillRepo {
	return &taskSkillRepo{db: db, log: baseLog.With("repo", "TaskSkillRepo")}
}

func (r *taskSkillRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *taskSkillRepo) ListByTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) ([]*types.TaskSkill, error) {
	var rows []*types.TaskSkill
	if taskID == uuid.Nil {
		return rows, nil
	}
	err := r.conn(tx).WithContext(ctx).
		Preload("Skill").
		Where("task_id = ?", taskID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
