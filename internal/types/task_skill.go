package types

import (
	"time"

	"github.com/google/uuid"
)

// TaskSkill weighs how strongly a task exercises a skill. The weight feeds
// the Beta update in the mastery estimator.
type TaskSkill struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TaskID    uuid.UUID `gorm:"type:uuid;not null;index:idx_task_skill,unique,priority:1" json:"task_id"`
	SkillID   uuid.UUID `gorm:"type:uuid;not null;index:idx_task_skill,unique,priority:2" json:"skill_id"`
	Skill     *Skill    `gorm:"foreignKey:SkillID;references:ID" json:"skill,omitempty"`
	Weight    float64   `gorm:"column:weight;not null;default:1" json:"weight"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (TaskSkill) TableName() string { return "task_skill" }
