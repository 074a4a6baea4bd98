package types

import (
	"time"

	"github.com/google/uuid"
)

// TypeMastery mirrors SkillMastery at task-type granularity.
type TypeMastery struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index:idx_type_mastery,unique,priority:1" json:"user_id"`
	TaskTypeID uuid.UUID `gorm:"type:uuid;not null;index:idx_type_mastery,unique,priority:2" json:"task_type_id"`
	Mastery    float64   `gorm:"column:mastery;not null;default:0" json:"mastery"`
	Confidence float64   `gorm:"column:confidence;not null;default:0" json:"confidence"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (TypeMastery) TableName() string { return "type_mastery" }
