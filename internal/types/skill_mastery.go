package types

import (
	"time"

	"github.com/google/uuid"
)

// SkillMastery is the durable per-user per-skill proficiency estimate.
// Mastery stays in [0,1]; Confidence accumulates total observation weight.
// Rows are only ever upserted, never deleted.
type SkillMastery struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index:idx_skill_mastery,unique,priority:1" json:"user_id"`
	SkillID    uuid.UUID `gorm:"type:uuid;not null;index:idx_skill_mastery,unique,priority:2" json:"skill_id"`
	Mastery    float64   `gorm:"column:mastery;not null;default:0" json:"mastery"`
	Confidence float64   `gorm:"column:confidence;not null;default:0" json:"confidence"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (SkillMastery) TableName() string { return "skill_mastery" }
