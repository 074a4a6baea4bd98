package types

import (
	"time"

	"github.com/google/uuid"
)

type Skill struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SubjectID uuid.UUID `gorm:"type:uuid;not null;index:idx_skill_subject_name,unique,priority:1" json:"subject_id"`
	Subject   *Subject  `gorm:"foreignKey:SubjectID;references:ID" json:"subject,omitempty"`
	Name      string    `gorm:"not null;column:name;index:idx_skill_subject_name,unique,priority:2" json:"name"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Skill) TableName() string { return "skill" }
