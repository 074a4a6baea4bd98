package types

import (
	"time"

	"github.com/google/uuid"
)

type TaskType struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SubjectID    uuid.UUID `gorm:"type:uuid;not null;index:idx_task_type_subject_slug,unique,priority:1" json:"subject_id"`
	Subject      *Subject  `gorm:"foreignKey:SubjectID;references:ID" json:"subject,omitempty"`
	Slug         string    `gorm:"not null;column:slug;index:idx_task_type_subject_slug,unique,priority:2" json:"slug"`
	Name         string    `gorm:"not null;column:name" json:"name"`
	DisplayOrder int       `gorm:"column:display_order;not null;default:0" json:"display_order"`
	CreatedAt    time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (TaskType) TableName() string { return "task_type" }
