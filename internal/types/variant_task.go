package types

import (
	"time"

	"github.com/google/uuid"
)

// VariantTask places one task inside a template. Order is unique within the
// template and drives the rendering order of progress views.
type VariantTask struct {
	ID         uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TemplateID uuid.UUID        `gorm:"type:uuid;not null;index:idx_variant_task_order,unique,priority:1;index:idx_variant_task_task,unique,priority:1" json:"template_id"`
	Template   *VariantTemplate `gorm:"foreignKey:TemplateID;references:ID" json:"-"`
	TaskID     uuid.UUID        `gorm:"type:uuid;not null;index:idx_variant_task_task,unique,priority:2" json:"task_id"`
	Task       *Task            `gorm:"foreignKey:TaskID;references:ID" json:"task,omitempty"`
	Order      int              `gorm:"column:task_order;not null;index:idx_variant_task_order,unique,priority:2" json:"order"`

	// MaxAttempts caps real submissions for this task within one attempt;
	// nil = unlimited.
	MaxAttempts *int `gorm:"column:max_attempts" json:"max_attempts,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (VariantTask) TableName() string { return "variant_task" }
