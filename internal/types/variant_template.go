package types

import (
	"time"

	"github.com/google/uuid"
)

// VariantTemplate is the immutable blueprint of an exam variant: an ordered
// task list plus the attempt rules. Read-only while attempts run.
type VariantTemplate struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;column:name" json:"name"`
	Description string    `gorm:"column:description" json:"description"`

	// TimeLimit bounds a single attempt's wall-clock duration; nil = untimed.
	TimeLimit *time.Duration `gorm:"column:time_limit" json:"time_limit,omitempty"`
	// MaxAttempts caps attempts per assignment; nil = unlimited.
	MaxAttempts *int `gorm:"column:max_attempts" json:"max_attempts,omitempty"`

	TemplateTasks []*VariantTask `gorm:"foreignKey:TemplateID;references:ID" json:"template_tasks,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (VariantTemplate) TableName() string { return "variant_template" }
