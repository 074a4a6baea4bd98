package types

import (
	"time"

	"github.com/google/uuid"
)

// VariantAssignment binds a template to one student. Attempt state hangs off
// it; "current vs past" is derived, never stored.
type VariantAssignment struct {
	ID         uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TemplateID uuid.UUID        `gorm:"type:uuid;not null;index" json:"template_id"`
	Template   *VariantTemplate `gorm:"foreignKey:TemplateID;references:ID" json:"template,omitempty"`
	UserID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User            `gorm:"foreignKey:UserID;references:ID" json:"-"`

	Deadline  *time.Time `gorm:"column:deadline" json:"deadline,omitempty"`
	StartedAt *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`

	Attempts []*VariantAttempt `gorm:"foreignKey:AssignmentID;references:ID" json:"attempts,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (VariantAssignment) TableName() string { return "variant_assignment" }
