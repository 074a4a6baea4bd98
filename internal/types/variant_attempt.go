package types

import (
	"time"

	"github.com/google/uuid"
)

// VariantAttempt is one timed run through an assignment's template.
// Invariant: per assignment, at most one attempt has CompletedAt == nil.
type VariantAttempt struct {
	ID            uuid.UUID          `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AssignmentID  uuid.UUID          `gorm:"type:uuid;not null;index:idx_variant_attempt_number,unique,priority:1" json:"assignment_id"`
	Assignment    *VariantAssignment `gorm:"foreignKey:AssignmentID;references:ID" json:"-"`
	AttemptNumber int                `gorm:"column:attempt_number;not null;index:idx_variant_attempt_number,unique,priority:2" json:"attempt_number"`

	StartedAt   time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	// TimeSpent is set once at completion, clamped to the template's time
	// limit when one is configured.
	TimeSpent *time.Duration `gorm:"column:time_spent" json:"time_spent,omitempty"`

	TaskAttempts []*VariantTaskAttempt `gorm:"foreignKey:VariantAttemptID;references:ID" json:"task_attempts,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (VariantAttempt) TableName() string { return "variant_attempt" }

// Active reports whether the attempt is still running.
func (a *VariantAttempt) Active() bool { return a.CompletedAt == nil }
