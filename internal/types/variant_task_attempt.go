package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GenerationAttemptNumber marks the synthetic row holding the generated
// content snapshot; real submissions start at 1.
const GenerationAttemptNumber = 0

// VariantTaskAttempt records one submission (or the generation snapshot) for
// one variant task inside one attempt. (attempt, task, number) is unique.
type VariantTaskAttempt struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	VariantAttemptID uuid.UUID       `gorm:"type:uuid;not null;index:idx_variant_task_attempt,unique,priority:1" json:"variant_attempt_id"`
	VariantAttempt   *VariantAttempt `gorm:"foreignKey:VariantAttemptID;references:ID" json:"-"`
	VariantTaskID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_variant_task_attempt,unique,priority:2" json:"variant_task_id"`
	VariantTask      *VariantTask    `gorm:"foreignKey:VariantTaskID;references:ID" json:"-"`

	// TaskID is denormalized so a submission survives template edits.
	TaskID *uuid.UUID `gorm:"type:uuid;index" json:"task_id,omitempty"`

	// No column default here: gorm would omit the zero value of a defaulted
	// field on insert, silently renumbering generation rows.
	AttemptNumber int  `gorm:"column:attempt_number;not null;index:idx_variant_task_attempt,unique,priority:3" json:"attempt_number"`
	IsCorrect     bool `gorm:"column:is_correct;not null;default:false" json:"is_correct"`

	// TaskSnapshot carries what was shown ("task") and what was answered
	// ("response"), so each row is self-describing.
	TaskSnapshot datatypes.JSONMap `gorm:"column:task_snapshot;type:jsonb" json:"task_snapshot,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (VariantTaskAttempt) TableName() string { return "variant_task_attempt" }

// Submission reports whether the row is a real submission rather than the
// generation snapshot.
func (ta *VariantTaskAttempt) Submission() bool {
	return ta.AttemptNumber > GenerationAttemptNumber
}
