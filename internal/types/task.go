package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Rendering strategies the frontend understands.
const (
	RenderingPlain    = "plain"
	RenderingMarkdown = "markdown"
	RenderingHTML     = "html"
)

type Task struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SubjectID   uuid.UUID `gorm:"type:uuid;not null;index" json:"subject_id"`
	Subject     *Subject  `gorm:"foreignKey:SubjectID;references:ID" json:"subject,omitempty"`
	TypeID      uuid.UUID `gorm:"type:uuid;not null;index" json:"type_id"`
	Type        *TaskType `gorm:"foreignKey:TypeID;references:ID" json:"type,omitempty"`
	Title       string    `gorm:"not null;column:title" json:"title"`
	Description string    `gorm:"column:description" json:"description"`

	// Dynamic tasks render from a registered generator; static tasks carry
	// their full statement in Title/Description.
	IsDynamic      bool              `gorm:"column:is_dynamic;not null;default:false" json:"is_dynamic"`
	GeneratorSlug  string            `gorm:"column:generator_slug" json:"generator_slug"`
	DefaultPayload datatypes.JSONMap `gorm:"column:default_payload;type:jsonb" json:"default_payload,omitempty"`

	ImageURL          string            `gorm:"column:image_url" json:"image_url"`
	CorrectAnswer     datatypes.JSONMap `gorm:"column:correct_answer;type:jsonb" json:"correct_answer,omitempty"`
	DifficultyLevel   int               `gorm:"column:difficulty_level;not null;default:0" json:"difficulty_level"`
	RenderingStrategy string            `gorm:"column:rendering_strategy;not null;default:markdown" json:"rendering_strategy"`

	Skills []*TaskSkill `gorm:"foreignKey:TaskID;references:ID" json:"skills,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Task) TableName() string { return "task" }
