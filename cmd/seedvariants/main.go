package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fractalschool/recsys-backend/internal/db"
	"github.com/fractalschool/recsys-backend/internal/logger"
	"github.com/fractalschool/recsys-backend/internal/taskgen"
	"github.com/fractalschool/recsys-backend/internal/types"
)

// seedFile is the YAML shape consumed by this tool. Names are the natural
// keys: running the seeder twice updates in place instead of duplicating.
type seedFile struct {
	Subject   string           `yaml:"subject"`
	TaskTypes []seedTaskType   `yaml:"task_types"`
	Skills    []string         `yaml:"skills"`
	Tasks     []seedTask       `yaml:"tasks"`
	Templates []seedTemplate   `yaml:"templates"`
	Assigns   []seedAssignment `yaml:"assignments"`
}

type seedTaskType struct {
	Slug         string `yaml:"slug"`
	Name         string `yaml:"name"`
	DisplayOrder int    `yaml:"display_order"`
}

type seedTask struct {
	Title             string         `yaml:"title"`
	Description       string         `yaml:"description"`
	Type              string         `yaml:"type"`
	Dynamic           bool           `yaml:"dynamic"`
	Generator         string         `yaml:"generator"`
	Payload           map[string]any `yaml:"payload"`
	CorrectAnswer     map[string]any `yaml:"correct_answer"`
	DifficultyLevel   int            `yaml:"difficulty_level"`
	RenderingStrategy string         `yaml:"rendering_strategy"`
	Skills            []seedSkillRef `yaml:"skills"`
}

type seedSkillRef struct {
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`
}

type seedTemplate struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	TimeLimit   string         `yaml:"time_limit"`
	MaxAttempts *int           `yaml:"max_attempts"`
	Tasks       []seedTaskSlot `yaml:"tasks"`
}

type seedTaskSlot struct {
	Task        string `yaml:"task"`
	MaxAttempts *int   `yaml:"max_attempts"`
}

type seedAssignment struct {
	Template  string `yaml:"template"`
	UserEmail string `yaml:"user_email"`
	Deadline  string `yaml:"deadline"`
}

func main() {
	var path string
	flag.StringVar(&path, "file", "variants.yaml", "path to the seed file")
	flag.Parse()

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log = log.With("tool", "seedvariants")

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatal("Failed to read seed file", "path", path, "error", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		log.Fatal("Failed to parse seed file", "path", path, "error", err)
	}

	registry := taskgen.NewDefaultRegistry()
	for _, task := range seed.Tasks {
		if task.Dynamic && !registry.Registered(task.Generator) {
			log.Fatal("Unknown generator in seed file", "task", task.Title, "generator", task.Generator)
		}
	}

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}

	if err := postgresService.DB().Transaction(func(tx *gorm.DB) error {
		return apply(tx, log, &seed)
	}); err != nil {
		log.Fatal("Seeding failed", "error", err)
	}
	log.Info("Seeding complete", "path", path)
}

func apply(tx *gorm.DB, log *logger.Logger, seed *seedFile) error {
	subject, err := upsertSubject(tx, seed.Subject)
	if err != nil {
		return err
	}

	typesBySlug := map[string]*types.TaskType{}
	for _, tt := range seed.TaskTypes {
		row := &types.TaskType{
			SubjectID:    subject.ID,
			Slug:         tt.Slug,
			Name:         tt.Name,
			DisplayOrder: tt.DisplayOrder,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject_id"}, {Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "display_order", "updated_at"}),
		}).Create(row).Error; err != nil {
			return fmt.Errorf("upsert task type %s: %w", tt.Slug, err)
		}
		if err := tx.Where("subject_id = ? AND slug = ?", subject.ID, tt.Slug).First(row).Error; err != nil {
			return err
		}
		typesBySlug[tt.Slug] = row
	}

	skillsByName := map[string]*types.Skill{}
	allSkillNames := append([]string{}, seed.Skills...)
	for _, task := range seed.Tasks {
		for _, ref := range task.Skills {
			allSkillNames = append(allSkillNames, ref.Name)
		}
	}
	for _, name := range allSkillNames {
		if _, done := skillsByName[name]; done {
			continue
		}
		row := &types.Skill{SubjectID: subject.ID, Name: name}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject_id"}, {Name: "name"}},
			DoNothing: true,
		}).Create(row).Error; err != nil {
			return fmt.Errorf("upsert skill %s: %w", name, err)
		}
		if err := tx.Where("subject_id = ? AND name = ?", subject.ID, name).First(row).Error; err != nil {
			return err
		}
		skillsByName[name] = row
	}

	tasksByTitle := map[string]*types.Task{}
	for _, st := range seed.Tasks {
		taskType, ok := typesBySlug[st.Type]
		if !ok {
			return fmt.Errorf("task %q references unknown type %q", st.Title, st.Type)
		}
		rendering := st.RenderingStrategy
		if rendering == "" {
			rendering = types.RenderingMarkdown
		}
		row := &types.Task{
			SubjectID:         subject.ID,
			TypeID:            taskType.ID,
			Title:             st.Title,
			Description:       st.Description,
			IsDynamic:         st.Dynamic,
			GeneratorSlug:     st.Generator,
			DefaultPayload:    st.Payload,
			CorrectAnswer:     st.CorrectAnswer,
			DifficultyLevel:   st.DifficultyLevel,
			RenderingStrategy: rendering,
		}
		var existing types.Task
		err := tx.Where("subject_id = ? AND title = ?", subject.ID, st.Title).Limit(1).Find(&existing).Error
		if err != nil {
			return err
		}
		if existing.ID != uuid.Nil {
			row.ID = existing.ID
			if err := tx.Model(&existing).Updates(map[string]any{
				"type_id":            taskType.ID,
				"description":        st.Description,
				"is_dynamic":         st.Dynamic,
				"generator_slug":     st.Generator,
				"default_payload":    row.DefaultPayload,
				"correct_answer":     row.CorrectAnswer,
				"difficulty_level":   st.DifficultyLevel,
				"rendering_strategy": rendering,
			}).Error; err != nil {
				return fmt.Errorf("update task %s: %w", st.Title, err)
			}
		} else if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("create task %s: %w", st.Title, err)
		}
		tasksByTitle[st.Title] = row

		for _, ref := range st.Skills {
			skill := skillsByName[ref.Name]
			weight := ref.Weight
			if weight == 0 {
				weight = 1
			}
			link := &types.TaskSkill{TaskID: row.ID, SkillID: skill.ID, Weight: weight}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "task_id"}, {Name: "skill_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"weight", "updated_at"}),
			}).Create(link).Error; err != nil {
				return fmt.Errorf("link task %s to skill %s: %w", st.Title, ref.Name, err)
			}
		}
	}

	templatesByName := map[string]*types.VariantTemplate{}
	for _, st := range seed.Templates {
		row := &types.VariantTemplate{
			Name:        st.Name,
			Description: st.Description,
			MaxAttempts: st.MaxAttempts,
		}
		if st.TimeLimit != "" {
			limit, err := time.ParseDuration(st.TimeLimit)
			if err != nil {
				return fmt.Errorf("template %q: bad time_limit %q: %w", st.Name, st.TimeLimit, err)
			}
			row.TimeLimit = &limit
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "time_limit", "max_attempts", "updated_at"}),
		}).Create(row).Error; err != nil {
			return fmt.Errorf("upsert template %s: %w", st.Name, err)
		}
		if err := tx.Where("name = ?", st.Name).First(row).Error; err != nil {
			return err
		}
		templatesByName[st.Name] = row

		for i, slot := range st.Tasks {
			task, ok := tasksByTitle[slot.Task]
			if !ok {
				return fmt.Errorf("template %q references unknown task %q", st.Name, slot.Task)
			}
			link := &types.VariantTask{
				TemplateID:  row.ID,
				TaskID:      task.ID,
				Order:       i + 1,
				MaxAttempts: slot.MaxAttempts,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "template_id"}, {Name: "task_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"task_order", "max_attempts", "updated_at"}),
			}).Create(link).Error; err != nil {
				return fmt.Errorf("place task %s in template %s: %w", slot.Task, st.Name, err)
			}
		}
	}

	for _, sa := range seed.Assigns {
		template, ok := templatesByName[sa.Template]
		if !ok {
			return fmt.Errorf("assignment references unknown template %q", sa.Template)
		}
		var user types.User
		if err := tx.Where("email = ?", sa.UserEmail).First(&user).Error; err != nil {
			return fmt.Errorf("assignment for %s: %w", sa.UserEmail, err)
		}
		row := &types.VariantAssignment{
			TemplateID: template.ID,
			UserID:     user.ID,
		}
		if sa.Deadline != "" {
			deadline, err := time.Parse(time.RFC3339, sa.Deadline)
			if err != nil {
				return fmt.Errorf("assignment for %s: bad deadline %q: %w", sa.UserEmail, sa.Deadline, err)
			}
			row.Deadline = &deadline
		}
		var existing types.VariantAssignment
		err := tx.Where("template_id = ? AND user_id = ?", template.ID, user.ID).Limit(1).Find(&existing).Error
		if err != nil {
			return err
		}
		if existing.ID != uuid.Nil {
			log.Info("Assignment already exists, skipping", "template", sa.Template, "user", sa.UserEmail)
			continue
		}
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("create assignment for %s: %w", sa.UserEmail, err)
		}
	}
	return nil
}

func upsertSubject(tx *gorm.DB, name string) (*types.Subject, error) {
	if name == "" {
		return nil, fmt.Errorf("seed file has no subject")
	}
	row := &types.Subject{Name: name}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(row).Error; err != nil {
		return nil, fmt.Errorf("upsert subject %s: %w", name, err)
	}
	if err := tx.Where("name = ?", name).First(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}
