package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/fractalschool/recsys-backend/internal/logger"
	"github.com/fractalschool/recsys-backend/internal/types"
	"github.com/fractalschool/recsys-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "recsys", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

// AutoMigrateAll creates or updates every table, then wires the cascade
// paths migration cannot express: deleting a template, assignment, attempt
// or user takes its dependents with it.
func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.Subject{},
		&types.TaskType{},
		&types.Skill{},
		&types.Task{},
		&types.TaskSkill{},
		&types.SkillMastery{},
		&types.TypeMastery{},
		&types.VariantTemplate{},
		&types.VariantTask{},
		&types.VariantAssignment{},
		&types.VariantAttempt{},
		&types.VariantTaskAttempt{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	cascades := []struct {
		constraint string
		table      string
		column     string
		refTable   string
	}{
		{"fk_variant_task_template_id", "variant_task", "template_id", "variant_template"},
		{"fk_variant_assignment_template_id", "variant_assignment", "template_id", "variant_template"},
		{"fk_variant_assignment_user_id", "variant_assignment", "user_id", "user"},
		{"fk_variant_attempt_assignment_id", "variant_attempt", "assignment_id", "variant_assignment"},
		{"fk_variant_task_attempt_attempt_id", "variant_task_attempt", "variant_attempt_id", "variant_attempt"},
		{"fk_variant_task_attempt_task_id", "variant_task_attempt", "variant_task_id", "variant_task"},
		{"fk_task_skill_task_id", "task_skill", "task_id", "task"},
		{"fk_task_skill_skill_id", "task_skill", "skill_id", "skill"},
		{"fk_skill_mastery_user_id", "skill_mastery", "user_id", "user"},
		{"fk_type_mastery_user_id", "type_mastery", "user_id", "user"},
	}
	for _, fk := range cascades {
		stmt := fmt.Sprintf(`
			ALTER TABLE %q
			DROP CONSTRAINT IF EXISTS %q;
		`, fk.table, fk.constraint)
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("drop %s: %w", fk.constraint, err)
		}
		stmt = fmt.Sprintf(`
			ALTER TABLE %q
			ADD CONSTRAINT %q
			FOREIGN KEY (%q)
			REFERENCES %q("id")
			ON DELETE CASCADE;
		`, fk.table, fk.constraint, fk.column, fk.refTable)
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("add %s: %w", fk.constraint, err)
		}
	}
	return nil
}
