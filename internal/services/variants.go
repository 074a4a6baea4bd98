package services

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/fractalschool/recsys-backend/internal/pkg/errors"
	"github.com/fractalschool/recsys-backend/internal/logger"
	"github.com/fractalschool/recsys-backend/internal/repos"
	"github.com/fractalschool/recsys-backend/internal/taskgen"
	"github.com/fractalschool/recsys-backend/internal/types"
)

// AssignmentProgress summarizes how far a student got on an assignment.
// A task solved in any attempt stays solved, so progress survives starting
// a fresh attempt.
type AssignmentProgress struct {
	TotalTasks     int     `json:"total_tasks"`
	SolvedTasks    int     `json:"solved_tasks"`
	RemainingTasks int     `json:"remaining_tasks"`
	Percent        float64 `json:"percent"`
}

// TaskSubmission is one graded submission in a task's history, ordered by
// attempt number in the views that carry it.
type TaskSubmission struct {
	AttemptNumber int            `json:"attempt_number"`
	IsCorrect     bool           `json:"is_correct"`
	Response      map[string]any `json:"response,omitempty"`
}

// TaskProgress is the per-task view inside one attempt: the rendered task
// plus submission accounting. Correct answers never leave the service.
type TaskProgress struct {
	VariantTaskID uuid.UUID        `json:"variant_task_id"`
	TaskID        uuid.UUID        `json:"task_id"`
	Order         int              `json:"order"`
	Task          map[string]any   `json:"task"`
	Attempts      []TaskSubmission `json:"attempts"`
	Submissions   int              `json:"submissions"`
	MaxAttempts   *int             `json:"max_attempts,omitempty"`
	AttemptsLeft  *int             `json:"attempts_left,omitempty"`
	Solved        bool             `json:"solved"`
	LastResponse  map[string]any   `json:"last_response,omitempty"`
}

// SubmitResult reports the outcome of one graded submission.
type SubmitResult struct {
	IsCorrect       bool           `json:"is_correct"`
	AttemptNumber   int            `json:"attempt_number"`
	SubmissionsLeft *int           `json:"submissions_left,omitempty"`
	Mastery         *MasteryUpdate `json:"mastery,omitempty"`
}

// VariantService drives the assignment -> attempt -> submission lifecycle.
// All mutating operations run inside a transaction with the owning row
// locked; per-entity in-process mutexes keep the single-active-attempt and
// submission-numbering invariants intact even without row-lock support.
type VariantService interface {
	GetAssignments(ctx context.Context, userID uuid.UUID) ([]*types.VariantAssignment, error)
	GetAssignment(ctx context.Context, userID, assignmentID uuid.UUID) (*types.VariantAssignment, error)
	GetAttempt(ctx context.Context, userID, attemptID uuid.UUID) (*types.VariantAttempt, error)
	StartNewAttempt(ctx context.Context, userID, assignmentID uuid.UUID) (*types.VariantAttempt, error)
	SubmitTaskAnswer(ctx context.Context, userID, attemptID, variantTaskID uuid.UUID, answer map[string]any) (*SubmitResult, error)
	FinalizeAttempt(ctx context.Context, userID, attemptID uuid.UUID) (*types.VariantAttempt, error)

	CanStartAttempt(assignment *types.VariantAssignment, now time.Time) (bool, string)
	SplitAssignments(assignments []*types.VariantAssignment, now time.Time) (current, past []*types.VariantAssignment)
	CalculateAssignmentProgress(assignment *types.VariantAssignment) AssignmentProgress
	BuildTasksProgress(attempt *types.VariantAttempt, template *types.VariantTemplate) []TaskProgress
	TimeLeft(attempt *types.VariantAttempt, template *types.VariantTemplate, now time.Time) *time.Duration
	AttemptsLeft(assignment *types.VariantAssignment) *int
}

type variantService struct {
	db              *gorm.DB
	log             *logger.Logger
	now             func() time.Time
	locks           *keyedMutex
	registry        *taskgen.Registry
	assignmentRepo  repos.VariantAssignmentRepo
	attemptRepo     repos.VariantAttemptRepo
	taskAttemptRepo repos.VariantTaskAttemptRepo
	variantTaskRepo repos.VariantTaskRepo
	userRepo        repos.UserRepo
	mastery         MasteryService
}

func NewVariantService(
	db *gorm.DB,
	baseLog *logger.Logger,
	registry *taskgen.Registry,
	assignmentRepo repos.VariantAssignmentRepo,
	attemptRepo repos.VariantAttemptRepo,
	taskAttemptRepo repos.VariantTaskAttemptRepo,
	variantTaskRepo repos.VariantTaskRepo,
	userRepo repos.UserRepo,
	mastery MasteryService,
) VariantService {
	return &variantService{
		db:              db,
		log:             baseLog.With("service", "VariantService"),
		now:             time.Now,
		locks:           newKeyedMutex(),
		registry:        registry,
		assignmentRepo:  assignmentRepo,
		attemptRepo:     attemptRepo,
		taskAttemptRepo: taskAttemptRepo,
		variantTaskRepo: variantTaskRepo,
		userRepo:        userRepo,
		mastery:         mastery,
	}
}

// inTx runs fn inside a database transaction. Without a database handle
// (service wired against in-memory storage) fn runs directly with a nil tx,
// which every repo treats as "use your own connection".
func (s *variantService) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.db == nil {
		return fn(nil)
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *variantService) GetAssignments(ctx context.Context, userID uuid.UUID) ([]*types.VariantAssignment, error) {
	return s.assignmentRepo.ListByUser(ctx, nil, userID)
}

func (s *variantService) GetAssignment(ctx context.Context, userID, assignmentID uuid.UUID) (*types.VariantAssignment, error) {
	assignment, err := s.assignmentRepo.GetByIDForUser(ctx, nil, assignmentID, userID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, apperrors.NotFound("assignment")
	}
	return assignment, nil
}

func (s *variantService) GetAttempt(ctx context.Context, userID, attemptID uuid.UUID) (*types.VariantAttempt, error) {
	attempt, err := s.attemptRepo.GetByIDForUser(ctx, nil, attemptID, userID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, apperrors.NotFound("attempt")
	}
	return attempt, nil
}

// CanStartAttempt evaluates the start preconditions without touching state.
// The returned reason is empty when starting is allowed.
func (s *variantService) CanStartAttempt(assignment *types.VariantAssignment, now time.Time) (bool, string) {
	if assignment.Deadline != nil && now.After(*assignment.Deadline) {
		return false, apperrors.ReasonDeadlineExpired
	}
	for _, attempt := range assignment.Attempts {
		if attempt.Active() {
			return false, apperrors.ReasonAttemptAlreadyActive
		}
	}
	if assignment.Template != nil && assignment.Template.MaxAttempts != nil &&
		len(assignment.Attempts) >= *assignment.Template.MaxAttempts {
		return false, apperrors.ReasonAttemptLimitReached
	}
	return true, ""
}

// SplitAssignments partitions assignments into current and past. An
// assignment is past once its deadline has gone and nothing is running, or
// once its attempt budget is spent with no active attempt.
func (s *variantService) SplitAssignments(assignments []*types.VariantAssignment, now time.Time) (current, past []*types.VariantAssignment) {
	for _, assignment := range assignments {
		active := false
		for _, attempt := range assignment.Attempts {
			if attempt.Active() {
				active = true
				break
			}
		}
		expired := assignment.Deadline != nil && now.After(*assignment.Deadline)
		exhausted := assignment.Template != nil && assignment.Template.MaxAttempts != nil &&
			len(assignment.Attempts) >= *assignment.Template.MaxAttempts
		if active || (!expired && !exhausted) {
			current = append(current, assignment)
		} else {
			past = append(past, assignment)
		}
	}
	return current, past
}

// AttemptsLeft returns the remaining attempt budget, nil when unlimited.
func (s *variantService) AttemptsLeft(assignment *types.VariantAssignment) *int {
	if assignment.Template == nil || assignment.Template.MaxAttempts == nil {
		return nil
	}
	left := *assignment.Template.MaxAttempts - len(assignment.Attempts)
	if left < 0 {
		left = 0
	}
	return &left
}

// TimeLeft returns the remaining wall-clock budget of a running attempt,
// nil when the template is untimed. Never negative.
func (s *variantService) TimeLeft(attempt *types.VariantAttempt, template *types.VariantTemplate, now time.Time) *time.Duration {
	if template == nil || template.TimeLimit == nil {
		return nil
	}
	left := *template.TimeLimit - now.Sub(attempt.StartedAt)
	if left < 0 {
		left = 0
	}
	return &left
}

// attemptTaskSeed derives the deterministic generator seed for one task in
// one attempt. Same inputs always reproduce the same task content.
func attemptTaskSeed(assignmentID, attemptID, variantTaskID uuid.UUID, attemptNumber int) int64 {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s:%d", assignmentID, attemptID, variantTaskID, attemptNumber)))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// normalizeJSON forces a value through a JSON round trip so that values from
// different sources (generator output, jsonb column, request body) compare
// structurally.
func normalizeJSON(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func answersEqual(submitted, correct any) (bool, error) {
	a, err := normalizeJSON(submitted)
	if err != nil {
		return false, err
	}
	b, err := normalizeJSON(correct)
	if err != nil {
		return false, err
	}
	return reflect.DeepEqual(a, b), nil
}

// copyJSONMap deep-copies a payload so generators can mutate their input
// without touching the stored task row.
func copyJSONMap(src map[string]any) map[string]any {
	if src == nil {
		return map[string]any{}
	}
	out, err := normalizeJSON(src)
	if err != nil {
		return map[string]any{}
	}
	if m, ok := out.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// staticTaskSnapshot captures everything the frontend needs to render a
// static task. Correct answers are deliberately excluded.
func staticTaskSnapshot(task *types.Task) map[string]any {
	return map[string]any{
		"id":                 task.ID.String(),
		"title":              task.Title,
		"description":        task.Description,
		"image_url":          task.ImageURL,
		"rendering_strategy": task.RenderingStrategy,
		"is_dynamic":         false,
	}
}

// dynamicTaskSnapshot captures a generated task instance, including the
// answers needed to grade later submissions against this exact instance.
func dynamicTaskSnapshot(task *types.Task, result *taskgen.Result, seed int64) map[string]any {
	return map[string]any{
		"id":                 task.ID.String(),
		"title":              task.Title,
		"rendering_strategy": task.RenderingStrategy,
		"is_dynamic":         true,
		"generator":          task.GeneratorSlug,
		"seed":               seed,
		"content":            result.Content,
		"answers":            result.Answers,
		"payload":            result.Payload,
	}
}

// StartNewAttempt creates the next attempt for an assignment after checking
// the deadline, the single-active-attempt rule and the attempt budget.
// Attempt numbers are dense: count of existing attempts plus one. For every
// task in the template a generation row (attempt number 0) is written,
// snapshotting the content the student will see; dynamic tasks are generated
// with a seed derived from the attempt coordinates so a retry of the same
// attempt reproduces identical content.
func (s *variantService) StartNewAttempt(ctx context.Context, userID, assignmentID uuid.UUID) (*types.VariantAttempt, error) {
	unlock := s.locks.lock(assignmentID)
	defer unlock()

	var created *types.VariantAttempt
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		assignment, err := s.assignmentRepo.GetByIDForUserLocked(ctx, tx, assignmentID, userID)
		if err != nil {
			return err
		}
		if assignment == nil {
			return apperrors.NotFound("assignment")
		}

		now := s.now()
		if assignment.Deadline != nil && now.After(*assignment.Deadline) {
			return apperrors.Validation(apperrors.ReasonDeadlineExpired)
		}
		active, err := s.attemptRepo.ActiveExists(ctx, tx, assignment.ID)
		if err != nil {
			return err
		}
		if active {
			return apperrors.Validation(apperrors.ReasonAttemptAlreadyActive)
		}
		count, err := s.attemptRepo.CountByAssignment(ctx, tx, assignment.ID)
		if err != nil {
			return err
		}
		if assignment.Template != nil && assignment.Template.MaxAttempts != nil && count >= *assignment.Template.MaxAttempts {
			return apperrors.Validation(apperrors.ReasonAttemptLimitReached)
		}

		attempt := &types.VariantAttempt{
			ID:            uuid.New(),
			AssignmentID:  assignment.ID,
			AttemptNumber: count + 1,
			StartedAt:     now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.attemptRepo.Create(ctx, tx, attempt); err != nil {
			return err
		}
		if err := s.assignmentRepo.MarkStarted(ctx, tx, assignment, now); err != nil {
			return err
		}

		student, err := s.userRepo.GetByID(ctx, tx, userID)
		if err != nil {
			return err
		}

		var template *types.VariantTemplate
		if assignment.Template != nil {
			template = assignment.Template
		}
		if template != nil {
			for _, variantTask := range template.TemplateTasks {
				snapshot, err := s.buildGenerationSnapshot(assignment, attempt, variantTask, student)
				if err != nil {
					return fmt.Errorf("generate task %s: %w", variantTask.ID, err)
				}
				taskID := variantTask.TaskID
				row := &types.VariantTaskAttempt{
					ID:               uuid.New(),
					VariantAttemptID: attempt.ID,
					VariantTaskID:    variantTask.ID,
					TaskID:           &taskID,
					AttemptNumber:    types.GenerationAttemptNumber,
					TaskSnapshot:     map[string]any{"task": snapshot},
					CreatedAt:        now,
					UpdatedAt:        now,
				}
				if err := s.taskAttemptRepo.Create(ctx, tx, row); err != nil {
					return err
				}
				attempt.TaskAttempts = append(attempt.TaskAttempts, row)
			}
		}

		attempt.Assignment = assignment
		created = attempt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *variantService) buildGenerationSnapshot(
	assignment *types.VariantAssignment,
	attempt *types.VariantAttempt,
	variantTask *types.VariantTask,
	student *types.User,
) (map[string]any, error) {
	task := variantTask.Task
	if task == nil {
		return nil, fmt.Errorf("variant task %s has no task loaded", variantTask.ID)
	}
	if !task.IsDynamic {
		return staticTaskSnapshot(task), nil
	}
	seed := attemptTaskSeed(assignment.ID, attempt.ID, variantTask.ID, attempt.AttemptNumber)
	payload := copyJSONMap(task.DefaultPayload)
	result, err := s.registry.Generate(task, payload, seed, student)
	if err != nil {
		return nil, err
	}
	return dynamicTaskSnapshot(task, result, seed), nil
}

// SubmitTaskAnswer grades one answer against the attempt's generation
// snapshot (dynamic tasks) or the stored correct answer (static tasks), and
// records it as the next submission row. Preconditions: the attempt is
// active, its time budget is not spent, the task belongs to the attempt's
// template and the per-task submission cap is not exceeded. Mastery updates
// run best-effort: a failing estimator never loses the submission.
func (s *variantService) SubmitTaskAnswer(ctx context.Context, userID, attemptID, variantTaskID uuid.UUID, answer map[string]any) (*SubmitResult, error) {
	unlock := s.locks.lock(attemptID)
	defer unlock()

	var result *SubmitResult
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		attempt, err := s.attemptRepo.GetByIDForUserLocked(ctx, tx, attemptID, userID)
		if err != nil {
			return err
		}
		if attempt == nil {
			return apperrors.NotFound("attempt")
		}
		if !attempt.Active() {
			return apperrors.Validation(apperrors.ReasonAttemptAlreadyCompleted)
		}

		var template *types.VariantTemplate
		if attempt.Assignment != nil {
			template = attempt.Assignment.Template
		}
		now := s.now()
		if template != nil && template.TimeLimit != nil && now.Sub(attempt.StartedAt) > *template.TimeLimit {
			return apperrors.Validation(apperrors.ReasonTimeExpired)
		}

		var templateID uuid.UUID
		if template != nil {
			templateID = template.ID
		}
		variantTask, err := s.variantTaskRepo.GetByIDInTemplate(ctx, tx, variantTaskID, templateID)
		if err != nil {
			return err
		}
		if variantTask == nil {
			return apperrors.Validation(apperrors.ReasonTaskNotInVariant)
		}

		submissions, err := s.taskAttemptRepo.CountSubmissions(ctx, tx, attempt.ID, variantTask.ID)
		if err != nil {
			return err
		}
		if variantTask.MaxAttempts != nil && submissions >= *variantTask.MaxAttempts {
			return apperrors.Validation(apperrors.ReasonTaskAttemptLimitReached)
		}

		correct, taskSnapshot, err := s.resolveCorrectAnswer(ctx, tx, attempt, variantTask)
		if err != nil {
			return err
		}
		isCorrect, err := answersEqual(answer, correct)
		if err != nil {
			return fmt.Errorf("compare answers: %w", err)
		}

		taskID := variantTask.TaskID
		row := &types.VariantTaskAttempt{
			ID:               uuid.New(),
			VariantAttemptID: attempt.ID,
			VariantTaskID:    variantTask.ID,
			TaskID:           &taskID,
			AttemptNumber:    submissions + 1,
			IsCorrect:        isCorrect,
			TaskSnapshot: map[string]any{
				"task":     taskSnapshot,
				"response": answer,
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.taskAttemptRepo.Create(ctx, tx, row); err != nil {
			return err
		}

		var masteryUpdate *MasteryUpdate
		if s.mastery != nil && variantTask.Task != nil {
			masteryUpdate, err = s.mastery.UpdateMastery(ctx, tx, userID, variantTask.Task, isCorrect)
			if err != nil {
				s.log.Warn("Mastery update failed, submission kept",
					"user_id", userID, "task_id", variantTask.TaskID, "error", err)
				masteryUpdate = nil
			}
		}

		result = &SubmitResult{
			IsCorrect:     isCorrect,
			AttemptNumber: submissions + 1,
			Mastery:       masteryUpdate,
		}
		if variantTask.MaxAttempts != nil {
			left := *variantTask.MaxAttempts - (submissions + 1)
			if left < 0 {
				left = 0
			}
			result.SubmissionsLeft = &left
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resolveCorrectAnswer returns the answer to grade against and the task
// snapshot to store with the submission. Dynamic tasks grade against the
// generation row written at attempt start; the stored catalogue answer only
// applies to static tasks.
func (s *variantService) resolveCorrectAnswer(ctx context.Context, tx *gorm.DB, attempt *types.VariantAttempt, variantTask *types.VariantTask) (any, map[string]any, error) {
	task := variantTask.Task
	if task != nil && !task.IsDynamic {
		return map[string]any(task.CorrectAnswer), staticTaskSnapshot(task), nil
	}

	generation, err := s.taskAttemptRepo.GetGeneration(ctx, tx, attempt.ID, variantTask.ID)
	if err != nil {
		return nil, nil, err
	}
	if generation == nil {
		return nil, nil, fmt.Errorf("generation row missing for attempt %s task %s", attempt.ID, variantTask.ID)
	}
	snapshot, ok := generation.TaskSnapshot["task"].(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("generation snapshot malformed for attempt %s task %s", attempt.ID, variantTask.ID)
	}
	return snapshot["answers"], snapshot, nil
}

// FinalizeAttempt completes an active attempt. Time spent is the wall-clock
// duration since start, clamped to the template's time limit so late
// finalizes never record an overrun. Finalizing twice is a validation error.
func (s *variantService) FinalizeAttempt(ctx context.Context, userID, attemptID uuid.UUID) (*types.VariantAttempt, error) {
	unlock := s.locks.lock(attemptID)
	defer unlock()

	var finalized *types.VariantAttempt
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		attempt, err := s.attemptRepo.GetByIDForUserLocked(ctx, tx, attemptID, userID)
		if err != nil {
			return err
		}
		if attempt == nil {
			return apperrors.NotFound("attempt")
		}
		if !attempt.Active() {
			return apperrors.Validation(apperrors.ReasonAttemptAlreadyCompleted)
		}

		now := s.now()
		spent := now.Sub(attempt.StartedAt)
		if attempt.Assignment != nil && attempt.Assignment.Template != nil {
			if limit := attempt.Assignment.Template.TimeLimit; limit != nil && spent > *limit {
				spent = *limit
			}
		}
		attempt.CompletedAt = &now
		attempt.TimeSpent = &spent
		attempt.UpdatedAt = now
		if err := s.attemptRepo.Complete(ctx, tx, attempt); err != nil {
			return err
		}
		finalized = attempt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return finalized, nil
}

// CalculateAssignmentProgress measures solved tasks across every attempt of
// the assignment: a task with a correct submission in any attempt counts as
// solved, so starting a fresh attempt never resets progress.
func (s *variantService) CalculateAssignmentProgress(assignment *types.VariantAssignment) AssignmentProgress {
	progress := AssignmentProgress{}
	if assignment.Template != nil {
		progress.TotalTasks = len(assignment.Template.TemplateTasks)
	}
	progress.RemainingTasks = progress.TotalTasks
	if progress.TotalTasks == 0 {
		return progress
	}

	solved := map[uuid.UUID]bool{}
	for _, attempt := range assignment.Attempts {
		for _, row := range attempt.TaskAttempts {
			if row.Submission() && row.IsCorrect {
				solved[row.VariantTaskID] = true
			}
		}
	}
	progress.SolvedTasks = len(solved)
	progress.RemainingTasks = progress.TotalTasks - progress.SolvedTasks
	if progress.RemainingTasks < 0 {
		progress.RemainingTasks = 0
	}
	progress.Percent = float64(progress.SolvedTasks) / float64(progress.TotalTasks) * 100
	return progress
}

// BuildTasksProgress renders the per-task state of one attempt in template
// order: the snapshot shown to the student, the submission history ordered
// by attempt number, remaining tries and the latest response. Answers are
// stripped from the snapshot.
func (s *variantService) BuildTasksProgress(attempt *types.VariantAttempt, template *types.VariantTemplate) []TaskProgress {
	byTask := map[uuid.UUID][]*types.VariantTaskAttempt{}
	for _, row := range attempt.TaskAttempts {
		byTask[row.VariantTaskID] = append(byTask[row.VariantTaskID], row)
	}

	var out []TaskProgress
	if template == nil {
		return out
	}
	for _, variantTask := range template.TemplateTasks {
		entry := TaskProgress{
			VariantTaskID: variantTask.ID,
			TaskID:        variantTask.TaskID,
			Order:         variantTask.Order,
			MaxAttempts:   variantTask.MaxAttempts,
		}
		rows := byTask[variantTask.ID]
		sort.Slice(rows, func(i, j int) bool { return rows[i].AttemptNumber < rows[j].AttemptNumber })
		for _, row := range rows {
			if !row.Submission() {
				if snapshot, ok := row.TaskSnapshot["task"].(map[string]any); ok {
					entry.Task = redactAnswers(snapshot)
				}
				continue
			}
			submission := TaskSubmission{
				AttemptNumber: row.AttemptNumber,
				IsCorrect:     row.IsCorrect,
			}
			if response, ok := row.TaskSnapshot["response"].(map[string]any); ok {
				submission.Response = response
				entry.LastResponse = response
			}
			entry.Attempts = append(entry.Attempts, submission)
			entry.Submissions++
			if row.IsCorrect {
				entry.Solved = true
			}
		}
		if entry.Task == nil && variantTask.Task != nil && !variantTask.Task.IsDynamic {
			entry.Task = staticTaskSnapshot(variantTask.Task)
		}
		if variantTask.MaxAttempts != nil {
			left := *variantTask.MaxAttempts - entry.Submissions
			if left < 0 {
				left = 0
			}
			entry.AttemptsLeft = &left
		}
		out = append(out, entry)
	}
	return out
}

// redactAnswers strips grading material from a snapshot before it leaves
// the service.
func redactAnswers(snapshot map[string]any) map[string]any {
	out := make(map[string]any, len(snapshot))
	for key, value := range snapshot {
		if key == "answers" {
			continue
		}
		out[key] = value
	}
	return out
}
