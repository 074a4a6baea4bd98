package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/fractalschool/recsys-backend/internal/pkg/errors"
	"github.com/fractalschool/recsys-backend/internal/logger"
	"github.com/fractalschool/recsys-backend/internal/taskgen"
	"github.com/fractalschool/recsys-backend/internal/types"
)

func intPtr(v int) *int                     { return &v }
func durPtr(v time.Duration) *time.Duration { return &v }
func timePtr(v time.Time) *time.Time        { return &v }

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type variantEnv struct {
	store       *fakeStore
	svc         *variantService
	clock       *fakeClock
	user        *types.User
	assignment  *types.VariantAssignment
	template    *types.VariantTemplate
	dynamicSlot *types.VariantTask
	staticSlot  *types.VariantTask
	skillID     uuid.UUID
	typeID      uuid.UUID
}

// newVariantEnv wires the engine against in-memory storage: a two-task
// template (one seeded arithmetic task capped at 2 tries, one static
// free-text task), a 30 minute time limit and 2 attempts per assignment.
func newVariantEnv(t *testing.T) *variantEnv {
	t.Helper()
	store := newFakeStore()
	log := logger.NewNop()

	env := &variantEnv{
		store:   store,
		clock:   &fakeClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)},
		skillID: uuid.New(),
		typeID:  uuid.New(),
	}

	env.user = &types.User{ID: uuid.New(), Email: "student@example.com"}
	store.users[env.user.ID] = env.user

	dynamicTask := &types.Task{
		ID:                uuid.New(),
		TypeID:            env.typeID,
		Title:             "Addition drill",
		IsDynamic:         true,
		GeneratorSlug:     "math/addition",
		DefaultPayload:    map[string]any{"min": 1, "max": 3},
		RenderingStrategy: types.RenderingPlain,
	}
	staticTask := &types.Task{
		ID:                uuid.New(),
		TypeID:            env.typeID,
		Title:             "Capital of Latvia",
		Description:       "Name the capital of Latvia.",
		CorrectAnswer:     map[string]any{"value": "Riga"},
		RenderingStrategy: types.RenderingMarkdown,
	}
	store.tasks[dynamicTask.ID] = dynamicTask
	store.tasks[staticTask.ID] = staticTask
	store.taskSkills = append(store.taskSkills, &types.TaskSkill{
		ID: uuid.New(), TaskID: dynamicTask.ID, SkillID: env.skillID, Weight: 1,
	})

	env.template = &types.VariantTemplate{
		ID:          uuid.New(),
		Name:        "March diagnostic",
		TimeLimit:   durPtr(30 * time.Minute),
		MaxAttempts: intPtr(2),
	}
	env.dynamicSlot = &types.VariantTask{
		ID:          uuid.New(),
		TemplateID:  env.template.ID,
		TaskID:      dynamicTask.ID,
		Task:        dynamicTask,
		Order:       1,
		MaxAttempts: intPtr(2),
	}
	env.staticSlot = &types.VariantTask{
		ID:         uuid.New(),
		TemplateID: env.template.ID,
		TaskID:     staticTask.ID,
		Task:       staticTask,
		Order:      2,
	}
	env.template.TemplateTasks = []*types.VariantTask{env.dynamicSlot, env.staticSlot}
	store.templates[env.template.ID] = env.template
	store.variantTasks[env.dynamicSlot.ID] = env.dynamicSlot
	store.variantTasks[env.staticSlot.ID] = env.staticSlot

	env.assignment = &types.VariantAssignment{
		ID:         uuid.New(),
		TemplateID: env.template.ID,
		UserID:     env.user.ID,
		CreatedAt:  env.clock.Now(),
	}
	store.assignments[env.assignment.ID] = env.assignment

	masterySvc := NewMasteryService(
		nil, log, NewMemoryMasteryCache(),
		&fakeTaskSkillRepo{store: store},
		&fakeSkillMasteryRepo{store: store},
		&fakeTypeMasteryRepo{store: store},
	)
	svc := NewVariantService(
		nil, log, taskgen.NewDefaultRegistry(),
		&fakeAssignmentRepo{store: store},
		&fakeAttemptRepo{store: store},
		&fakeTaskAttemptRepo{store: store},
		&fakeVariantTaskRepo{store: store},
		&fakeUserRepo{store: store},
		masterySvc,
	).(*variantService)
	svc.now = env.clock.Now
	env.svc = svc
	return env
}

func (env *variantEnv) mustStart(t *testing.T) *types.VariantAttempt {
	t.Helper()
	attempt, err := env.svc.StartNewAttempt(context.Background(), env.user.ID, env.assignment.ID)
	if err != nil {
		t.Fatalf("StartNewAttempt: %v", err)
	}
	return attempt
}

func (env *variantEnv) mustFinalize(t *testing.T, attemptID uuid.UUID) *types.VariantAttempt {
	t.Helper()
	attempt, err := env.svc.FinalizeAttempt(context.Background(), env.user.ID, attemptID)
	if err != nil {
		t.Fatalf("FinalizeAttempt: %v", err)
	}
	return attempt
}

// generationAnswers digs the grading key out of the stored generation row.
func (env *variantEnv) generationAnswers(t *testing.T, attemptID, variantTaskID uuid.UUID) map[string]any {
	t.Helper()
	repo := &fakeTaskAttemptRepo{store: env.store}
	row, err := repo.GetGeneration(context.Background(), nil, attemptID, variantTaskID)
	if err != nil {
		t.Fatalf("GetGeneration: %v", err)
	}
	if row == nil {
		t.Fatalf("generation row missing")
	}
	snapshot := row.TaskSnapshot["task"].(map[string]any)
	return snapshot["answers"].(map[string]any)
}

func mustValidation(t *testing.T, err error, reason string) {
	t.Helper()
	ve, ok := apperrors.AsValidation(err)
	if !ok {
		t.Fatalf("want validation error %q, got %v", reason, err)
	}
	if ve.Reason != reason {
		t.Fatalf("validation reason: want=%s got=%s", reason, ve.Reason)
	}
}

func TestStartNewAttemptCreatesGenerationRows(t *testing.T) {
	env := newVariantEnv(t)
	attempt := env.mustStart(t)

	if attempt.AttemptNumber != 1 {
		t.Fatalf("attempt number: want=1 got=%d", attempt.AttemptNumber)
	}
	if len(attempt.TaskAttempts) != 2 {
		t.Fatalf("generation rows: want=2 got=%d", len(attempt.TaskAttempts))
	}
	for _, row := range attempt.TaskAttempts {
		if row.AttemptNumber != types.GenerationAttemptNumber {
			t.Fatalf("generation row has attempt number %d", row.AttemptNumber)
		}
		if _, ok := row.TaskSnapshot["task"]; !ok {
			t.Fatalf("generation row has no task snapshot")
		}
	}

	dynamicSnapshot := env.generationAnswers(t, attempt.ID, env.dynamicSlot.ID)
	if _, ok := dynamicSnapshot["value"]; !ok {
		t.Fatalf("dynamic generation row carries no answers: %v", dynamicSnapshot)
	}

	stored := env.store.assignments[env.assignment.ID]
	if stored.StartedAt == nil || !stored.StartedAt.Equal(env.clock.Now()) {
		t.Fatalf("assignment StartedAt not stamped on first attempt")
	}
}

func TestStartNewAttemptSeedIsReproducible(t *testing.T) {
	env := newVariantEnv(t)
	attempt := env.mustStart(t)

	repo := &fakeTaskAttemptRepo{store: env.store}
	row, _ := repo.GetGeneration(context.Background(), nil, attempt.ID, env.dynamicSlot.ID)
	snapshot := row.TaskSnapshot["task"].(map[string]any)

	wantSeed := attemptTaskSeed(env.assignment.ID, attempt.ID, env.dynamicSlot.ID, attempt.AttemptNumber)
	if got := snapshot["seed"].(int64); got != wantSeed {
		t.Fatalf("snapshot seed: want=%d got=%d", wantSeed, got)
	}

	// Re-running the generator with the recorded seed reproduces the key.
	registry := taskgen.NewDefaultRegistry()
	task := env.store.tasks[env.dynamicSlot.TaskID]
	res, err := registry.Generate(task, copyJSONMap(task.DefaultPayload), wantSeed, env.user)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	want := res.Answers.(map[string]any)["value"].(int)
	got := snapshot["answers"].(map[string]any)["value"].(int)
	if got != want {
		t.Fatalf("regenerated answer: want=%d got=%d", want, got)
	}
}

func TestStartNewAttemptRejectsSecondActive(t *testing.T) {
	env := newVariantEnv(t)
	env.mustStart(t)

	_, err := env.svc.StartNewAttempt(context.Background(), env.user.ID, env.assignment.ID)
	mustValidation(t, err, apperrors.ReasonAttemptAlreadyActive)
}

func TestAttemptNumbersAreDense(t *testing.T) {
	env := newVariantEnv(t)
	first := env.mustStart(t)
	env.mustFinalize(t, first.ID)

	second := env.mustStart(t)
	if second.AttemptNumber != 2 {
		t.Fatalf("second attempt number: want=2 got=%d", second.AttemptNumber)
	}
}

func TestStartNewAttemptEnforcesAttemptLimit(t *testing.T) {
	env := newVariantEnv(t)
	first := env.mustStart(t)
	env.mustFinalize(t, first.ID)
	second := env.mustStart(t)
	env.mustFinalize(t, second.ID)

	_, err := env.svc.StartNewAttempt(context.Background(), env.user.ID, env.assignment.ID)
	mustValidation(t, err, apperrors.ReasonAttemptLimitReached)
}

func TestStartNewAttemptRejectsExpiredDeadline(t *testing.T) {
	env := newVariantEnv(t)
	env.assignment.Deadline = timePtr(env.clock.Now().Add(-time.Minute))

	_, err := env.svc.StartNewAttempt(context.Background(), env.user.ID, env.assignment.ID)
	mustValidation(t, err, apperrors.ReasonDeadlineExpired)
}

func TestStartNewAttemptForeignAssignmentNotFound(t *testing.T) {
	env := newVariantEnv(t)
	_, err := env.svc.StartNewAttempt(context.Background(), uuid.New(), env.assignment.ID)
	if !apperrors.IsNotFound(err) {
		t.Fatalf("foreign assignment: want not-found got %v", err)
	}
}

func TestConcurrentStartsCreateExactlyOneAttempt(t *testing.T) {
	env := newVariantEnv(t)

	const workers = 16
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.StartNewAttempt(context.Background(), env.user.ID, env.assignment.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded, rejected := 0, 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		mustValidation(t, err, apperrors.ReasonAttemptAlreadyActive)
		rejected++
	}
	if succeeded != 1 {
		t.Fatalf("successful starts: want=1 got=%d", succeeded)
	}
	if rejected != workers-1 {
		t.Fatalf("rejected starts: want=%d got=%d", workers-1, rejected)
	}
}

func TestSubmitGradesDynamicAgainstGenerationSnapshot(t *testing.T) {
	env := newVariantEnv(t)
	attempt := env.mustStart(t)
	ctx := context.Background()

	answers := env.generationAnswers(t, attempt.ID, env.dynamicSlot.ID)
	wrong := map[string]any{"value": answers["value"].(int) + 1}
	result, err := env.svc.SubmitTaskAnswer(ctx, env.user.ID, attempt.ID, env.dynamicSlot.ID, wrong)
	if err != nil {
		t.Fatalf("submit wrong: %v", err)
	}
	if result.IsCorrect {
		t.Fatalf("wrong answer graded as correct")
	}
	if result.AttemptNumber != 1 {
		t.Fatalf("first submission number: want=1 got=%d", result.AttemptNumber)
	}

	right := map[string]any{"value": answers["value"]}
	result, err = env.svc.SubmitTaskAnswer(ctx, env.user.ID, attempt.ID, env.dynamicSlot.ID, right)
	if err != nil {
		t.Fatalf("submit right: %v", err)
	}
	if !result.IsCorrect {
		t.Fatalf("correct answer graded as wrong")
	}
	if result.AttemptNumber != 2 {
		t.Fatalf("second submission number: want=2 got=%d", result.AttemptNumber)
	}
	if result.SubmissionsLeft == nil || *result.SubmissionsLeft != 0 {
		t.Fatalf("submissions left: want=0 got=%v", result.SubmissionsLeft)
	}
}

func TestSubmitGradesStaticAgainstStoredAnswer(t *testing.T) {
	env := newVariantEnv(t)
	attempt := env.mustStart(t)
	ctx := context.Background()

	result, err := env.svc.SubmitTaskAnswer(ctx, env.user.ID, attempt.ID, env.staticSlot.ID, map[string]any{"value": "Riga"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.IsCorrect {
		t.Fatalf("exact static answer graded as wrong")
	}
	if result.SubmissionsLeft != nil {
		t.Fatalf("uncapped task should have nil submissions left")
	}

	result, err = env.svc.SubmitTaskAnswer(ctx, env.user.ID, attempt.ID, env.staticSlot.ID, map[string]any{"value": "Tallinn"})
	if err != nil {
		t.Fatalf("submit wrong: %v", err)
	}
	if result.IsCorrect {
		t.Fatalf("wrong static answer graded as correct")
	}
}

func TestSubmitEnforcesPerTaskLimit(t *testing.T) {
	env := newVariantEnv(t)
	attempt := env.mustStart(t)
	ctx := context.Background()

	answer := map[string]any{"value": 0}
	for i := 0; i < 2; i++ {
		if _, err := env.svc.SubmitTaskAnswer(ctx, env.user.ID, attempt.ID, env.dynamicSlot.ID, answer); err != nil {
			t.Fatalf("submission %d: %v", i+1, err)
		}
	}
	_, err := env.svc.SubmitTaskAnswer(ctx, env.user.ID, attempt.ID, env.dynamicSlot.ID, answer)
	mustValidation(t, err, apperrors.ReasonTaskAttemptLimitReached)
}

func TestSubmitRejectsTaskFromAnotherTemplate(t *testing.T) {
	env := newVariantEnv(t)
	attempt := env.mustStart(t)

	foreign := &types.VariantTask{ID: uuid.New(), TemplateID: uuid.New(), TaskID: uuid.New(), Order: 1}
	env.store.variantTasks[foreign.ID] = foreign

	_, err := env.svc.SubmitTaskAnswer(context.Background(), env.user.ID, attempt.ID, foreign.ID, map[string]any{"value": 1})
	mustValidation(t, err, apperrors.ReasonTaskNotInVariant)
}

func TestSubmitRejectsAfterTimeLimit(t *testing.T) {
	env := newVariantEnv(t)
	attempt := env.mustStart(t)

	env.clock.Advance(31 * time.Minute)
	_, err := env.svc.SubmitTaskAnswer(context.Background(), env.user.ID, attempt.ID, env.staticSlot.ID, map[string]any{"value": "Riga"})
	mustValidation(t, err, apperrors.ReasonTimeExpired)
}

func TestSubmitRejectsCompletedAttempt(t *testing.T) {
	env := newVariantEnv(t)
	attempt := env.mustStart(t)
	env.mustFinalize(t, attempt.ID)

	_, err := env.svc.SubmitTaskAnswer(context.Background(), env.user.ID, attempt.ID, env.staticSlot.ID, map[string]any{"value": "Riga"})
	mustValidation(t, err, apperrors.ReasonAttemptAlreadyCompleted)
}

func TestSubmitUpdatesMastery(t *testing.T) {
	env := newVariantEnv(t)
	attempt := env.mustStart(t)

	answers := env.generationAnswers(t, attempt.ID, env.dynamicSlot.ID)
	result, err := env.svc.SubmitTaskAnswer(context.Background(), env.user.ID, attempt.ID, env.dynamicSlot.ID, map[string]any{"value": answers["value"]})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Mastery == nil {
		t.Fatalf("submission should report a mastery update")
	}
	if got := result.Mastery.Skills[env.skillID]; got <= 0 {
		t.Fatalf("skill mastery after a correct answer should be positive, got %v", got)
	}
	if env.store.skillMastery[[2]uuid.UUID{env.user.ID, env.skillID}] == nil {
		t.Fatalf("skill mastery row not persisted")
	}
	if env.store.typeMastery[[2]uuid.UUID{env.user.ID, env.typeID}] == nil {
		t.Fatalf("type mastery row not persisted")
	}
}

type erroringMastery struct{}

func (erroringMastery) UpdateMastery(ctx context.Context, tx *gorm.DB, userID uuid.UUID, task *types.Task, isCorrect bool) (*MasteryUpdate, error) {
	return nil, context.DeadlineExceeded
}

func TestMasteryFailureDoesNotLoseSubmission(t *testing.T) {
	env := newVariantEnv(t)
	env.svc.mastery = erroringMastery{}
	attempt := env.mustStart(t)

	result, err := env.svc.SubmitTaskAnswer(context.Background(), env.user.ID, attempt.ID, env.staticSlot.ID, map[string]any{"value": "Riga"})
	if err != nil {
		t.Fatalf("submit with failing estimator: %v", err)
	}
	if result.Mastery != nil {
		t.Fatalf("failed estimator should report no mastery update")
	}

	count, _ := (&fakeTaskAttemptRepo{store: env.store}).CountSubmissions(context.Background(), nil, attempt.ID, env.staticSlot.ID)
	if count != 1 {
		t.Fatalf("submission rows: want=1 got=%d", count)
	}
}

func TestFinalizeClampsTimeSpent(t *testing.T) {
	env := newVariantEnv(t)
	attempt := env.mustStart(t)

	env.clock.Advance(45 * time.Minute)
	finalized := env.mustFinalize(t, attempt.ID)

	if finalized.CompletedAt == nil || !finalized.CompletedAt.Equal(env.clock.Now()) {
		t.Fatalf("CompletedAt not stamped")
	}
	if finalized.TimeSpent == nil || *finalized.TimeSpent != 30*time.Minute {
		t.Fatalf("time spent: want=30m got=%v", finalized.TimeSpent)
	}
}

func TestFinalizeTwiceFails(t *testing.T) {
	env := newVariantEnv(t)
	attempt := env.mustStart(t)
	env.mustFinalize(t, attempt.ID)

	_, err := env.svc.FinalizeAttempt(context.Background(), env.user.ID, attempt.ID)
	mustValidation(t, err, apperrors.ReasonAttemptAlreadyCompleted)
}

func TestViewHelpers(t *testing.T) {
	env := newVariantEnv(t)
	now := env.clock.Now()

	assignment, err := env.svc.GetAssignment(context.Background(), env.user.ID, env.assignment.ID)
	if err != nil {
		t.Fatalf("GetAssignment: %v", err)
	}
	if can, reason := env.svc.CanStartAttempt(assignment, now); !can || reason != "" {
		t.Fatalf("fresh assignment should be startable, got reason %q", reason)
	}
	if left := env.svc.AttemptsLeft(assignment); left == nil || *left != 2 {
		t.Fatalf("attempts left: want=2 got=%v", left)
	}

	attempt := env.mustStart(t)
	env.clock.Advance(10 * time.Minute)
	refreshed, err := env.svc.GetAttempt(context.Background(), env.user.ID, attempt.ID)
	if err != nil {
		t.Fatalf("GetAttempt: %v", err)
	}
	timeLeft := env.svc.TimeLeft(refreshed, env.template, env.clock.Now())
	if timeLeft == nil || *timeLeft != 20*time.Minute {
		t.Fatalf("time left: want=20m got=%v", timeLeft)
	}

	assignment, _ = env.svc.GetAssignment(context.Background(), env.user.ID, env.assignment.ID)
	if can, reason := env.svc.CanStartAttempt(assignment, env.clock.Now()); can || reason != apperrors.ReasonAttemptAlreadyActive {
		t.Fatalf("active attempt should block starting, got %v %q", can, reason)
	}

	current, past := env.svc.SplitAssignments([]*types.VariantAssignment{assignment}, env.clock.Now())
	if len(current) != 1 || len(past) != 0 {
		t.Fatalf("assignment with active attempt belongs to current")
	}

	env.mustFinalize(t, attempt.ID)
	second := env.mustStart(t)
	env.mustFinalize(t, second.ID)
	assignment, _ = env.svc.GetAssignment(context.Background(), env.user.ID, env.assignment.ID)
	current, past = env.svc.SplitAssignments([]*types.VariantAssignment{assignment}, env.clock.Now())
	if len(current) != 0 || len(past) != 1 {
		t.Fatalf("exhausted assignment belongs to past")
	}
}

func TestProgressAccounting(t *testing.T) {
	env := newVariantEnv(t)
	attempt := env.mustStart(t)
	ctx := context.Background()

	answers := env.generationAnswers(t, attempt.ID, env.dynamicSlot.ID)
	if _, err := env.svc.SubmitTaskAnswer(ctx, env.user.ID, attempt.ID, env.dynamicSlot.ID, map[string]any{"value": answers["value"]}); err != nil {
		t.Fatalf("submit dynamic: %v", err)
	}
	if _, err := env.svc.SubmitTaskAnswer(ctx, env.user.ID, attempt.ID, env.staticSlot.ID, map[string]any{"value": "Tallinn"}); err != nil {
		t.Fatalf("submit static: %v", err)
	}

	assignment, err := env.svc.GetAssignment(ctx, env.user.ID, env.assignment.ID)
	if err != nil {
		t.Fatalf("GetAssignment: %v", err)
	}
	progress := env.svc.CalculateAssignmentProgress(assignment)
	if progress.TotalTasks != 2 || progress.SolvedTasks != 1 {
		t.Fatalf("progress: want 1/2 got %d/%d", progress.SolvedTasks, progress.TotalTasks)
	}
	if progress.RemainingTasks != 1 {
		t.Fatalf("remaining tasks: want=1 got=%d", progress.RemainingTasks)
	}
	if !almostEqual(progress.Percent, 50) {
		t.Fatalf("percent: want=50 got=%v", progress.Percent)
	}

	refreshed, _ := env.svc.GetAttempt(ctx, env.user.ID, attempt.ID)
	tasks := env.svc.BuildTasksProgress(refreshed, env.template)
	if len(tasks) != 2 {
		t.Fatalf("task progress entries: want=2 got=%d", len(tasks))
	}
	if tasks[0].Order != 1 || tasks[1].Order != 2 {
		t.Fatalf("task progress out of template order")
	}
	if !tasks[0].Solved || tasks[1].Solved {
		t.Fatalf("solved flags: want [true false] got [%v %v]", tasks[0].Solved, tasks[1].Solved)
	}
	if tasks[0].MaxAttempts == nil || *tasks[0].MaxAttempts != 2 {
		t.Fatalf("capped task max attempts: want=2 got=%v", tasks[0].MaxAttempts)
	}
	if tasks[0].AttemptsLeft == nil || *tasks[0].AttemptsLeft != 1 {
		t.Fatalf("capped task attempts left: want=1 got=%v", tasks[0].AttemptsLeft)
	}
	if tasks[1].MaxAttempts != nil {
		t.Fatalf("uncapped task should have nil max attempts, got %v", *tasks[1].MaxAttempts)
	}
	if _, leaked := tasks[0].Task["answers"]; leaked {
		t.Fatalf("task snapshot leaked the grading key")
	}
	if len(tasks[0].Attempts) != 1 || tasks[0].Attempts[0].AttemptNumber != 1 || !tasks[0].Attempts[0].IsCorrect {
		t.Fatalf("dynamic task submission history: got %+v", tasks[0].Attempts)
	}
	if len(tasks[1].Attempts) != 1 || tasks[1].Attempts[0].IsCorrect {
		t.Fatalf("static task submission history: got %+v", tasks[1].Attempts)
	}
	if tasks[1].Attempts[0].Response["value"] != "Tallinn" {
		t.Fatalf("submission response not recorded: %v", tasks[1].Attempts[0].Response)
	}
	if tasks[1].LastResponse == nil || tasks[1].LastResponse["value"] != "Tallinn" {
		t.Fatalf("last response not recorded: %v", tasks[1].LastResponse)
	}
}

func TestProgressPersistsAcrossAttempts(t *testing.T) {
	env := newVariantEnv(t)
	ctx := context.Background()

	first := env.mustStart(t)
	answers := env.generationAnswers(t, first.ID, env.dynamicSlot.ID)
	if _, err := env.svc.SubmitTaskAnswer(ctx, env.user.ID, first.ID, env.dynamicSlot.ID, map[string]any{"value": answers["value"]}); err != nil {
		t.Fatalf("submit dynamic: %v", err)
	}
	if _, err := env.svc.SubmitTaskAnswer(ctx, env.user.ID, first.ID, env.staticSlot.ID, map[string]any{"value": "Riga"}); err != nil {
		t.Fatalf("submit static: %v", err)
	}
	env.mustFinalize(t, first.ID)

	second := env.mustStart(t)
	assignment, err := env.svc.GetAssignment(ctx, env.user.ID, env.assignment.ID)
	if err != nil {
		t.Fatalf("GetAssignment: %v", err)
	}
	progress := env.svc.CalculateAssignmentProgress(assignment)
	if progress.SolvedTasks != 2 {
		t.Fatalf("solved tasks after starting attempt 2: want=2 got=%d", progress.SolvedTasks)
	}
	if progress.RemainingTasks != 0 {
		t.Fatalf("remaining tasks after starting attempt 2: want=0 got=%d", progress.RemainingTasks)
	}
	if !almostEqual(progress.Percent, 100) {
		t.Fatalf("percent: want=100 got=%v", progress.Percent)
	}

	env.mustFinalize(t, second.ID)
	_, err = env.svc.StartNewAttempt(ctx, env.user.ID, env.assignment.ID)
	mustValidation(t, err, apperrors.ReasonAttemptLimitReached)
}
