package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fractalschool/recsys-backend/internal/types"
)

// In-memory repo doubles. They deliberately ignore the tx parameter: the
// service under test runs with a nil database handle, so every repo call
// lands here.

type fakeStore struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*types.User
	tasks        map[uuid.UUID]*types.Task
	taskSkills   []*types.TaskSkill
	skillMastery map[[2]uuid.UUID]*types.SkillMastery
	typeMastery  map[[2]uuid.UUID]*types.TypeMastery
	templates    map[uuid.UUID]*types.VariantTemplate
	variantTasks map[uuid.UUID]*types.VariantTask
	assignments  map[uuid.UUID]*types.VariantAssignment
	attempts     map[uuid.UUID]*types.VariantAttempt
	taskAttempts []*types.VariantTaskAttempt
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        map[uuid.UUID]*types.User{},
		tasks:        map[uuid.UUID]*types.Task{},
		skillMastery: map[[2]uuid.UUID]*types.SkillMastery{},
		typeMastery:  map[[2]uuid.UUID]*types.TypeMastery{},
		templates:    map[uuid.UUID]*types.VariantTemplate{},
		variantTasks: map[uuid.UUID]*types.VariantTask{},
		assignments:  map[uuid.UUID]*types.VariantAssignment{},
		attempts:     map[uuid.UUID]*types.VariantAttempt{},
	}
}

type fakeUserRepo struct{ store *fakeStore }

func (r *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.store.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.users[id], nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, user := range r.store.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	user, _ := r.GetByEmail(ctx, tx, email)
	return user != nil, nil
}

type fakeTaskSkillRepo struct{ store *fakeStore }

func (r *fakeTaskSkillRepo) ListByTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) ([]*types.TaskSkill, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*types.TaskSkill
	for _, ts := range r.store.taskSkills {
		if ts.TaskID == taskID {
			out = append(out, ts)
		}
	}
	return out, nil
}

type fakeSkillMasteryRepo struct{ store *fakeStore }

func (r *fakeSkillMasteryRepo) Get(ctx context.Context, tx *gorm.DB, userID, skillID uuid.UUID) (*types.SkillMastery, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.skillMastery[[2]uuid.UUID{userID, skillID}], nil
}

func (r *fakeSkillMasteryRepo) Upsert(ctx context.Context, tx *gorm.DB, userID, skillID uuid.UUID, mastery, confidence float64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := [2]uuid.UUID{userID, skillID}
	row, ok := r.store.skillMastery[key]
	if !ok {
		row = &types.SkillMastery{ID: uuid.New(), UserID: userID, SkillID: skillID}
		r.store.skillMastery[key] = row
	}
	row.Mastery = mastery
	row.Confidence = confidence
	return nil
}

type fakeTypeMasteryRepo struct{ store *fakeStore }

func (r *fakeTypeMasteryRepo) Get(ctx context.Context, tx *gorm.DB, userID, typeID uuid.UUID) (*types.TypeMastery, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.typeMastery[[2]uuid.UUID{userID, typeID}], nil
}

func (r *fakeTypeMasteryRepo) Upsert(ctx context.Context, tx *gorm.DB, userID, typeID uuid.UUID, mastery, confidence float64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := [2]uuid.UUID{userID, typeID}
	row, ok := r.store.typeMastery[key]
	if !ok {
		row = &types.TypeMastery{ID: uuid.New(), UserID: userID, TaskTypeID: typeID}
		r.store.typeMastery[key] = row
	}
	row.Mastery = mastery
	row.Confidence = confidence
	return nil
}

type fakeAssignmentRepo struct{ store *fakeStore }

func (r *fakeAssignmentRepo) hydrate(assignment *types.VariantAssignment) *types.VariantAssignment {
	copied := *assignment
	copied.Template = r.store.templates[assignment.TemplateID]
	copied.Attempts = nil
	for _, attempt := range r.store.attempts {
		if attempt.AssignmentID == assignment.ID {
			hydrated := r.hydrateAttempt(attempt)
			copied.Attempts = append(copied.Attempts, hydrated)
		}
	}
	sort.Slice(copied.Attempts, func(i, j int) bool {
		return copied.Attempts[i].AttemptNumber < copied.Attempts[j].AttemptNumber
	})
	return &copied
}

func (r *fakeAssignmentRepo) hydrateAttempt(attempt *types.VariantAttempt) *types.VariantAttempt {
	copied := *attempt
	copied.TaskAttempts = nil
	for _, row := range r.store.taskAttempts {
		if row.VariantAttemptID == attempt.ID {
			copied.TaskAttempts = append(copied.TaskAttempts, row)
		}
	}
	sort.Slice(copied.TaskAttempts, func(i, j int) bool {
		a, b := copied.TaskAttempts[i], copied.TaskAttempts[j]
		if a.VariantTaskID != b.VariantTaskID {
			return a.VariantTaskID.String() < b.VariantTaskID.String()
		}
		return a.AttemptNumber < b.AttemptNumber
	})
	return &copied
}

func (r *fakeAssignmentRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.VariantAssignment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*types.VariantAssignment
	for _, assignment := range r.store.assignments {
		if assignment.UserID == userID {
			out = append(out, r.hydrate(assignment))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeAssignmentRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.VariantAssignment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	assignment, ok := r.store.assignments[id]
	if !ok || assignment.UserID != userID {
		return nil, nil
	}
	return r.hydrate(assignment), nil
}

func (r *fakeAssignmentRepo) GetByIDForUserLocked(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.VariantAssignment, error) {
	return r.GetByIDForUser(ctx, tx, id, userID)
}

func (r *fakeAssignmentRepo) MarkStarted(ctx context.Context, tx *gorm.DB, assignment *types.VariantAssignment, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.assignments[assignment.ID]
	if !ok {
		return nil
	}
	if stored.StartedAt == nil {
		stored.StartedAt = &at
		assignment.StartedAt = &at
	}
	return nil
}

type fakeAttemptRepo struct{ store *fakeStore }

func (r *fakeAttemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *types.VariantAttempt) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	stored := *attempt
	stored.Assignment = nil
	stored.TaskAttempts = nil
	r.store.attempts[attempt.ID] = &stored
	return nil
}

func (r *fakeAttemptRepo) get(id, userID uuid.UUID) *types.VariantAttempt {
	attempt, ok := r.store.attempts[id]
	if !ok {
		return nil
	}
	assignment, ok := r.store.assignments[attempt.AssignmentID]
	if !ok || assignment.UserID != userID {
		return nil
	}
	assignmentRepo := &fakeAssignmentRepo{store: r.store}
	hydrated := assignmentRepo.hydrateAttempt(attempt)
	hydratedAssignment := *assignment
	hydratedAssignment.Template = r.store.templates[assignment.TemplateID]
	hydrated.Assignment = &hydratedAssignment
	return hydrated
}

func (r *fakeAttemptRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.VariantAttempt, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.get(id, userID), nil
}

func (r *fakeAttemptRepo) GetByIDForUserLocked(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.VariantAttempt, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.get(id, userID), nil
}

func (r *fakeAttemptRepo) CountByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, attempt := range r.store.attempts {
		if attempt.AssignmentID == assignmentID {
			count++
		}
	}
	return count, nil
}

func (r *fakeAttemptRepo) ActiveExists(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, attempt := range r.store.attempts {
		if attempt.AssignmentID == assignmentID && attempt.CompletedAt == nil {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAttemptRepo) Complete(ctx context.Context, tx *gorm.DB, attempt *types.VariantAttempt) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.attempts[attempt.ID]
	if !ok {
		return nil
	}
	stored.CompletedAt = attempt.CompletedAt
	stored.TimeSpent = attempt.TimeSpent
	stored.UpdatedAt = attempt.UpdatedAt
	return nil
}

type fakeTaskAttemptRepo struct{ store *fakeStore }

func (r *fakeTaskAttemptRepo) Create(ctx context.Context, tx *gorm.DB, row *types.VariantTaskAttempt) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	r.store.taskAttempts = append(r.store.taskAttempts, row)
	return nil
}

func (r *fakeTaskAttemptRepo) ListByAttempt(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID) ([]*types.VariantTaskAttempt, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*types.VariantTaskAttempt
	for _, row := range r.store.taskAttempts {
		if row.VariantAttemptID == attemptID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeTaskAttemptRepo) CountSubmissions(ctx context.Context, tx *gorm.DB, attemptID, variantTaskID uuid.UUID) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, row := range r.store.taskAttempts {
		if row.VariantAttemptID == attemptID && row.VariantTaskID == variantTaskID && row.AttemptNumber > types.GenerationAttemptNumber {
			count++
		}
	}
	return count, nil
}

func (r *fakeTaskAttemptRepo) GetGeneration(ctx context.Context, tx *gorm.DB, attemptID, variantTaskID uuid.UUID) (*types.VariantTaskAttempt, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, row := range r.store.taskAttempts {
		if row.VariantAttemptID == attemptID && row.VariantTaskID == variantTaskID && row.AttemptNumber == types.GenerationAttemptNumber {
			return row, nil
		}
	}
	return nil, nil
}

type fakeVariantTaskRepo struct{ store *fakeStore }

func (r *fakeVariantTaskRepo) ListByTemplate(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) ([]*types.VariantTask, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*types.VariantTask
	for _, vt := range r.store.variantTasks {
		if vt.TemplateID == templateID {
			out = append(out, vt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeVariantTaskRepo) GetByIDInTemplate(ctx context.Context, tx *gorm.DB, id, templateID uuid.UUID) (*types.VariantTask, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	vt, ok := r.store.variantTasks[id]
	if !ok || vt.TemplateID != templateID {
		return nil, nil
	}
	return vt, nil
}

// failingCache always errors, for testing estimator degradation.
type failingCache struct{}

func (failingCache) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, context.DeadlineExceeded
}

func (failingCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return context.DeadlineExceeded
}
