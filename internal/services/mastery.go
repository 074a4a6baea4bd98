package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fractalschool/recsys-backend/internal/logger"
	"github.com/fractalschool/recsys-backend/internal/repos"
	"github.com/fractalschool/recsys-backend/internal/types"
)

// EWMA smoothing factor. Deliberately small so the estimate moves gradually
// with each attempt.
const ewmaBaseAlpha = 0.3

// Cache keys are versioned so the shaping behaviour can change without stale
// values interfering. The attempt counter implements the anti-guessing
// discount; the Beta parameters are the posterior being blended in.
const (
	attemptCountKeyFmt = "recsys:attempts:v1:%s:%s"
	betaSkillKeyFmt    = "recsys:beta:skill:v1:%s:%s"
	betaTypeKeyFmt     = "recsys:beta:type:v1:%s:%s"

	attemptCountTTL = time.Hour
	betaParamsTTL   = 30 * 24 * time.Hour
)

// MasteryCache is the TTL key-value store holding the estimator's shaping
// state. It is best-effort: losing it resets the anti-guess counter and Beta
// posteriors to priors, which degrades smoothing but never correctness. The
// durable mastery scalar always lives in the mastery tables.
type MasteryCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// MasteryUpdate reports every value changed by one estimator run, keyed by
// skill and task-type ID.
type MasteryUpdate struct {
	Skills   map[uuid.UUID]float64 `json:"skills"`
	TaskType map[uuid.UUID]float64 `json:"task_type"`
}

// MasteryService maintains smoothed per-skill and per-task-type proficiency
// estimates from a stream of graded attempts.
//
// UpdateMastery is intentionally not idempotent: each call moves the stored
// value toward the Beta posterior mean. Callers invoke it exactly once per
// graded submission.
type MasteryService interface {
	UpdateMastery(ctx context.Context, tx *gorm.DB, userID uuid.UUID, task *types.Task, isCorrect bool) (*MasteryUpdate, error)
}

type masteryService struct {
	db               *gorm.DB
	log              *logger.Logger
	cache            MasteryCache
	taskSkillRepo    repos.TaskSkillRepo
	skillMasteryRepo repos.SkillMasteryRepo
	typeMasteryRepo  repos.TypeMasteryRepo
}

func NewMasteryService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cache MasteryCache,
	taskSkillRepo repos.TaskSkillRepo,
	skillMasteryRepo repos.SkillMasteryRepo,
	typeMasteryRepo repos.TypeMasteryRepo,
) MasteryService {
	return &masteryService{
		db:               db,
		log:              baseLog.With("service", "MasteryService"),
		cache:            cache,
		taskSkillRepo:    taskSkillRepo,
		skillMasteryRepo: skillMasteryRepo,
		typeMasteryRepo:  typeMasteryRepo,
	}
}

type betaParams struct {
	alpha float64
	beta  float64
}

func (p *betaParams) update(success bool, weight float64) {
	if success {
		p.alpha += weight
	} else {
		p.beta += weight
	}
}

func (p *betaParams) mean() float64 {
	return p.alpha / (p.alpha + p.beta)
}

// total is the accumulated observation weight, persisted as confidence.
func (p *betaParams) total() float64 {
	return p.alpha + p.beta
}

func ewma(previous, value, alpha float64) float64 {
	return previous + alpha*(value-previous)
}

func clampMastery(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

// cache accessors degrade to defaults on any cache failure.

func (s *masteryService) getCounter(ctx context.Context, key string) int {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Debug("Mastery cache read failed, assuming first attempt", "key", key, "error", err)
		return 0
	}
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func (s *masteryService) setCounter(ctx context.Context, key string, value int) {
	if err := s.cache.Set(ctx, key, strconv.Itoa(value), attemptCountTTL); err != nil {
		s.log.Debug("Mastery cache write failed", "key", key, "error", err)
	}
}

func (s *masteryService) getBeta(ctx context.Context, key string) betaParams {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil || !ok {
		if err != nil {
			s.log.Debug("Mastery cache read failed, using priors", "key", key, "error", err)
		}
		return betaParams{alpha: 1, beta: 1}
	}
	parts := strings.SplitN(raw, "|", 2)
	if len(parts) != 2 {
		return betaParams{alpha: 1, beta: 1}
	}
	a, errA := strconv.ParseFloat(parts[0], 64)
	b, errB := strconv.ParseFloat(parts[1], 64)
	if errA != nil || errB != nil || a <= 0 || b <= 0 {
		return betaParams{alpha: 1, beta: 1}
	}
	return betaParams{alpha: a, beta: b}
}

func (s *masteryService) setBeta(ctx context.Context, key string, params betaParams) {
	value := strconv.FormatFloat(params.alpha, 'g', -1, 64) + "|" + strconv.FormatFloat(params.beta, 'g', -1, 64)
	if err := s.cache.Set(ctx, key, value, betaParamsTTL); err != nil {
		s.log.Debug("Mastery cache write failed", "key", key, "error", err)
	}
}

// UpdateMastery applies one graded outcome to every skill tagged on the task
// and to the task's type.
//
// The anti-guess counter tracks how often the user has tried this specific
// task recently; the update weight decays harmonically (1, 1/2, 1/3, ...) so
// a correct answer after many retries barely moves the estimate. Each target
// keeps a Beta posterior in the cache; its mean is blended into the stored
// mastery with smoothing ewmaBaseAlpha x attemptWeight and clamped to [0,1].
func (s *masteryService) UpdateMastery(ctx context.Context, tx *gorm.DB, userID uuid.UUID, task *types.Task, isCorrect bool) (*MasteryUpdate, error) {
	if task == nil || userID == uuid.Nil {
		return nil, fmt.Errorf("mastery update requires a user and a task")
	}

	counterKey := fmt.Sprintf(attemptCountKeyFmt, userID, task.ID)
	priorAttempts := s.getCounter(ctx, counterKey)
	s.setCounter(ctx, counterKey, priorAttempts+1)
	attemptWeight := 1.0 / float64(priorAttempts+1)
	smoothing := ewmaBaseAlpha * attemptWeight

	updated := &MasteryUpdate{
		Skills:   map[uuid.UUID]float64{},
		TaskType: map[uuid.UUID]float64{},
	}

	taskSkills, err := s.taskSkillRepo.ListByTask(ctx, tx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("list task skills: %w", err)
	}
	for _, taskSkill := range taskSkills {
		betaKey := fmt.Sprintf(betaSkillKeyFmt, userID, taskSkill.SkillID)
		params := s.getBeta(ctx, betaKey)
		params.update(isCorrect, taskSkill.Weight)
		s.setBeta(ctx, betaKey, params)

		previous := 0.0
		if existing, err := s.skillMasteryRepo.Get(ctx, tx, userID, taskSkill.SkillID); err != nil {
			return nil, fmt.Errorf("get skill mastery: %w", err)
		} else if existing != nil {
			previous = existing.Mastery
		}

		mastery := clampMastery(ewma(previous, params.mean(), smoothing))
		if err := s.skillMasteryRepo.Upsert(ctx, tx, userID, taskSkill.SkillID, mastery, params.total()); err != nil {
			return nil, fmt.Errorf("upsert skill mastery: %w", err)
		}
		updated.Skills[taskSkill.SkillID] = mastery
	}

	betaKey := fmt.Sprintf(betaTypeKeyFmt, userID, task.TypeID)
	params := s.getBeta(ctx, betaKey)
	params.update(isCorrect, 1)
	s.setBeta(ctx, betaKey, params)

	previous := 0.0
	if existing, err := s.typeMasteryRepo.Get(ctx, tx, userID, task.TypeID); err != nil {
		return nil, fmt.Errorf("get type mastery: %w", err)
	} else if existing != nil {
		previous = existing.Mastery
	}

	mastery := clampMastery(ewma(previous, params.mean(), smoothing))
	if err := s.typeMasteryRepo.Upsert(ctx, tx, userID, task.TypeID, mastery, params.total()); err != nil {
		return nil, fmt.Errorf("upsert type mastery: %w", err)
	}
	updated.TaskType[task.TypeID] = mastery

	return updated, nil
}
