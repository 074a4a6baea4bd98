package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fractalschool/recsys-backend/internal/logger"
	"github.com/fractalschool/recsys-backend/internal/middleware"
	"github.com/fractalschool/recsys-backend/internal/services"
	"github.com/fractalschool/recsys-backend/internal/types"
)

type VariantHandler struct {
	log        *logger.Logger
	variantSvc services.VariantService
}

func NewVariantHandler(log *logger.Logger, variantSvc services.VariantService) *VariantHandler {
	return &VariantHandler{
		log:        log.With("handler", "VariantHandler"),
		variantSvc: variantSvc,
	}
}

// assignmentView is the list/detail shape for assignments: the raw rows plus
// the derived fields the frontend needs to decide what buttons to show.
type assignmentView struct {
	Assignment   *types.VariantAssignment    `json:"assignment"`
	Progress     services.AssignmentProgress `json:"progress"`
	AttemptsLeft *int                        `json:"attempts_left,omitempty"`
	CanStart     bool                        `json:"can_start"`
	StartBlocked string                      `json:"start_blocked_reason,omitempty"`
}

type attemptView struct {
	Attempt  *types.VariantAttempt   `json:"attempt"`
	Tasks    []services.TaskProgress `json:"tasks"`
	TimeLeft *time.Duration          `json:"time_left,omitempty"`
}

func (h *VariantHandler) buildAssignmentView(assignment *types.VariantAssignment, now time.Time) assignmentView {
	canStart, reason := h.variantSvc.CanStartAttempt(assignment, now)
	return assignmentView{
		Assignment:   assignment,
		Progress:     h.variantSvc.CalculateAssignmentProgress(assignment),
		AttemptsLeft: h.variantSvc.AttemptsLeft(assignment),
		CanStart:     canStart,
		StartBlocked: reason,
	}
}

func (h *VariantHandler) buildAttemptView(attempt *types.VariantAttempt, now time.Time) attemptView {
	var template *types.VariantTemplate
	if attempt.Assignment != nil {
		template = attempt.Assignment.Template
	}
	return attemptView{
		Attempt:  attempt,
		Tasks:    h.variantSvc.BuildTasksProgress(attempt, template),
		TimeLeft: h.variantSvc.TimeLeft(attempt, template, now),
	}
}

// GET /api/variants
// Assignments of the authenticated user, split into current and past.
func (h *VariantHandler) ListAssignments(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	assignments, err := h.variantSvc.GetAssignments(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("List assignments failed", "user_id", userID, "error", err)
		RespondServiceError(c, err)
		return
	}
	now := time.Now()
	current, past := h.variantSvc.SplitAssignments(assignments, now)
	currentViews := make([]assignmentView, 0, len(current))
	for _, assignment := range current {
		currentViews = append(currentViews, h.buildAssignmentView(assignment, now))
	}
	pastViews := make([]assignmentView, 0, len(past))
	for _, assignment := range past {
		pastViews = append(pastViews, h.buildAssignmentView(assignment, now))
	}
	RespondOK(c, gin.H{"current": currentViews, "past": pastViews})
}

// GET /api/variants/:assignmentID
func (h *VariantHandler) GetAssignment(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	assignmentID, err := uuid.Parse(c.Param("assignmentID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	assignment, err := h.variantSvc.GetAssignment(c.Request.Context(), userID, assignmentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, h.buildAssignmentView(assignment, time.Now()))
}

// POST /api/variants/:assignmentID/attempts
// Start the next attempt. Fails with a stable reason code when the deadline
// passed, an attempt is already running or the budget is spent.
func (h *VariantHandler) StartAttempt(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	assignmentID, err := uuid.Parse(c.Param("assignmentID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	attempt, err := h.variantSvc.StartNewAttempt(c.Request.Context(), userID, assignmentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, h.buildAttemptView(attempt, time.Now()))
}

// GET /api/variants/attempts/:attemptID
func (h *VariantHandler) GetAttempt(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	attemptID, err := uuid.Parse(c.Param("attemptID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	attempt, err := h.variantSvc.GetAttempt(c.Request.Context(), userID, attemptID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, h.buildAttemptView(attempt, time.Now()))
}

type submitAnswerInput struct {
	Answer map[string]any `json:"answer" binding:"required"`
}

// POST /api/variants/attempts/:attemptID/tasks/:variantTaskID/submit
func (h *VariantHandler) SubmitTaskAnswer(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	attemptID, err := uuid.Parse(c.Param("attemptID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	variantTaskID, err := uuid.Parse(c.Param("variantTaskID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var input submitAnswerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	result, err := h.variantSvc.SubmitTaskAnswer(c.Request.Context(), userID, attemptID, variantTaskID, input.Answer)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

// POST /api/variants/attempts/:attemptID/finalize
func (h *VariantHandler) FinalizeAttempt(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	attemptID, err := uuid.Parse(c.Param("attemptID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	attempt, err := h.variantSvc.FinalizeAttempt(c.Request.Context(), userID, attemptID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, h.buildAttemptView(attempt, time.Now()))
}
