// Package api exposes the sync core over HTTP to the local UI process.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/caffeinepub/calorie-burn-tracker/internal/domain"
	"github.com/caffeinepub/calorie-burn-tracker/internal/identity"
	"github.com/caffeinepub/calorie-burn-tracker/internal/mutate"
	"github.com/caffeinepub/calorie-burn-tracker/internal/planner"
	"github.com/caffeinepub/calorie-burn-tracker/internal/tracker"
)

// Handler coordinates HTTP requests with the tracker core.
type Handler struct {
	tracker  *tracker.Tracker
	validate *validator.Validate
	log      *zap.Logger
}

// NewHandler builds a Handler.
func NewHandler(t *tracker.Tracker, log *zap.Logger) *Handler {
	return &Handler{
		tracker:  t,
		validate: validator.New(),
		log:      log,
	}
}

// RegisterRoutes wires endpoints to the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", healthz)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/session", h.login)
		r.Delete("/session", h.logout)
		r.Get("/session", h.sessionStatus)

		r.Get("/activities", h.listActivities)
		r.Post("/activities", h.addActivity)
		r.Get("/activities/estimate", h.estimateCalories)

		r.Get("/goal", h.getGoal)
		r.Put("/goal", h.setGoal)

		r.Get("/summary", h.summary)

		r.Get("/plans/{kind}", h.planStatus)
		r.Post("/plans/{kind}", h.submitPlan)
		r.Post("/plans/{kind}/regenerate", h.regeneratePlan)
		r.Delete("/plans/{kind}", h.resetPlan)

		r.Get("/profile", h.getProfile)
		r.Put("/profile", h.saveProfile)
		r.Get("/role", h.getRole)
	})
}

// healthz reports a simple OK status.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// LoginRequest carries the identity provider's bearer token.
type LoginRequest struct {
	Token string `json:"token" validate:"required"`
}

// SessionView reports the gate's state.
type SessionView struct {
	Authenticated bool   `json:"authenticated"`
	Principal     string `json:"principal,omitempty"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	id, err := h.tracker.Login(req.Token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SessionView{Authenticated: true, Principal: id.Principal})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.tracker.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sessionStatus(w http.ResponseWriter, r *http.Request) {
	gate := h.tracker.Gate()
	view := SessionView{Authenticated: gate.Authenticated()}
	if view.Authenticated {
		view.Principal = gate.Current().Principal
	}
	writeJSON(w, http.StatusOK, view)
}

// ListActivitiesResponse packages the activity log in display order.
type ListActivitiesResponse struct {
	Items []domain.Activity `json:"items"`
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ListActivitiesResponse{Items: h.tracker.Activities(r.Context())})
}

// AddActivityRequest is the payload for POST /v1/activities.
type AddActivityRequest struct {
	Name            string `json:"name" validate:"required"`
	DurationMinutes int64  `json:"duration_minutes" validate:"gt=0"`
	Difficulty      string `json:"difficulty" validate:"required,oneof=easy medium hard"`
}

// AddActivityResponse echoes the calorie figure computed at submission time.
type AddActivityResponse struct {
	Name            string `json:"name"`
	DurationMinutes int64  `json:"duration_minutes"`
	Difficulty      string `json:"difficulty"`
	CaloriesBurned  int64  `json:"calories_burned"`
}

func (h *Handler) addActivity(w http.ResponseWriter, r *http.Request) {
	var req AddActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	calories, err := h.tracker.AddActivity(r.Context(), tracker.AddActivityInput{
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		Difficulty:      domain.Difficulty(req.Difficulty),
	})
	if err != nil {
		h.writeCoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, AddActivityResponse{
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		Difficulty:      req.Difficulty,
		CaloriesBurned:  calories,
	})
}

// EstimateResponse is the preview figure shown before submission.
type EstimateResponse struct {
	DurationMinutes int64  `json:"duration_minutes"`
	Difficulty      string `json:"difficulty"`
	Calories        int64  `json:"calories"`
}

func (h *Handler) estimateCalories(w http.ResponseWriter, r *http.Request) {
	duration, err := strconv.ParseInt(r.URL.Query().Get("duration_minutes"), 10, 64)
	if err != nil || duration <= 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "duration_minutes must be a positive integer")
		return
	}
	difficulty := domain.Difficulty(r.URL.Query().Get("difficulty"))
	if !difficulty.Valid() {
		writeError(w, http.StatusBadRequest, "validation_failed", "difficulty must be easy, medium or hard")
		return
	}

	writeJSON(w, http.StatusOK, EstimateResponse{
		DurationMinutes: duration,
		Difficulty:      string(difficulty),
		Calories:        domain.EstimateCalories(duration, difficulty),
	})
}

// GoalView represents the daily goal; Value is null when none is set.
type GoalView struct {
	Value *int64 `json:"value"`
}

func (h *Handler) getGoal(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GoalView{Value: h.tracker.DailyGoal(r.Context())})
}

// SetGoalRequest is the payload for PUT /v1/goal.
type SetGoalRequest struct {
	Value int64 `json:"value" validate:"gt=0"`
}

func (h *Handler) setGoal(w http.ResponseWriter, r *http.Request) {
	var req SetGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	if err := h.tracker.SetDailyGoal(r.Context(), req.Value); err != nil {
		h.writeCoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Summary(r.Context()))
}

// PlanSubmitRequest is the payload for POST /v1/plans/{kind}. Stats is only
// honoured for diet plans.
type PlanSubmitRequest struct {
	Goal  string            `json:"goal" validate:"required"`
	Stats *domain.UserStats `json:"stats,omitempty"`
}

func (h *Handler) submitPlan(w http.ResponseWriter, r *http.Request) {
	var req PlanSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	goal := domain.FitnessGoal(req.Goal)
	switch chi.URLParam(r, "kind") {
	case "diet":
		plan, err := h.tracker.Diet().Submit(r.Context(), planner.DietParams{Goal: goal, Stats: req.Stats})
		if err != nil {
			h.writeCoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, plan)
	case "workout":
		plan, err := h.tracker.Workout().Submit(r.Context(), planner.WorkoutParams{Goal: goal})
		if err != nil {
			h.writeCoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, plan)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown plan kind")
	}
}

func (h *Handler) regeneratePlan(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "kind") {
	case "diet":
		plan, err := h.tracker.Diet().Regenerate(r.Context())
		if err != nil {
			h.writeCoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, plan)
	case "workout":
		plan, err := h.tracker.Workout().Regenerate(r.Context())
		if err != nil {
			h.writeCoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, plan)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown plan kind")
	}
}

func (h *Handler) planStatus(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "kind") {
	case "diet":
		writeJSON(w, http.StatusOK, h.tracker.Diet().Snapshot())
	case "workout":
		writeJSON(w, http.StatusOK, h.tracker.Workout().Snapshot())
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown plan kind")
	}
}

func (h *Handler) resetPlan(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "kind") {
	case "diet":
		h.tracker.Diet().Reset()
	case "workout":
		h.tracker.Workout().Reset()
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown plan kind")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.tracker.Profile(r.Context())
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "not_found", "no profile stored")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) saveProfile(w http.ResponseWriter, r *http.Request) {
	var profile domain.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := h.tracker.SaveProfile(r.Context(), profile); err != nil {
		h.writeCoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RoleView reports the caller's backend role.
type RoleView struct {
	Role  domain.UserRole `json:"role"`
	Admin bool            `json:"admin"`
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.tracker.Role(r.Context())
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RoleView{Role: role, Admin: role == domain.RoleAdmin})
}

// writeCoreError maps core errors onto HTTP statuses. Mutation and plan
// failures from the backend are surfaced verbatim in the detail field.
func (h *Handler) writeCoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracker.ErrInvalidActivity),
		errors.Is(err, tracker.ErrInvalidGoal),
		errors.Is(err, domain.ErrInvalidStats),
		errors.Is(err, planner.ErrInvalidParams):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, identity.ErrMissingToken), errors.Is(err, identity.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, mutate.ErrNotInitialized):
		writeError(w, http.StatusUnauthorized, "not_initialized", err.Error())
	case errors.Is(err, planner.ErrRequestInFlight):
		writeError(w, http.StatusConflict, "request_in_flight", err.Error())
	case errors.Is(err, planner.ErrNoPriorRequest):
		writeError(w, http.StatusPreconditionFailed, "no_prior_request", err.Error())
	default:
		h.log.Warn("backend call failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "backend_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
