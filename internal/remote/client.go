// Package remote defines the backend RPC surface the sync core consumes.
package remote

import (
	"context"
	"errors"

	"github.com/caffeinepub/calorie-burn-tracker/internal/domain"
)

// ErrNoGoalSet is returned by GetDailyCalorieGoal when the caller has never
// stored a goal.
var ErrNoGoalSet = errors.New("no daily calorie goal set")

// AddActivityRequest is the payload for the add-activity write. The calorie
// figure is computed client-side at submission time and stored as-is.
type AddActivityRequest struct {
	Name            string            `json:"name"`
	CaloriesBurned  int64             `json:"calories_burned"`
	DurationMinutes int64             `json:"duration_minutes"`
	Difficulty      domain.Difficulty `json:"difficulty"`
}

// Client is the identity-scoped RPC surface of the fitness backend. One
// client is bound per signed-in session; all calls act on the caller's own
// data.
type Client interface {
	AddActivity(ctx context.Context, idempotencyKey string, req AddActivityRequest) error
	GetAllActivities(ctx context.Context) ([]domain.Activity, error)

	GetDailyCalorieGoal(ctx context.Context) (int64, error)
	SetDailyCalorieGoal(ctx context.Context, idempotencyKey string, goal int64) error

	GeneratePersonalizedDietPlan(ctx context.Context, goal domain.FitnessGoal, stats *domain.UserStats) (domain.DietPlan, error)
	GenerateWorkoutPlan(ctx context.Context, goal domain.FitnessGoal) (domain.WorkoutPlan, error)

	GetCallerUserProfile(ctx context.Context) (*domain.UserProfile, error)
	SaveCallerUserProfile(ctx context.Context, profile domain.UserProfile) error
	GetCallerUserRole(ctx context.Context) (domain.UserRole, error)
	IsCallerAdmin(ctx context.Context) (bool, error)
}
