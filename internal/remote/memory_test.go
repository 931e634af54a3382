package remote

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caffeinepub/calorie-burn-tracker/internal/domain"
)

func TestMemoryBackendIsolatesPrincipals(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	alice := backend.ClientFor("alice")
	bob := backend.ClientFor("bob")

	require.NoError(t, alice.AddActivity(ctx, "key-1", AddActivityRequest{
		Name: "Run", CaloriesBurned: 240, DurationMinutes: 30, Difficulty: domain.DifficultyMedium,
	}))

	aliceActs, err := alice.GetAllActivities(ctx)
	require.NoError(t, err)
	require.Len(t, aliceActs, 1)

	bobActs, err := bob.GetAllActivities(ctx)
	require.NoError(t, err)
	require.Empty(t, bobActs)
}

func TestMemoryBackendGoalLifecycle(t *testing.T) {
	ctx := context.Background()
	client := NewMemoryBackend().ClientFor("alice")

	_, err := client.GetDailyCalorieGoal(ctx)
	require.ErrorIs(t, err, ErrNoGoalSet)

	require.NoError(t, client.SetDailyCalorieGoal(ctx, "key-1", 500))
	goal, err := client.GetDailyCalorieGoal(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(500), goal)

	// Overwrite, not append.
	require.NoError(t, client.SetDailyCalorieGoal(ctx, "key-2", 800))
	goal, err = client.GetDailyCalorieGoal(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(800), goal)
}

func TestMemoryBackendIdempotencyDedupe(t *testing.T) {
	ctx := context.Background()
	client := NewMemoryBackend().ClientFor("alice")

	req := AddActivityRequest{Name: "Run", CaloriesBurned: 240, DurationMinutes: 30, Difficulty: domain.DifficultyMedium}
	require.NoError(t, client.AddActivity(ctx, "same-key", req))
	require.NoError(t, client.AddActivity(ctx, "same-key", req))

	acts, err := client.GetAllActivities(ctx)
	require.NoError(t, err)
	require.Len(t, acts, 1, "duplicate idempotency key must not append twice")
}

func TestMemoryBackendFailNext(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	client := backend.ClientFor("alice")

	injected := errors.New("injected failure")
	backend.FailNext(OpGetAllActivities, injected)

	_, err := client.GetAllActivities(ctx)
	require.ErrorIs(t, err, injected)

	// Only the next call fails.
	_, err = client.GetAllActivities(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, backend.Calls(OpGetAllActivities))
}

func TestMemoryBackendPlans(t *testing.T) {
	ctx := context.Background()
	client := NewMemoryBackend().ClientFor("alice")

	diet, err := client.GeneratePersonalizedDietPlan(ctx, domain.GoalWeightLoss, nil)
	require.NoError(t, err)
	require.Equal(t, domain.GoalWeightLoss, diet.Goal)
	require.NotEmpty(t, diet.Guidelines)
	require.NotEmpty(t, diet.MealSuggestions)

	workout, err := client.GenerateWorkoutPlan(ctx, domain.GoalEndurance)
	require.NoError(t, err)
	require.Equal(t, domain.GoalEndurance, workout.Goal)
	require.NotEmpty(t, workout.ExerciseList)
	require.Equal(t, int64(5), workout.WeeklySchedule.DaysPerWeek)
}

func TestMemoryBackendProfileAndRole(t *testing.T) {
	ctx := context.Background()
	client := NewMemoryBackend().ClientFor("alice")

	profile, err := client.GetCallerUserProfile(ctx)
	require.NoError(t, err)
	require.Nil(t, profile)

	require.NoError(t, client.SaveCallerUserProfile(ctx, domain.UserProfile{Name: "Alice"}))
	profile, err = client.GetCallerUserProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, profile)
	require.Equal(t, "Alice", profile.Name)

	role, err := client.GetCallerUserRole(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, role)

	admin, err := client.IsCallerAdmin(ctx)
	require.NoError(t, err)
	require.False(t, admin)
}
