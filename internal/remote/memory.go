package remote

import (
	"context"
	"sync"
	"time"

	"github.com/caffeinepub/calorie-burn-tracker/internal/domain"
)

// RPC operation names used for call counting and fault injection.
const (
	OpAddActivity         = "addActivity"
	OpGetAllActivities    = "getAllActivities"
	OpGetDailyCalorieGoal = "getDailyCalorieGoal"
	OpSetDailyCalorieGoal = "setDailyCalorieGoal"
	OpGenerateDietPlan    = "generatePersonalizedDietPlan"
	OpGenerateWorkoutPlan = "generateWorkoutPlan"
	OpGetProfile          = "getCallerUserProfile"
	OpSaveProfile         = "saveCallerUserProfile"
	OpGetRole             = "getCallerUserRole"
)

type principalState struct {
	activities []domain.Activity
	goal       int64
	goalSet    bool
	profile    *domain.UserProfile
	role       domain.UserRole
	seen       map[string]struct{}
}

// MemoryBackend is an in-process stand-in for the fitness backend, used by
// tests and by trackerd's dev mode. It keeps one state bucket per principal,
// counts calls per operation, and can be told to fail the next call of an
// operation.
type MemoryBackend struct {
	mu       sync.Mutex
	users    map[string]*principalState
	calls    map[string]int
	failNext map[string]error
	now      func() time.Time
}

// NewMemoryBackend constructs an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		users:    make(map[string]*principalState),
		calls:    make(map[string]int),
		failNext: make(map[string]error),
		now:      time.Now,
	}
}

// SetClock overrides the timestamp source.
func (b *MemoryBackend) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// Calls returns how many times op has been invoked across all principals.
func (b *MemoryBackend) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// FailNext makes the next invocation of op return err.
func (b *MemoryBackend) FailNext(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext[op] = err
}

// ClientFor returns a Client bound to the given principal, mirroring the
// token-scoped binding of the HTTP client.
func (b *MemoryBackend) ClientFor(principal string) Client {
	return &memoryClient{backend: b, principal: principal}
}

func (b *MemoryBackend) state(principal string) *principalState {
	st, ok := b.users[principal]
	if !ok {
		st = &principalState{role: domain.RoleUser, seen: make(map[string]struct{})}
		b.users[principal] = st
	}
	return st
}

// begin records the call and returns the injected failure, if any. The
// caller must hold no locks; begin takes and releases the backend lock.
func (b *MemoryBackend) begin(op string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[op]++
	if err, ok := b.failNext[op]; ok {
		delete(b.failNext, op)
		return err
	}
	return nil
}

type memoryClient struct {
	backend   *MemoryBackend
	principal string
}

func (c *memoryClient) AddActivity(_ context.Context, idempotencyKey string, req AddActivityRequest) error {
	if err := c.backend.begin(OpAddActivity); err != nil {
		return err
	}
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()

	st := c.backend.state(c.principal)
	if idempotencyKey != "" {
		if _, dup := st.seen[idempotencyKey]; dup {
			return nil
		}
		st.seen[idempotencyKey] = struct{}{}
	}
	st.activities = append(st.activities, domain.Activity{
		Name:            req.Name,
		Difficulty:      req.Difficulty,
		DurationMinutes: req.DurationMinutes,
		CaloriesBurned:  req.CaloriesBurned,
		Timestamp:       c.backend.now().UnixNano(),
	})
	return nil
}

func (c *memoryClient) GetAllActivities(_ context.Context) ([]domain.Activity, error) {
	if err := c.backend.begin(OpGetAllActivities); err != nil {
		return nil, err
	}
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()

	st := c.backend.state(c.principal)
	out := make([]domain.Activity, len(st.activities))
	copy(out, st.activities)
	return out, nil
}

func (c *memoryClient) GetDailyCalorieGoal(_ context.Context) (int64, error) {
	if err := c.backend.begin(OpGetDailyCalorieGoal); err != nil {
		return 0, err
	}
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()

	st := c.backend.state(c.principal)
	if !st.goalSet {
		return 0, ErrNoGoalSet
	}
	return st.goal, nil
}

func (c *memoryClient) SetDailyCalorieGoal(_ context.Context, idempotencyKey string, goal int64) error {
	if err := c.backend.begin(OpSetDailyCalorieGoal); err != nil {
		return err
	}
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()

	st := c.backend.state(c.principal)
	if idempotencyKey != "" {
		if _, dup := st.seen[idempotencyKey]; dup {
			return nil
		}
		st.seen[idempotencyKey] = struct{}{}
	}
	st.goal = goal
	st.goalSet = true
	return nil
}

func (c *memoryClient) GeneratePersonalizedDietPlan(_ context.Context, goal domain.FitnessGoal, stats *domain.UserStats) (domain.DietPlan, error) {
	if err := c.backend.begin(OpGenerateDietPlan); err != nil {
		return domain.DietPlan{}, err
	}
	return cannedDietPlan(goal, stats), nil
}

func (c *memoryClient) GenerateWorkoutPlan(_ context.Context, goal domain.FitnessGoal) (domain.WorkoutPlan, error) {
	if err := c.backend.begin(OpGenerateWorkoutPlan); err != nil {
		return domain.WorkoutPlan{}, err
	}
	return cannedWorkoutPlan(goal), nil
}

func (c *memoryClient) GetCallerUserProfile(_ context.Context) (*domain.UserProfile, error) {
	if err := c.backend.begin(OpGetProfile); err != nil {
		return nil, err
	}
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	return c.backend.state(c.principal).profile, nil
}

func (c *memoryClient) SaveCallerUserProfile(_ context.Context, profile domain.UserProfile) error {
	if err := c.backend.begin(OpSaveProfile); err != nil {
		return err
	}
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	c.backend.state(c.principal).profile = &profile
	return nil
}

func (c *memoryClient) GetCallerUserRole(_ context.Context) (domain.UserRole, error) {
	if err := c.backend.begin(OpGetRole); err != nil {
		return "", err
	}
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	return c.backend.state(c.principal).role, nil
}

func (c *memoryClient) IsCallerAdmin(ctx context.Context) (bool, error) {
	role, err := c.GetCallerUserRole(ctx)
	if err != nil {
		return false, err
	}
	return role == domain.RoleAdmin, nil
}

func cannedDietPlan(goal domain.FitnessGoal, stats *domain.UserStats) domain.DietPlan {
	baseCalories := 2000.0
	if stats != nil && stats.WeightKg != nil {
		baseCalories = *stats.WeightKg * 30
	}

	var macros domain.MacroSplit
	var guidelines string
	switch goal {
	case domain.GoalWeightLoss:
		macros = domain.MacroSplit{Calories: baseCalories - 400, ProteinGrams: 140, CarbsGrams: 150, FatsGrams: 55}
		guidelines = "Maintain a moderate calorie deficit with lean protein at every meal."
	case domain.GoalMuscleGain:
		macros = domain.MacroSplit{Calories: baseCalories + 300, ProteinGrams: 170, CarbsGrams: 250, FatsGrams: 70}
		guidelines = "Eat a calorie surplus with protein spread across the day."
	case domain.GoalEndurance:
		macros = domain.MacroSplit{Calories: baseCalories + 150, ProteinGrams: 120, CarbsGrams: 300, FatsGrams: 65}
		guidelines = "Prioritise carbohydrate-rich meals around training sessions."
	default:
		macros = domain.MacroSplit{Calories: baseCalories, ProteinGrams: 130, CarbsGrams: 220, FatsGrams: 65}
		guidelines = "Keep macros balanced and portions consistent."
	}

	return domain.DietPlan{
		Goal:              goal,
		Guidelines:        guidelines,
		RecommendedMacros: macros,
		MealSuggestions: []domain.MealSuggestion{
			{Name: "Greek Yogurt Bowl", Description: "Yogurt with berries and granola", Calories: macros.Calories * 0.25, Protein: 30, Carbs: 40, Fats: 10},
			{Name: "Grilled Chicken Salad", Description: "Chicken breast over mixed greens", Calories: macros.Calories * 0.35, Protein: 45, Carbs: 25, Fats: 18},
			{Name: "Salmon and Rice", Description: "Baked salmon with brown rice", Calories: macros.Calories * 0.4, Protein: 40, Carbs: 55, Fats: 22},
		},
	}
}

var planTypes = map[domain.FitnessGoal]string{
	domain.GoalWeightLoss:  "Fat Burn Program",
	domain.GoalMuscleGain:  "Hypertrophy Program",
	domain.GoalMaintenance: "Balanced Program",
	domain.GoalEndurance:   "Endurance Program",
}

func cannedWorkoutPlan(goal domain.FitnessGoal) domain.WorkoutPlan {
	sets := int64(3)
	reps := int64(12)
	duration := int64(20)
	perSet := int64(25)
	perMinute := int64(9)

	plan := domain.WorkoutPlan{
		Goal:     goal,
		PlanType: planTypes[goal],
		WeeklySchedule: domain.WeeklySchedule{
			DaysPerWeek:          4,
			TotalSessions:        4,
			SessionLengthMinutes: 45,
			RestDays:             []string{"Wednesday", "Saturday", "Sunday"},
		},
		ExerciseList: []domain.Exercise{
			{Name: "Squat", Difficulty: domain.DifficultyMedium, Sets: &sets, Reps: &reps, CaloriesPerSet: &perSet},
			{Name: "Push-Up", Difficulty: domain.DifficultyEasy, Sets: &sets, Reps: &reps, CaloriesPerSet: &perSet},
			{Name: "Interval Run", Difficulty: domain.DifficultyHard, DurationMinutes: &duration, CaloriesPerMinute: &perMinute},
		},
		EstimatedCaloriesPerSession: 380,
	}
	if goal == domain.GoalEndurance {
		plan.WeeklySchedule.DaysPerWeek = 5
		plan.WeeklySchedule.TotalSessions = 5
		plan.EstimatedCaloriesPerSession = 450
	}
	return plan
}
