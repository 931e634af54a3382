// Package tracker composes the sync core: the session gate, the remote
// client binding, both entity caches, the mutation executor, and the two
// plan controllers. It is the session-scoped context the rest of the
// application holds a reference to.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/caffeinepub/calorie-burn-tracker/internal/aggregate"
	"github.com/caffeinepub/calorie-burn-tracker/internal/cache"
	"github.com/caffeinepub/calorie-burn-tracker/internal/domain"
	"github.com/caffeinepub/calorie-burn-tracker/internal/identity"
	"github.com/caffeinepub/calorie-burn-tracker/internal/mutate"
	"github.com/caffeinepub/calorie-burn-tracker/internal/observability"
	"github.com/caffeinepub/calorie-burn-tracker/internal/planner"
	"github.com/caffeinepub/calorie-burn-tracker/internal/remote"
	"github.com/caffeinepub/calorie-burn-tracker/internal/session"
)

var (
	// ErrInvalidActivity rejects a malformed add-activity input locally.
	ErrInvalidActivity = errors.New("invalid activity")
	// ErrInvalidGoal rejects a non-positive daily goal locally.
	ErrInvalidGoal = errors.New("daily goal must be positive")
)

// ClientFactory builds a remote client bound to one signed-in identity.
type ClientFactory func(id identity.Identity, token string) remote.Client

// Options configure a Tracker.
type Options struct {
	Identity        identity.Config
	ClientFactory   ClientFactory
	RefreshInterval time.Duration
	Logger          *zap.Logger
}

// Tracker owns the sync core's state. All access goes through its methods.
type Tracker struct {
	opts Options
	log  *zap.Logger
	gate *session.Gate

	clients *clientHolder

	activities *cache.Entity[[]domain.Activity]
	goal       *cache.Entity[*int64]

	executor *mutate.Executor

	diet    *planner.Controller[planner.DietParams, domain.DietPlan]
	workout *planner.Controller[planner.WorkoutParams, domain.WorkoutPlan]
}

// New wires the core together. The caches subscribe to the gate so any
// identity transition clears them before reads for the new identity run.
func New(opts Options) *Tracker {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	t := &Tracker{
		opts:    opts,
		log:     log,
		gate:    session.NewGate(),
		clients: &clientHolder{},
	}

	t.activities = cache.NewEntity("activities", t.gate, t.fetchActivities,
		func() []domain.Activity { return []domain.Activity{} },
		opts.RefreshInterval, log)
	t.goal = cache.NewEntity("dailyGoal", t.gate, t.fetchDailyGoal,
		func() *int64 { return nil },
		opts.RefreshInterval, log)

	t.executor = mutate.NewExecutor(t.clients.get, map[mutate.Op][]mutate.Invalidator{
		mutate.OpAddActivity:  {t.activities},
		mutate.OpSetDailyGoal: {t.goal},
	}, log)

	t.diet = planner.New("diet",
		func(p planner.DietParams) error { return p.Validate() },
		t.issueDietPlan)
	t.workout = planner.New("workout",
		func(p planner.WorkoutParams) error { return p.Validate() },
		t.issueWorkoutPlan)

	t.gate.Subscribe(func() {
		t.activities.Clear()
		t.goal.Clear()
	})

	return t
}

// Gate exposes the session gate for consumers that only need the
// authentication predicate.
func (t *Tracker) Gate() *session.Gate { return t.gate }

// Login parses the provider token, binds a client for the identity it
// asserts, and transitions the session. The previous identity's caches are
// cleared before any read for the new identity is admitted.
func (t *Tracker) Login(token string) (identity.Identity, error) {
	id, err := identity.Parse(token, t.opts.Identity)
	if err != nil {
		return identity.Identity{}, err
	}

	// Tear down the old session first so no read can pair the new client
	// with the old identity's epoch.
	t.gate.Logout()
	t.clients.set(t.opts.ClientFactory(id, token))
	t.gate.Login(id)

	t.log.Info("session established", zap.String("principal", id.Principal))
	return id, nil
}

// Logout reverts to the anonymous session and unbinds the client.
func (t *Tracker) Logout() {
	t.gate.Logout()
	t.clients.set(nil)
	t.log.Info("session ended")
}

// Activities returns the cached activity log ordered for display.
func (t *Tracker) Activities(ctx context.Context) []domain.Activity {
	return aggregate.SortForDisplay(t.activities.Read(ctx))
}

// DailyGoal returns the cached goal, nil when none is set.
func (t *Tracker) DailyGoal(ctx context.Context) *int64 {
	return t.goal.Read(ctx)
}

// Summary recomputes the aggregates from the current cache contents.
func (t *Tracker) Summary(ctx context.Context) aggregate.Summary {
	return aggregate.Summarize(t.activities.Read(ctx), t.goal.Read(ctx))
}

// AddActivityInput is the user-facing payload for recording an activity.
type AddActivityInput struct {
	Name            string
	DurationMinutes int64
	Difficulty      domain.Difficulty
}

// Validate enforces the local preconditions before any RPC.
func (in AddActivityInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidActivity)
	}
	if in.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidActivity)
	}
	if !in.Difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidActivity, in.Difficulty)
	}
	return nil
}

// AddActivity computes the calorie figure from the rate table in effect now,
// submits the write, and on success invalidates the activity cache. It
// returns the computed calories.
func (t *Tracker) AddActivity(ctx context.Context, in AddActivityInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	calories := domain.EstimateCalories(in.DurationMinutes, in.Difficulty)
	err := t.executor.Do(ctx, mutate.OpAddActivity, func(ctx context.Context, c remote.Client, key string) error {
		return c.AddActivity(ctx, key, remote.AddActivityRequest{
			Name:            in.Name,
			CaloriesBurned:  calories,
			DurationMinutes: in.DurationMinutes,
			Difficulty:      in.Difficulty,
		})
	})
	if err != nil {
		return 0, err
	}
	return calories, nil
}

// SetDailyGoal overwrites the daily goal and on success invalidates its
// cache entry.
func (t *Tracker) SetDailyGoal(ctx context.Context, value int64) error {
	if value <= 0 {
		return ErrInvalidGoal
	}
	return t.executor.Do(ctx, mutate.OpSetDailyGoal, func(ctx context.Context, c remote.Client, key string) error {
		return c.SetDailyCalorieGoal(ctx, key, value)
	})
}

// Diet returns the diet plan controller.
func (t *Tracker) Diet() *planner.Controller[planner.DietParams, domain.DietPlan] {
	return t.diet
}

// Workout returns the workout plan controller.
func (t *Tracker) Workout() *planner.Controller[planner.WorkoutParams, domain.WorkoutPlan] {
	return t.workout
}

// Profile fetches the caller's profile, nil when none is stored.
func (t *Tracker) Profile(ctx context.Context) (*domain.UserProfile, error) {
	c := t.clients.get()
	if c == nil {
		return nil, mutate.ErrNotInitialized
	}
	profile, err := c.GetCallerUserProfile(ctx)
	observability.RecordRemoteCall("getCallerUserProfile", err)
	return profile, err
}

// SaveProfile stores the caller's profile. Profiles are not cached, so no
// invalidation follows.
func (t *Tracker) SaveProfile(ctx context.Context, profile domain.UserProfile) error {
	c := t.clients.get()
	if c == nil {
		return mutate.ErrNotInitialized
	}
	err := c.SaveCallerUserProfile(ctx, profile)
	observability.RecordRemoteCall("saveCallerUserProfile", err)
	return err
}

// Role fetches the caller's role on the backend.
func (t *Tracker) Role(ctx context.Context) (domain.UserRole, error) {
	c := t.clients.get()
	if c == nil {
		return "", mutate.ErrNotInitialized
	}
	role, err := c.GetCallerUserRole(ctx)
	observability.RecordRemoteCall("getCallerUserRole", err)
	return role, err
}

// RunBackgroundRefresh re-reads both entities at the configured interval
// while a session is bound. It is the explicit, time-boxed replacement for
// refetch-on-focus and returns when ctx is done. A zero interval disables
// it.
func (t *Tracker) RunBackgroundRefresh(ctx context.Context) {
	if t.opts.RefreshInterval <= 0 {
		return
	}
	ticker := time.NewTicker(t.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !t.gate.Authenticated() {
				continue
			}
			t.activities.Read(ctx)
			t.goal.Read(ctx)
		}
	}
}

func (t *Tracker) fetchActivities(ctx context.Context) ([]domain.Activity, error) {
	c := t.clients.get()
	if c == nil {
		return nil, mutate.ErrNotInitialized
	}
	activities, err := c.GetAllActivities(ctx)
	observability.RecordRemoteCall("getAllActivities", err)
	return activities, err
}

// fetchDailyGoal maps the backend's "no goal set" answer to absent without
// treating it as a failure. Any other error also yields absent, via the
// cache's failure handling.
func (t *Tracker) fetchDailyGoal(ctx context.Context) (*int64, error) {
	c := t.clients.get()
	if c == nil {
		return nil, mutate.ErrNotInitialized
	}
	value, err := c.GetDailyCalorieGoal(ctx)
	if errors.Is(err, remote.ErrNoGoalSet) {
		observability.RecordRemoteCall("getDailyCalorieGoal", nil)
		return nil, nil
	}
	observability.RecordRemoteCall("getDailyCalorieGoal", err)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (t *Tracker) issueDietPlan(ctx context.Context, p planner.DietParams) (domain.DietPlan, error) {
	c := t.clients.get()
	if c == nil {
		return domain.DietPlan{}, mutate.ErrNotInitialized
	}
	plan, err := c.GeneratePersonalizedDietPlan(ctx, p.Goal, p.Stats)
	observability.RecordRemoteCall("generatePersonalizedDietPlan", err)
	return plan, err
}

func (t *Tracker) issueWorkoutPlan(ctx context.Context, p planner.WorkoutParams) (domain.WorkoutPlan, error) {
	c := t.clients.get()
	if c == nil {
		return domain.WorkoutPlan{}, mutate.ErrNotInitialized
	}
	plan, err := c.GenerateWorkoutPlan(ctx, p.Goal)
	observability.RecordRemoteCall("generateWorkoutPlan", err)
	return plan, err
}
