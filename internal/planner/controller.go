// Package planner drives the stateful, retryable request lifecycle for
// AI-generated diet and workout plans.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/caffeinepub/calorie-burn-tracker/internal/domain"
	"github.com/caffeinepub/calorie-burn-tracker/internal/observability"
)

// Phase is the controller's lifecycle state.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePending   Phase = "pending"
	PhaseSucceeded Phase = "success"
	PhaseFailed    Phase = "error"
)

var (
	// ErrRequestInFlight rejects a submit or regenerate while one request
	// for the same plan kind is still pending.
	ErrRequestInFlight = errors.New("plan request already in flight")
	// ErrNoPriorRequest rejects regenerate before any submit has stored
	// parameters.
	ErrNoPriorRequest = errors.New("no prior plan request to regenerate")
	// ErrInvalidParams marks a local validation failure; it never reaches
	// the remote.
	ErrInvalidParams = errors.New("invalid plan parameters")
)

// Controller manages one plan kind. It is reusable indefinitely: success and
// error both permit a new submission, and only Reset clears the stored
// parameters. A failed request keeps the previous successful result so the
// caller can still show it.
type Controller[P any, R any] struct {
	kind     string
	validate func(P) error
	issue    func(ctx context.Context, p P) (R, error)

	mu         sync.Mutex
	phase      Phase
	lastParams *P
	result     *R
	lastErr    error
}

// New builds a controller for one plan kind.
func New[P any, R any](kind string, validate func(P) error, issue func(ctx context.Context, p P) (R, error)) *Controller[P, R] {
	return &Controller[P, R]{
		kind:     kind,
		validate: validate,
		issue:    issue,
		phase:    PhaseIdle,
	}
}

// Submit validates params locally and, if they pass, issues exactly one RPC.
// Validation failures never reach the remote and do not disturb controller
// state.
func (c *Controller[P, R]) Submit(ctx context.Context, params P) (R, error) {
	var zero R
	if err := c.validate(params); err != nil {
		observability.RecordPlanRequest(c.kind, "rejected")
		return zero, err
	}

	c.mu.Lock()
	if c.phase == PhasePending {
		c.mu.Unlock()
		return zero, ErrRequestInFlight
	}
	c.phase = PhasePending
	stored := params
	c.lastParams = &stored
	c.mu.Unlock()

	return c.run(ctx, params)
}

// Regenerate re-issues the RPC with the last submitted parameters verbatim.
func (c *Controller[P, R]) Regenerate(ctx context.Context) (R, error) {
	var zero R
	c.mu.Lock()
	if c.lastParams == nil {
		c.mu.Unlock()
		return zero, ErrNoPriorRequest
	}
	if c.phase == PhasePending {
		c.mu.Unlock()
		return zero, ErrRequestInFlight
	}
	params := *c.lastParams
	c.phase = PhasePending
	c.mu.Unlock()

	return c.run(ctx, params)
}

func (c *Controller[P, R]) run(ctx context.Context, params P) (R, error) {
	res, err := c.issue(ctx, params)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		// Keep lastParams and any prior result; only the phase and the
		// error message change.
		c.phase = PhaseFailed
		c.lastErr = err
		observability.RecordPlanRequest(c.kind, "error")
		var zero R
		return zero, err
	}
	stored := res
	c.result = &stored
	c.lastErr = nil
	c.phase = PhaseSucceeded
	observability.RecordPlanRequest(c.kind, "success")
	return res, nil
}

// Reset clears the result, the error, and the stored parameters, returning
// to idle. It is the only transition that forgets lastParams.
func (c *Controller[P, R]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhasePending {
		return
	}
	c.phase = PhaseIdle
	c.lastParams = nil
	c.result = nil
	c.lastErr = nil
}

// Snapshot is an immutable view of the controller for presentation layers.
type Snapshot[P any, R any] struct {
	Kind       string `json:"kind"`
	Phase      Phase  `json:"phase"`
	LastParams *P     `json:"last_params,omitempty"`
	Result     *R     `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Snapshot returns the current state. The params and result are copies.
func (c *Controller[P, R]) Snapshot() Snapshot[P, R] {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot[P, R]{Kind: c.kind, Phase: c.phase}
	if c.lastParams != nil {
		p := *c.lastParams
		snap.LastParams = &p
	}
	if c.result != nil {
		r := *c.result
		snap.Result = &r
	}
	if c.lastErr != nil {
		snap.Error = c.lastErr.Error()
	}
	return snap
}

// DietParams are the user-chosen inputs for diet plan generation.
type DietParams struct {
	Goal  domain.FitnessGoal `json:"goal"`
	Stats *domain.UserStats  `json:"stats,omitempty"`
}

// Validate enforces the local preconditions for diet generation.
func (p DietParams) Validate() error {
	if !p.Goal.Valid() {
		return fmt.Errorf("%w: diet plan requires a selected fitness goal, got %q", ErrInvalidParams, p.Goal)
	}
	return p.Stats.Validate()
}

// WorkoutParams are the user-chosen inputs for workout plan generation.
type WorkoutParams struct {
	Goal domain.FitnessGoal `json:"goal"`
}

// Validate enforces the local preconditions for workout generation.
func (p WorkoutParams) Validate() error {
	if !p.Goal.Valid() {
		return fmt.Errorf("%w: workout plan requires a selected fitness goal, got %q", ErrInvalidParams, p.Goal)
	}
	return nil
}
