// Package mutate performs writes against the remote backend and keeps the
// entity caches consistent with them.
package mutate

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caffeinepub/calorie-burn-tracker/internal/observability"
	"github.com/caffeinepub/calorie-burn-tracker/internal/remote"
)

// ErrNotInitialized means no remote client is bound at call time. This is a
// fatal precondition for the call, not a retry case.
var ErrNotInitialized = errors.New("remote client not initialized")

// Op names a mutation for cache binding and metrics.
type Op string

const (
	OpAddActivity  Op = "addActivity"
	OpSetDailyGoal Op = "setDailyCalorieGoal"
)

// Invalidator is the slice of the cache API mutations need.
type Invalidator interface {
	Invalidate()
	Name() string
}

// Executor runs a write and, only on success, invalidates the cache keys
// bound to the operation. Failures propagate unchanged and leave every cache
// untouched; there is no automatic retry.
type Executor struct {
	client   func() remote.Client
	bindings map[Op][]Invalidator
	log      *zap.Logger
}

// NewExecutor wires an executor to a client provider and the per-operation
// cache bindings.
func NewExecutor(client func() remote.Client, bindings map[Op][]Invalidator, log *zap.Logger) *Executor {
	return &Executor{client: client, bindings: bindings, log: log}
}

// Do executes one mutation. fn receives the bound client and a fresh
// idempotency key so the backend can deduplicate resubmissions of the same
// logical write.
func (e *Executor) Do(ctx context.Context, op Op, fn func(ctx context.Context, c remote.Client, idempotencyKey string) error) error {
	c := e.client()
	if c == nil {
		return ErrNotInitialized
	}

	key := uuid.NewString()
	err := fn(ctx, c, key)
	observability.RecordRemoteCall(string(op), err)
	if err != nil {
		return err
	}

	for _, inv := range e.bindings[op] {
		inv.Invalidate()
		e.log.Debug("cache invalidated after mutation",
			zap.String("operation", string(op)),
			zap.String("entity", inv.Name()))
	}
	return nil
}
