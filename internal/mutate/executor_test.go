package mutate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/caffeinepub/calorie-burn-tracker/internal/remote"
)

type recordingInvalidator struct {
	name  string
	count int
}

func (r *recordingInvalidator) Invalidate() { r.count++ }
func (r *recordingInvalidator) Name() string {
	return r.name
}

func newTestExecutor(client remote.Client, inv Invalidator) *Executor {
	provider := func() remote.Client { return client }
	return NewExecutor(provider, map[Op][]Invalidator{
		OpAddActivity: {inv},
	}, zap.NewNop())
}

func TestDoWithoutClientIsFatal(t *testing.T) {
	inv := &recordingInvalidator{name: "activities"}
	e := newTestExecutor(nil, inv)

	called := 0
	err := e.Do(context.Background(), OpAddActivity, func(context.Context, remote.Client, string) error {
		called++
		return nil
	})
	require.ErrorIs(t, err, ErrNotInitialized)
	require.Equal(t, 0, called, "mutation must not run without a client")
	require.Equal(t, 0, inv.count)
}

func TestDoInvalidatesOnSuccess(t *testing.T) {
	inv := &recordingInvalidator{name: "activities"}
	client := remote.NewMemoryBackend().ClientFor("user-a")
	e := newTestExecutor(client, inv)

	var seenKey string
	err := e.Do(context.Background(), OpAddActivity, func(_ context.Context, _ remote.Client, key string) error {
		seenKey = key
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, seenKey, "each mutation gets an idempotency key")
	require.Equal(t, 1, inv.count, "exactly one invalidation per successful mutation")
}

func TestDoLeavesCacheOnFailure(t *testing.T) {
	inv := &recordingInvalidator{name: "activities"}
	client := remote.NewMemoryBackend().ClientFor("user-a")
	e := newTestExecutor(client, inv)

	backendErr := errors.New("write rejected")
	err := e.Do(context.Background(), OpAddActivity, func(context.Context, remote.Client, string) error {
		return backendErr
	})
	require.ErrorIs(t, err, backendErr, "failure propagates unchanged")
	require.Equal(t, 0, inv.count, "failed mutations never invalidate")
}

func TestDoUsesFreshKeyPerCall(t *testing.T) {
	inv := &recordingInvalidator{name: "activities"}
	client := remote.NewMemoryBackend().ClientFor("user-a")
	e := newTestExecutor(client, inv)

	keys := map[string]struct{}{}
	for i := 0; i < 3; i++ {
		err := e.Do(context.Background(), OpAddActivity, func(_ context.Context, _ remote.Client, key string) error {
			keys[key] = struct{}{}
			return nil
		})
		require.NoError(t, err)
	}
	require.Len(t, keys, 3)
}
