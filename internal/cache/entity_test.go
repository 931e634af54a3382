package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/caffeinepub/calorie-burn-tracker/internal/identity"
	"github.com/caffeinepub/calorie-burn-tracker/internal/session"
)

func emptyList() []string { return []string{} }

func loggedInGate() *session.Gate {
	g := session.NewGate()
	g.Login(identity.Identity{Principal: "user-a"})
	return g
}

func TestReadUnauthenticatedSkipsFetch(t *testing.T) {
	fetches := 0
	gate := session.NewGate()
	e := NewEntity("activities", gate, func(context.Context) ([]string, error) {
		fetches++
		return []string{"run"}, nil
	}, emptyList, 0, zap.NewNop())

	got := e.Read(context.Background())
	require.Empty(t, got)
	require.Equal(t, 0, fetches)
}

func TestReadThroughThenHit(t *testing.T) {
	fetches := 0
	e := NewEntity("activities", loggedInGate(), func(context.Context) ([]string, error) {
		fetches++
		return []string{"run", "swim"}, nil
	}, emptyList, 0, zap.NewNop())

	require.Equal(t, []string{"run", "swim"}, e.Read(context.Background()))
	require.Equal(t, []string{"run", "swim"}, e.Read(context.Background()))
	require.Equal(t, 1, fetches)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	fetches := 0
	e := NewEntity("activities", loggedInGate(), func(context.Context) ([]string, error) {
		fetches++
		if fetches == 1 {
			return []string{"old"}, nil
		}
		return []string{"new"}, nil
	}, emptyList, 0, zap.NewNop())

	require.Equal(t, []string{"old"}, e.Read(context.Background()))
	e.Invalidate()
	require.Equal(t, []string{"new"}, e.Read(context.Background()))
	require.Equal(t, 2, fetches)
}

func TestFetchFailureServesEmpty(t *testing.T) {
	fetches := 0
	e := NewEntity("activities", loggedInGate(), func(context.Context) ([]string, error) {
		fetches++
		return nil, errors.New("backend down")
	}, emptyList, 0, zap.NewNop())

	got := e.Read(context.Background())
	require.Empty(t, got)
	require.Equal(t, 1, fetches)

	// The empty value is cached; the failure is not retried on every read.
	e.Read(context.Background())
	require.Equal(t, 1, fetches)
}

func TestConcurrentReadsShareOneFetch(t *testing.T) {
	var fetches int
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	e := NewEntity("activities", loggedInGate(), func(context.Context) ([]string, error) {
		fetches++
		once.Do(func() { close(entered) })
		<-release
		return []string{"run"}, nil
	}, emptyList, 0, zap.NewNop())

	var wg sync.WaitGroup
	results := make([][]string, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Read(context.Background())
		}(i)
	}

	<-entered
	// Give the second reader time to join the in-flight fetch.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, 1, fetches)
	require.Equal(t, []string{"run"}, results[0])
	require.Equal(t, []string{"run"}, results[1])
}

func TestSessionChangeDiscardsInFlightFetch(t *testing.T) {
	gate := loggedInGate()
	fetches := 0

	e := NewEntity("activities", gate, func(context.Context) ([]string, error) {
		fetches++
		if fetches == 1 {
			// The identity switches while the fetch is in flight.
			gate.Login(identity.Identity{Principal: "user-b"})
			return []string{"belongs-to-a"}, nil
		}
		return []string{"belongs-to-b"}, nil
	}, emptyList, 0, zap.NewNop())

	got := e.Read(context.Background())
	require.Empty(t, got, "stale completion must not be handed out")

	// The next read, now on behalf of user-b, re-fetches.
	require.Equal(t, []string{"belongs-to-b"}, e.Read(context.Background()))
	require.Equal(t, 2, fetches)
}

func TestInvalidateDuringFetchPreventsStaleStore(t *testing.T) {
	gate := loggedInGate()
	fetches := 0

	var e *Entity[[]string]
	e = NewEntity("activities", gate, func(context.Context) ([]string, error) {
		fetches++
		if fetches == 1 {
			e.Invalidate()
			return []string{"pre-invalidation"}, nil
		}
		return []string{"post-invalidation"}, nil
	}, emptyList, 0, zap.NewNop())

	// The reader that started the fetch still gets its value.
	require.Equal(t, []string{"pre-invalidation"}, e.Read(context.Background()))

	// But the snapshot was not stored: the next read re-fetches.
	require.Equal(t, []string{"post-invalidation"}, e.Read(context.Background()))
	require.Equal(t, 2, fetches)
}

func TestSessionSwitchInvalidatesStoredValue(t *testing.T) {
	gate := loggedInGate()
	fetches := 0
	e := NewEntity("activities", gate, func(context.Context) ([]string, error) {
		fetches++
		return []string{"data"}, nil
	}, emptyList, 0, zap.NewNop())

	e.Read(context.Background())
	require.Equal(t, 1, fetches)

	gate.Login(identity.Identity{Principal: "user-b"})

	e.Read(context.Background())
	require.Equal(t, 2, fetches, "cached value from the previous identity must not be served")
}

func TestTTLExpiryForcesRefetch(t *testing.T) {
	fetches := 0
	e := NewEntity("activities", loggedInGate(), func(context.Context) ([]string, error) {
		fetches++
		return []string{"data"}, nil
	}, emptyList, 10*time.Millisecond, zap.NewNop())

	e.Read(context.Background())
	time.Sleep(15 * time.Millisecond)
	e.Read(context.Background())
	require.Equal(t, 2, fetches)
}

func TestScalarEntityAbsentDefault(t *testing.T) {
	gate := session.NewGate()
	e := NewEntity("dailyGoal", gate, func(context.Context) (*int64, error) {
		v := int64(500)
		return &v, nil
	}, func() *int64 { return nil }, 0, zap.NewNop())

	require.Nil(t, e.Read(context.Background()))

	gate.Login(identity.Identity{Principal: "user-a"})
	got := e.Read(context.Background())
	require.NotNil(t, got)
	require.Equal(t, int64(500), *got)
}
