package fallback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirst_FirstSuccessWins(t *testing.T) {
	calls := 0
	out := First(context.Background(), 0,
		New("a", func(context.Context) (int, error) { calls++; return 0, errors.New("a down") }),
		New("b", func(context.Context) (int, error) { calls++; return 2, nil }),
		New("c", func(context.Context) (int, error) { calls++; return 3, nil }),
	)

	require.True(t, out.OK())
	assert.Equal(t, 2, out.Value)
	assert.Equal(t, "b", out.Source)
	assert.Equal(t, 2, calls, "c must not run after b succeeded")
	require.Len(t, out.Attempts, 2)
	assert.EqualError(t, out.Attempts[0].Err, "a down")
	assert.Len(t, out.Failures(), 1)
	assert.NoError(t, out.Err())
}

func TestFirst_Exhausted(t *testing.T) {
	out := First(context.Background(), 0,
		New("a", func(context.Context) (string, error) { return "", errors.New("a down") }),
		New("b", func(context.Context) (string, error) { return "", errors.New("b down") }),
	)

	assert.False(t, out.OK())
	assert.Empty(t, out.Source)
	err := out.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Contains(t, err.Error(), "b down")
}

func TestFirst_NoStrategies(t *testing.T) {
	out := First[int](context.Background(), 0)
	assert.False(t, out.OK())
	assert.ErrorIs(t, out.Err(), ErrExhausted)
}

func TestFirst_PerTryTimeout(t *testing.T) {
	out := First(context.Background(), 20*time.Millisecond,
		New("slow", func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		}),
		New("fast", func(context.Context) (int, error) { return 7, nil }),
	)

	require.True(t, out.OK())
	assert.Equal(t, "fast", out.Source)
	assert.ErrorIs(t, out.Attempts[0].Err, context.DeadlineExceeded)
}

func TestFirst_CancelledParentStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	out := First(ctx, 0, New("a", func(context.Context) (int, error) { ran = true; return 1, nil }))

	assert.False(t, ran)
	assert.False(t, out.OK())
	assert.ErrorIs(t, out.Err(), context.Canceled)
}

func TestFirst_PanicAndNilRunDegrade(t *testing.T) {
	out := First(context.Background(), 0,
		Strategy[int]{Name: "nil"},
		New("boom", func(context.Context) (int, error) { panic("kaput") }),
		New("ok", func(context.Context) (int, error) { return 1, nil }),
	)

	require.True(t, out.OK())
	assert.Equal(t, "ok", out.Source)
	require.Len(t, out.Failures(), 2)
	assert.Contains(t, out.Failures()[1].Err.Error(), "kaput")
}
