package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var order []string

	tag := func(name string) Middleware {
		return func(next Completer) Completer {
			return Wrap(
				func(ctx context.Context, in Request) (Response, error) {
					order = append(order, name)
					return next.Complete(ctx, in)
				},
				next.ModelName,
			)
		}
	}

	client := Chain(NewScriptedClient("ok"), tag("outer"), tag("inner"))
	_, err := client.Complete(context.Background(), NewRequest(UserMessage("hi")))
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestChainPreservesModelName(t *testing.T) {
	client := Chain(NewScriptedClient("ok"), WithRetry(DefaultRetryConfig), WithTimeout(time.Second))
	assert.Equal(t, "mock-model", client.ModelName())
}

func TestRetryRecoversFromTransient(t *testing.T) {
	mock := NewMockClient(
		[]Response{{}, {Content: "recovered", StopReason: "end_turn"}},
		[]error{NewError(ErrorTypeTransient, "blip"), nil},
	)

	cfg := DefaultRetryConfig
	cfg.InitialDelay = time.Millisecond
	cfg.Jitter = false

	client := Chain(mock, WithRetry(cfg))
	resp, err := client.Complete(context.Background(), NewRequest(UserMessage("hi")))
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Content)
	assert.Equal(t, 2, mock.Calls())
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	mock := NewMockClient(nil, []error{NewError(ErrorTypeAuth, "bad key")})

	cfg := DefaultRetryConfig
	cfg.InitialDelay = time.Millisecond

	client := Chain(mock, WithRetry(cfg))
	_, err := client.Complete(context.Background(), NewRequest(UserMessage("hi")))
	require.Error(t, err)
	assert.Equal(t, ErrorTypeAuth, TypeOf(err))
	assert.Equal(t, 1, mock.Calls())
}

func TestRetryExhaustsAttempts(t *testing.T) {
	rateLimited := NewError(ErrorTypeRateLimit, "429")
	mock := NewMockClient(nil, []error{rateLimited, rateLimited, rateLimited, rateLimited})

	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}

	client := Chain(mock, WithRetry(cfg))
	_, err := client.Complete(context.Background(), NewRequest(UserMessage("hi")))
	require.Error(t, err)
	assert.Equal(t, 4, mock.Calls())
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	mock := NewMockClient(nil, []error{
		NewError(ErrorTypeTransient, "blip"),
		NewError(ErrorTypeTransient, "blip"),
	})

	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Hour, MaxDelay: time.Hour, BackoffFactor: 1}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	client := Chain(mock, WithRetry(cfg))
	_, err := client.Complete(ctx, NewRequest(UserMessage("hi")))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, mock.Calls())
}

func TestFallbackUsedAfterPrimaryFailure(t *testing.T) {
	primary := NewMockClient(nil, []error{NewError(ErrorTypeTransient, "primary down")})
	secondary := NewScriptedClient("from fallback")

	client := Chain(primary, WithFallback(secondary, nil))
	req := NewRequest(UserMessage("hi"))
	req.Temperature = 0.8

	resp, err := client.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "from fallback", resp.Content)

	// Fallback requests run deterministic.
	fbReqs := secondary.Requests()
	require.Len(t, fbReqs, 1)
	assert.Zero(t, fbReqs[0].Temperature)
}

func TestFallbackNotUsedOnSuccess(t *testing.T) {
	primary := NewScriptedClient("primary ok")
	secondary := NewScriptedClient("from fallback")

	client := Chain(primary, WithFallback(secondary, nil))
	resp, err := client.Complete(context.Background(), NewRequest(UserMessage("hi")))
	require.NoError(t, err)
	assert.Equal(t, "primary ok", resp.Content)
	assert.Equal(t, 0, secondary.Calls())
}

func TestTimeoutMapsToTransient(t *testing.T) {
	slow := Wrap(
		func(ctx context.Context, _ Request) (Response, error) {
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(time.Second):
				return Response{Content: "too late"}, nil
			}
		},
		func() string { return "slow-model" },
	)

	client := Chain(slow, WithTimeout(5*time.Millisecond))
	_, err := client.Complete(context.Background(), NewRequest(UserMessage("hi")))
	require.Error(t, err)
	assert.Equal(t, ErrorTypeTransient, TypeOf(err))
	assert.True(t, IsRetryable(err))
}
