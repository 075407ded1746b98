package oracle

import (
	"context"
	"time"
)

// Recorder receives completion observations. Implemented by pkg/metrics;
// declared here so the middleware does not depend on Prometheus directly.
type Recorder interface {
	ObserveCompletion(model, agentID string, promptChars, completionChars int, success bool, errorType string, duration time.Duration)
}

// AgentIDContextKey carries the calling agent's ID through oracle calls so
// the metrics middleware can label observations.
type contextKey string

// AgentIDContextKey is the context key for the calling agent's ID.
const AgentIDContextKey contextKey = "oracle.agent_id"

// WithMetrics returns middleware that records every completion call.
func WithMetrics(rec Recorder) Middleware {
	return func(next Completer) Completer {
		return Wrap(
			func(ctx context.Context, in Request) (Response, error) {
				start := time.Now()
				resp, err := next.Complete(ctx, in)
				duration := time.Since(start)

				agentID, _ := ctx.Value(AgentIDContextKey).(string)
				promptChars := 0
				for i := range in.Messages {
					promptChars += len(in.Messages[i].Content)
				}

				errType := ""
				if err != nil {
					errType = TypeOf(err).String()
				}
				rec.ObserveCompletion(next.ModelName(), agentID, promptChars, len(resp.Content), err == nil, errType, duration)

				return resp, err
			},
			next.ModelName,
		)
	}
}
