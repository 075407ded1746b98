package oracle

import (
	"context"
)

// WithFallback returns middleware that retries a failed completion against a
// secondary client. The secondary is typically a cheaper, lower-temperature
// model; it is consulted only after the primary (including its own retry
// middleware) has given up. Auth and bad-prompt errors on the primary still
// fall through, since a different provider may accept the same request.
func WithFallback(secondary Completer, logf func(format string, args ...any)) Middleware {
	return func(next Completer) Completer {
		return Wrap(
			func(ctx context.Context, in Request) (Response, error) {
				resp, err := next.Complete(ctx, in)
				if err == nil {
					return resp, nil
				}
				if ctx.Err() != nil {
					return Response{}, err
				}

				if logf != nil {
					logf("primary model %s failed (%s), falling back to %s",
						next.ModelName(), TypeOf(err), secondary.ModelName())
				}

				fbIn := in
				// Fallback runs deterministic to maximize the chance of
				// well-formed output on the second try.
				fbIn.Temperature = 0
				return secondary.Complete(ctx, fbIn)
			},
			next.ModelName,
		)
	}
}
