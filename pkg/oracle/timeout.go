package oracle

import (
	"context"
	"errors"
	"time"
)

// WithTimeout returns middleware that bounds each completion call. A timed
// out call surfaces as a transient classified error so callers treat it the
// same way as any other recoverable provider failure.
func WithTimeout(d time.Duration) Middleware {
	return func(next Completer) Completer {
		return Wrap(
			func(ctx context.Context, in Request) (Response, error) {
				callCtx, cancel := context.WithTimeout(ctx, d)
				defer cancel()

				resp, err := next.Complete(callCtx, in)
				if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
					return Response{}, NewError(ErrorTypeTransient, "completion timed out after %s", d)
				}
				return resp, err
			},
			next.ModelName,
		)
	}
}
