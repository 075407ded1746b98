package oracle

import "context"

// Middleware wraps a Completer with additional behavior. Middlewares are
// composed with Chain to build the processing pipeline around a raw
// provider client.
type Middleware func(next Completer) Completer

// completerFunc adapts plain functions to the Completer interface.
type completerFunc struct {
	complete  func(context.Context, Request) (Response, error)
	modelName func() string
}

func (f completerFunc) Complete(ctx context.Context, in Request) (Response, error) {
	return f.complete(ctx, in)
}

func (f completerFunc) ModelName() string {
	return f.modelName()
}

// Wrap creates a Completer from the provided function implementations.
// Helper for middleware implementations.
func Wrap(
	complete func(context.Context, Request) (Response, error),
	modelName func() string,
) Completer {
	return completerFunc{complete: complete, modelName: modelName}
}

// Chain composes middlewares around a base Completer. Middlewares are
// applied in order, earlier middlewares outermost:
//
//	Chain(client, mw1, mw2) -> mw1(mw2(client))
func Chain(base Completer, middlewares ...Middleware) Completer {
	client := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		client = middlewares[i](client)
	}
	return client
}
