// Package kit holds the transport-agnostic request plumbing shared by the
// HTTP and MCP surfaces: the Endpoint function type, middleware chaining,
// and per-request context values.
package kit

import "context"

// Endpoint is one request/response interaction, independent of transport.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behaviour.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares so the first argument is the outermost wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
