// Package ctxutil carries request-scoped values that every layer may read.
// It has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

type actorKey struct{}

// WithActor returns a context carrying the external id of the caller.
// Services fall back to it when a request names no actor.
func WithActor(ctx context.Context, externalID string) context.Context {
	return context.WithValue(ctx, actorKey{}, externalID)
}

// ActorFromContext returns the caller's external id, or "" if not set.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok {
		return v
	}
	return ""
}
