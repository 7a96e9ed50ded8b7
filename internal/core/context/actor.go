// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// ActorContext carries the authenticated actor resolved by the HTTP layer.
// Orchestrator mutations take the actor id as an explicit parameter; this
// context form exists only for logging and audit enrichment.
type ActorContext struct {
	ActorID string
	Email   string
}

type actorContextKey struct{}

// WithActor adds ActorContext to context.
func WithActor(ctx context.Context, actor *ActorContext) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns ActorContext from context, or nil.
func GetActor(ctx context.Context) *ActorContext {
	if v, ok := ctx.Value(actorContextKey{}).(*ActorContext); ok {
		return v
	}
	return nil
}

// GetActorID returns the actor id from context or empty string.
func GetActorID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil {
		return a.ActorID
	}
	return ""
}
