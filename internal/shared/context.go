package shared

import (
	"context"

	"github.com/google/uuid"
)

// Roles recognised by the API.
const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

// Actor identifies the caller as asserted by the upstream gateway.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok && actor.ID != uuid.Nil
}
