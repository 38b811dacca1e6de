// Package orgcontext carries the active tenant through request contexts.
// The engine never reads ambient globals; handlers stamp the context once
// and every service call receives it explicitly.
package orgcontext

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type orgKey struct{}
type actorKey struct{}

// WithOrgID stores the organization ID in the context.
func WithOrgID(ctx context.Context, orgID snowflake.ID) context.Context {
	return context.WithValue(ctx, orgKey{}, orgID)
}

// OrgIDFromContext returns the organization ID from context, if set.
func OrgIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(orgKey{}).(snowflake.ID)
	return id, ok
}

// WithActorID stores the acting user ID in the context.
func WithActorID(ctx context.Context, actorID snowflake.ID) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorIDFromContext returns the acting user ID from context, if set.
func ActorIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(actorKey{}).(snowflake.ID)
	return id, ok
}
