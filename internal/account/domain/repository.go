package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	FindByIDs(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) ([]Account, error)
	Create(ctx context.Context, account *Account) error
	List(ctx context.Context, orgID snowflake.ID) ([]Account, error)
}

// Resolver returns active accounts keyed by ID, failing hard on any missing
// or deactivated account.
type Resolver interface {
	ResolveActive(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]Account, error)
}
