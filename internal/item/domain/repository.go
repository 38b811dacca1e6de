package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	FindItemsByIDs(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) ([]Item, error)
	FindUnitsByIDs(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) ([]Unit, error)
	CreateItem(ctx context.Context, item *Item) error
	CreateUnit(ctx context.Context, unit *Unit) error
}

// Resolver loads items and units for a calculation pass.
type Resolver interface {
	ResolveItems(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]Item, error)
	ResolveUnits(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]Unit, error)
}
