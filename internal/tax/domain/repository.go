package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	FindByIDs(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) ([]TaxCode, error)
	Create(ctx context.Context, code *TaxCode) error
	List(ctx context.Context, orgID snowflake.ID) ([]TaxCode, error)
}

// Resolver returns tax codes keyed by ID. Missing codes fail hard; activity
// is checked by the line calculator because an inactive explicit code and an
// inactive default behave the same way.
type Resolver interface {
	ResolveByIDs(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]TaxCode, error)
}
