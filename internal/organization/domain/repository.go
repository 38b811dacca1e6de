package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Get(ctx context.Context, id snowflake.ID) (*Organization, error)
	Create(ctx context.Context, org *Organization) error
	Update(ctx context.Context, org *Organization) error
}
