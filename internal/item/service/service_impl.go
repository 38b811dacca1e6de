package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	itemdomain "github.com/smallbiznis/folio/internal/item/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log  *zap.Logger
	Repo itemdomain.Repository
}

type resolver struct {
	log  *zap.Logger
	repo itemdomain.Repository
}

func NewResolver(p Params) itemdomain.Resolver {
	return &resolver{
		log:  p.Log.Named("item.resolver"),
		repo: p.Repo,
	}
}

func (r *resolver) ResolveItems(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]itemdomain.Item, error) {
	unique := dedupe(ids)
	items, err := r.repo.FindItemsByIDs(ctx, orgID, unique)
	if err != nil {
		return nil, err
	}

	resolved := make(map[snowflake.ID]itemdomain.Item, len(items))
	for _, item := range items {
		resolved[item.ID] = item
	}
	for _, id := range unique {
		if _, ok := resolved[id]; !ok {
			return nil, itemdomain.ErrItemNotFound
		}
	}
	return resolved, nil
}

func (r *resolver) ResolveUnits(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]itemdomain.Unit, error) {
	unique := dedupe(ids)
	units, err := r.repo.FindUnitsByIDs(ctx, orgID, unique)
	if err != nil {
		return nil, err
	}

	resolved := make(map[snowflake.ID]itemdomain.Unit, len(units))
	for _, unit := range units {
		resolved[unit.ID] = unit
	}
	for _, id := range unique {
		if _, ok := resolved[id]; !ok {
			return nil, itemdomain.ErrUnitNotFound
		}
	}
	return resolved, nil
}

func dedupe(ids []snowflake.ID) []snowflake.ID {
	unique := make([]snowflake.ID, 0, len(ids))
	seen := make(map[snowflake.ID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
