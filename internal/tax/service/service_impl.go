package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/folio/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log  *zap.Logger
	Repo taxdomain.Repository
}

type resolver struct {
	log  *zap.Logger
	repo taxdomain.Repository
}

func NewResolver(p Params) taxdomain.Resolver {
	return &resolver{
		log:  p.Log.Named("tax.resolver"),
		repo: p.Repo,
	}
}

func (r *resolver) ResolveByIDs(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]taxdomain.TaxCode, error) {
	unique := make([]snowflake.ID, 0, len(ids))
	seen := make(map[snowflake.ID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	codes, err := r.repo.FindByIDs(ctx, orgID, unique)
	if err != nil {
		return nil, err
	}

	resolved := make(map[snowflake.ID]taxdomain.TaxCode, len(codes))
	for _, code := range codes {
		resolved[code.ID] = code
	}

	for _, id := range unique {
		if _, ok := resolved[id]; !ok {
			return nil, taxdomain.ErrNotFound
		}
	}

	return resolved, nil
}
