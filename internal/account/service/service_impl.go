package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/folio/internal/account/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log  *zap.Logger
	Repo accountdomain.Repository
}

type resolver struct {
	log  *zap.Logger
	repo accountdomain.Repository
}

func NewResolver(p Params) accountdomain.Resolver {
	return &resolver{
		log:  p.Log.Named("account.resolver"),
		repo: p.Repo,
	}
}

// ResolveActive loads the requested accounts and fails on the first missing
// or inactive one. Accounts can be deactivated between draft and post, so
// posting always goes through this even when the draft was valid.
func (r *resolver) ResolveActive(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]accountdomain.Account, error) {
	unique := make([]snowflake.ID, 0, len(ids))
	seen := make(map[snowflake.ID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	accounts, err := r.repo.FindByIDs(ctx, orgID, unique)
	if err != nil {
		return nil, err
	}

	resolved := make(map[snowflake.ID]accountdomain.Account, len(accounts))
	for _, acc := range accounts {
		resolved[acc.ID] = acc
	}

	for _, id := range unique {
		acc, ok := resolved[id]
		if !ok {
			return nil, &accountdomain.MissingError{AccountID: id}
		}
		if !acc.IsActive {
			return nil, &accountdomain.InactiveError{AccountID: id, Code: acc.Code}
		}
	}

	return resolved, nil
}
