package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/folio/internal/account/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) accountdomain.Repository {
	return &repository{db: db}
}

func (r *repository) FindByIDs(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) ([]accountdomain.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var accounts []accountdomain.Account
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id IN ?", orgID, ids).
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repository) Create(ctx context.Context, account *accountdomain.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repository) List(ctx context.Context, orgID snowflake.ID) ([]accountdomain.Account, error) {
	var accounts []accountdomain.Account
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("code ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}
