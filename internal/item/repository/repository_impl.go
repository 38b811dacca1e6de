package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	itemdomain "github.com/smallbiznis/folio/internal/item/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) itemdomain.Repository {
	return &repository{db: db}
}

func (r *repository) FindItemsByIDs(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) ([]itemdomain.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []itemdomain.Item
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id IN ?", orgID, ids).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindUnitsByIDs(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) ([]itemdomain.Unit, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var units []itemdomain.Unit
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id IN ?", orgID, ids).
		Find(&units).Error
	if err != nil {
		return nil, err
	}
	return units, nil
}

func (r *repository) CreateItem(ctx context.Context, item *itemdomain.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) CreateUnit(ctx context.Context, unit *itemdomain.Unit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}
