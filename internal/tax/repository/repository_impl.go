package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/folio/internal/tax/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) taxdomain.Repository {
	return &repository{db: db}
}

func (r *repository) FindByIDs(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) ([]taxdomain.TaxCode, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var codes []taxdomain.TaxCode
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id IN ?", orgID, ids).
		Find(&codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *repository) Create(ctx context.Context, code *taxdomain.TaxCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *repository) List(ctx context.Context, orgID snowflake.ID) ([]taxdomain.TaxCode, error) {
	var codes []taxdomain.TaxCode
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("code ASC").
		Find(&codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}
