package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	orgdomain "github.com/smallbiznis/folio/internal/organization/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) orgdomain.Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id snowflake.ID) (*orgdomain.Organization, error) {
	var org orgdomain.Organization
	err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orgdomain.ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (r *repository) Create(ctx context.Context, org *orgdomain.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *repository) Update(ctx context.Context, org *orgdomain.Organization) error {
	return r.db.WithContext(ctx).Save(org).Error
}
