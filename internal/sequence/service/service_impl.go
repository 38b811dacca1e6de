package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	seqdomain "github.com/smallbiznis/folio/internal/sequence/domain"
)

type Params struct {
	fx.In

	Log *zap.Logger
}

type allocator struct {
	log *zap.Logger
}

func NewAllocator(p Params) seqdomain.Allocator {
	return &allocator{log: p.Log.Named("sequence.allocator")}
}

// Next seeds the counter on first use, bumps it, and reads the bumped value
// back. All three statements run on the caller's transaction, so concurrent
// posts for the same org serialize on the counter row.
func (a *allocator) Next(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, docType, defaultPrefix string) (string, error) {
	if err := tx.WithContext(ctx).Exec(
		`INSERT INTO document_sequences (org_id, doc_type, prefix, next_number)
		 VALUES (?, ?, ?, 1)
		 ON CONFLICT (org_id, doc_type) DO NOTHING`,
		orgID,
		docType,
		defaultPrefix,
	).Error; err != nil {
		return "", err
	}

	if err := tx.WithContext(ctx).Exec(
		`UPDATE document_sequences SET next_number = next_number + 1
		 WHERE org_id = ? AND doc_type = ?`,
		orgID,
		docType,
	).Error; err != nil {
		return "", err
	}

	var counter seqdomain.Counter
	if err := tx.WithContext(ctx).
		Where("org_id = ? AND doc_type = ?", orgID, docType).
		First(&counter).Error; err != nil {
		return "", err
	}

	number := counter.NextNumber - 1
	return fmt.Sprintf("%s-%05d", counter.Prefix, number), nil
}
