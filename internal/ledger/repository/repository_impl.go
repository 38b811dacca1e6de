package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	ledgerdomain "github.com/smallbiznis/folio/internal/ledger/domain"
	"github.com/smallbiznis/folio/pkg/db"
)

type repository struct {
	genID *snowflake.Node
}

func NewRepository(genID *snowflake.Node) ledgerdomain.Repository {
	return &repository{genID: genID}
}

func (r *repository) CreateHeader(ctx context.Context, tx *gorm.DB, header *ledgerdomain.GLHeader, lines []ledgerdomain.DraftLine) error {
	if err := ledgerdomain.ValidateBalanced(lines); err != nil {
		return err
	}

	now := time.Now().UTC()
	header.CreatedAt = now

	if err := tx.WithContext(ctx).Create(header).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return ledgerdomain.ErrAlreadyPosted
		}
		return err
	}

	for i, line := range lines {
		glLine := ledgerdomain.GLLine{
			ID:             r.genID.Generate(),
			GLHeaderID:     header.ID,
			LineNo:         i + 1,
			AccountID:      line.AccountID,
			Debit:          line.Debit,
			Credit:         line.Credit,
			TaxCodeID:      line.TaxCodeID,
			CounterpartyID: line.CounterpartyID,
			CreatedAt:      now,
		}
		if err := tx.WithContext(ctx).Create(&glLine).Error; err != nil {
			return err
		}
	}

	return nil
}

func (r *repository) FindBySource(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, sourceType ledgerdomain.SourceType, sourceID snowflake.ID) (*ledgerdomain.GLHeader, error) {
	var header ledgerdomain.GLHeader
	err := tx.WithContext(ctx).
		Where("org_id = ? AND source_type = ? AND source_id = ?", orgID, sourceType, sourceID).
		First(&header).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &header, nil
}

func (r *repository) FindByID(ctx context.Context, tx *gorm.DB, orgID, id snowflake.ID) (*ledgerdomain.GLHeader, error) {
	var header ledgerdomain.GLHeader
	err := tx.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&header).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &header, nil
}

func (r *repository) FindLines(ctx context.Context, tx *gorm.DB, headerID snowflake.ID) ([]ledgerdomain.GLLine, error) {
	var lines []ledgerdomain.GLLine
	err := tx.WithContext(ctx).
		Where("gl_header_id = ?", headerID).
		Order("line_no ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) MarkReversed(ctx context.Context, tx *gorm.DB, headerID, reversalID snowflake.ID) error {
	result := tx.WithContext(ctx).Exec(
		`UPDATE gl_headers SET reversed_by_id = ? WHERE id = ? AND reversed_by_id IS NULL`,
		reversalID,
		headerID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ledgerdomain.ErrAlreadyReversed
	}
	return nil
}
