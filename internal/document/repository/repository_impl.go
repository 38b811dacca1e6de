package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smallbiznis/folio/internal/document/domain"
	"github.com/smallbiznis/folio/pkg/db"
)

type repository struct {
	genID *snowflake.Node
}

func NewRepository(genID *snowflake.Node) domain.Repository {
	return &repository{genID: genID}
}

func (r *repository) Create(ctx context.Context, tx *gorm.DB, doc *domain.Document, lines []domain.Line) error {
	if doc.ID == 0 {
		doc.ID = r.genID.Generate()
	}
	if err := tx.WithContext(ctx).Create(doc).Error; err != nil {
		return err
	}
	return r.insertLines(ctx, tx, doc.ID, lines)
}

func (r *repository) Find(ctx context.Context, dbh *gorm.DB, orgID, id snowflake.ID) (*domain.Document, error) {
	var doc domain.Document
	err := dbh.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *repository) FindLines(ctx context.Context, dbh *gorm.DB, documentID snowflake.ID) ([]domain.Line, error) {
	var lines []domain.Line
	err := dbh.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("line_no ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// ReplaceLines deletes and reinserts the full line set. Draft edits always
// replace wholesale so line numbering restarts from 1.
func (r *repository) ReplaceLines(ctx context.Context, tx *gorm.DB, documentID snowflake.ID, lines []domain.Line) error {
	if err := tx.WithContext(ctx).
		Where("document_id = ?", documentID).
		Delete(&domain.Line{}).Error; err != nil {
		return err
	}
	return r.insertLines(ctx, tx, documentID, lines)
}

func (r *repository) Update(ctx context.Context, tx *gorm.DB, doc *domain.Document) error {
	return tx.WithContext(ctx).Save(doc).Error
}

func (r *repository) UpdateLineReceived(ctx context.Context, tx *gorm.DB, lineID snowflake.ID, received decimal.Decimal) error {
	return tx.WithContext(ctx).
		Model(&domain.Line{}).
		Where("id = ?", lineID).
		Update("received_quantity", received).Error
}

func (r *repository) CreateAllocation(ctx context.Context, tx *gorm.DB, alloc *domain.Allocation) error {
	if alloc.ID == 0 {
		alloc.ID = r.genID.Generate()
	}
	if err := tx.WithContext(ctx).Create(alloc).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ErrAllocationExists
		}
		return err
	}
	return nil
}

func (r *repository) DeleteAllocation(ctx context.Context, tx *gorm.DB, orgID, debitNoteID, billID snowflake.ID) error {
	res := tx.WithContext(ctx).
		Where("org_id = ? AND debit_note_id = ? AND bill_id = ?", orgID, debitNoteID, billID).
		Delete(&domain.Allocation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAllocationMissing
	}
	return nil
}

func (r *repository) SumAllocations(ctx context.Context, dbh *gorm.DB, orgID, debitNoteID snowflake.ID) (decimal.Decimal, error) {
	var raw *string
	err := dbh.WithContext(ctx).
		Model(&domain.Allocation{}).
		Where("org_id = ? AND debit_note_id = ?", orgID, debitNoteID).
		Select("SUM(amount)").
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}

func (r *repository) CountAllocations(ctx context.Context, dbh *gorm.DB, orgID, debitNoteID snowflake.ID) (int64, error) {
	var count int64
	err := dbh.WithContext(ctx).
		Model(&domain.Allocation{}).
		Where("org_id = ? AND debit_note_id = ?", orgID, debitNoteID).
		Count(&count).Error
	return count, err
}

func (r *repository) insertLines(ctx context.Context, tx *gorm.DB, documentID snowflake.ID, lines []domain.Line) error {
	for i := range lines {
		if lines[i].ID == 0 {
			lines[i].ID = r.genID.Generate()
		}
		lines[i].DocumentID = documentID
		lines[i].LineNo = i + 1
		if err := tx.WithContext(ctx).Create(&lines[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
