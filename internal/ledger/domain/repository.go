package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists GL headers and lines. Every method takes the caller's
// transaction handle: ledger writes are always part of a larger document
// transaction and must commit or roll back with it.
type Repository interface {
	// CreateHeader inserts the header and its lines. A second insert for the
	// same (org, source type, source id) fails with ErrAlreadyPosted.
	CreateHeader(ctx context.Context, tx *gorm.DB, header *GLHeader, lines []DraftLine) error

	FindBySource(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, sourceType SourceType, sourceID snowflake.ID) (*GLHeader, error)

	FindByID(ctx context.Context, tx *gorm.DB, orgID, id snowflake.ID) (*GLHeader, error)

	FindLines(ctx context.Context, tx *gorm.DB, headerID snowflake.ID) ([]GLLine, error)

	// MarkReversed links the original header to its reversal exactly once.
	MarkReversed(ctx context.Context, tx *gorm.DB, headerID, reversalID snowflake.ID) error
}
