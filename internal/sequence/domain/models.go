package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Counter is the per-org, per-document-type monotonic posting counter.
type Counter struct {
	OrgID snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	// DocType is the document type the counter numbers (bill, journal, ...).
	DocType string `gorm:"primaryKey;type:text"`

	Prefix     string `gorm:"type:text;not null"`
	NextNumber int64  `gorm:"not null;default:1"`
}

func (Counter) TableName() string { return "document_sequences" }

// Allocator hands out the next formatted posting number. Allocation happens
// inside the caller's transaction so an aborted post never burns a number
// visible to committed history.
type Allocator interface {
	Next(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, docType, defaultPrefix string) (string, error)
}
