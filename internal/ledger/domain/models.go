package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// SourceType identifies the document kind that produced a GL header. A
// reversal header's source is the header it negates, so the per-source
// uniqueness constraint holds for originals and reversals alike.
type SourceType string

const (
	SourceTypeBill      SourceType = "bill"
	SourceTypeDebitNote SourceType = "debit_note"
	SourceTypeJournal   SourceType = "journal"
	SourceTypeReversal  SourceType = "reversal"
)

// GLHeader is the immutable double-entry transaction created by posting a
// document. Headers are never updated except to record the ID of the single
// header that reverses them.
type GLHeader struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	OrgID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_gl_headers_source,priority:1"`

	SourceType SourceType   `gorm:"type:text;not null;uniqueIndex:ux_gl_headers_source,priority:2"`
	SourceID   snowflake.ID `gorm:"not null;uniqueIndex:ux_gl_headers_source,priority:3"`

	Number          string    `gorm:"type:text;not null"`
	Currency        string    `gorm:"type:text;not null"`
	TransactionDate time.Time `gorm:"not null"`
	Memo            string    `gorm:"type:text"`

	TotalDebit  decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	TotalCredit decimal.Decimal `gorm:"type:numeric(20,6);not null"`

	// ReversedByID is set exactly once, on the original header, when a
	// reversal posts. ReversalOfID marks the reversal itself.
	ReversedByID *snowflake.ID `gorm:"index"`
	ReversalOfID *snowflake.ID `gorm:"index"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (GLHeader) TableName() string { return "gl_headers" }

// GLLine is one side of a double entry. Exactly one of Debit/Credit is
// strictly positive; the other is zero.
type GLLine struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	GLHeaderID snowflake.ID `gorm:"not null;index"`
	LineNo     int          `gorm:"not null"`

	AccountID snowflake.ID `gorm:"not null;index"`

	Debit  decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	Credit decimal.Decimal `gorm:"type:numeric(20,6);not null"`

	// TaxCodeID traces VAT postings back to the originating code.
	TaxCodeID *snowflake.ID `gorm:"index"`
	// CounterpartyID carries the vendor/customer on control-account lines
	// for subledger reporting.
	CounterpartyID *snowflake.ID `gorm:"index"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (GLLine) TableName() string { return "gl_lines" }

// DraftLine is an unpersisted posting line, produced by the builder or
// entered directly on a journal, and checked by ValidateBalanced before any
// write happens.
type DraftLine struct {
	AccountID      snowflake.ID
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	TaxCodeID      *snowflake.ID
	CounterpartyID *snowflake.ID
}

// Reversed returns the draft lines that negate the given persisted lines:
// same accounts and amounts with debit and credit swapped, in the original
// order.
func Reversed(lines []GLLine) []DraftLine {
	reversed := make([]DraftLine, 0, len(lines))
	for _, line := range lines {
		reversed = append(reversed, DraftLine{
			AccountID:      line.AccountID,
			Debit:          line.Credit,
			Credit:         line.Debit,
			TaxCodeID:      line.TaxCodeID,
			CounterpartyID: line.CounterpartyID,
		})
	}
	return reversed
}
