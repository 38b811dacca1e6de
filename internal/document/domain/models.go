package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Type enumerates the document kinds that flow through the lifecycle
// controller. Bills and debit notes post through the line builder, journals
// post user-entered lines directly, purchase orders never post to the GL.
type Type string

const (
	TypeBill          Type = "bill"
	TypeDebitNote     Type = "debit_note"
	TypeJournal       Type = "journal"
	TypePurchaseOrder Type = "purchase_order"
)

// Status is the document state. Bills, debit notes, and journals move
// DRAFT → POSTED → VOID; purchase orders have their own pre-post states.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusPosted Status = "posted"
	StatusVoid   Status = "void"

	// Purchase-order states.
	StatusPendingApproval   Status = "pending_approval"
	StatusApproved          Status = "approved"
	StatusSent              Status = "sent"
	StatusPartiallyReceived Status = "partially_received"
	StatusReceived          Status = "received"
	StatusClosed            Status = "closed"
	StatusCancelled         Status = "cancelled"
)

// Document is the mutable header. While DRAFT the creator may replace lines
// freely; once POSTED only status and void metadata ever change.
type Document struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	OrgID snowflake.ID `gorm:"not null;index"`

	Type   Type   `gorm:"type:text;not null;index"`
	Status Status `gorm:"type:text;not null;index"`

	// Number is assigned exactly once, at post time (submit time for
	// purchase orders), from the per-org per-type sequence.
	Number *string `gorm:"type:text"`

	// CounterpartyID is the vendor (bills, debit notes, purchase orders).
	CounterpartyID *snowflake.ID `gorm:"index"`

	Currency     string    `gorm:"type:text;not null"`
	DocumentDate time.Time `gorm:"not null"`
	Memo         string    `gorm:"type:text"`

	SubTotal decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	TaxTotal decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	Total    decimal.Decimal `gorm:"type:numeric(20,6);not null"`

	GLHeaderID         *snowflake.ID `gorm:"index"`
	ReversalGLHeaderID *snowflake.ID `gorm:"index"`

	VoidReason *string    `gorm:"type:text"`
	PostedAt   *time.Time `gorm:""`
	VoidedAt   *time.Time `gorm:""`

	CreatedBy snowflake.ID `gorm:"not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Document) TableName() string { return "documents" }

// Line is one document row. Quantity/price/discount drive bills, debit
// notes, and purchase orders; journals use the Debit/Credit pair instead.
// Calculated fields (BaseQuantity, LineSubTotal, LineTax, LineTotal) are
// derived by the calculator and replaced wholesale on every draft edit;
// LineNo renumbers from 1 on each replace.
type Line struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	DocumentID snowflake.ID `gorm:"not null;index"`
	LineNo     int          `gorm:"not null"`

	AccountID snowflake.ID  `gorm:"not null"`
	ItemID    *snowflake.ID `gorm:"index"`
	TaxCodeID *snowflake.ID `gorm:"index"`
	UnitID    *snowflake.ID `gorm:""`

	Description string `gorm:"type:text"`

	Quantity  decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	Discount  decimal.Decimal `gorm:"type:numeric(20,6);not null"`

	// BaseQuantity is Quantity converted into the item's base unit (4 dp).
	BaseQuantity decimal.Decimal `gorm:"type:numeric(20,4);not null"`

	LineSubTotal decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	LineTax      decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	LineTotal    decimal.Decimal `gorm:"type:numeric(20,6);not null"`

	// Journal-only: user-entered sides.
	Debit  decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	Credit decimal.Decimal `gorm:"type:numeric(20,6);not null"`

	// Purchase-order-only: received so far, in base units.
	ReceivedQuantity decimal.Decimal `gorm:"type:numeric(20,4);not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Line) TableName() string { return "document_lines" }

// Allocation applies a posted debit note against a posted bill. Open
// allocations block voiding the debit note until unapplied.
type Allocation struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	OrgID snowflake.ID `gorm:"not null;index"`

	DebitNoteID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_allocations_pair,priority:1"`
	BillID      snowflake.ID `gorm:"not null;index;uniqueIndex:ux_allocations_pair,priority:2"`

	Amount decimal.Decimal `gorm:"type:numeric(20,6);not null"`

	CreatedBy snowflake.ID `gorm:"not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Allocation) TableName() string { return "document_allocations" }
