package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	inventorydomain "github.com/smallbiznis/folio/internal/inventory/domain"
)

// LineRequest is one raw input row. Bills, debit notes, and purchase orders
// use the quantity/price/discount fields; journals use the debit/credit pair.
type LineRequest struct {
	AccountID   snowflake.ID  `json:"account_id"`
	ItemID      *snowflake.ID `json:"item_id,omitempty"`
	TaxCodeID   *snowflake.ID `json:"tax_code_id,omitempty"`
	UnitID      *snowflake.ID `json:"unit_id,omitempty"`
	Description string        `json:"description,omitempty"`

	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`

	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

type CreateRequest struct {
	IdempotencyKey string `json:"-"`

	Type           Type          `json:"type"`
	CounterpartyID *snowflake.ID `json:"counterparty_id,omitempty"`
	Currency       string        `json:"currency,omitempty"`
	DocumentDate   time.Time     `json:"document_date"`
	Memo           string        `json:"memo,omitempty"`
	Lines          []LineRequest `json:"lines"`
}

type UpdateDraftRequest struct {
	DocumentID snowflake.ID `json:"document_id"`

	DocumentDate time.Time     `json:"document_date"`
	Memo         string        `json:"memo,omitempty"`
	Lines        []LineRequest `json:"lines"`
}

type PostRequest struct {
	IdempotencyKey string `json:"-"`

	DocumentID snowflake.ID `json:"document_id"`

	// Negative-stock override under the BLOCK policy. OverridePermitted is
	// set by the caller from its permission check, never by clients.
	OverrideRequested bool   `json:"override_requested,omitempty"`
	OverridePermitted bool   `json:"-"`
	OverrideReason    string `json:"override_reason,omitempty"`
}

type VoidRequest struct {
	IdempotencyKey string `json:"-"`

	DocumentID snowflake.ID `json:"document_id"`
	Reason     string       `json:"reason,omitempty"`
}

type ApplyRequest struct {
	IdempotencyKey string `json:"-"`

	DebitNoteID snowflake.ID    `json:"debit_note_id"`
	BillID      snowflake.ID    `json:"bill_id"`
	Amount      decimal.Decimal `json:"amount"`
}

type UnapplyRequest struct {
	IdempotencyKey string `json:"-"`

	DebitNoteID snowflake.ID `json:"debit_note_id"`
	BillID      snowflake.ID `json:"bill_id"`
}

// ReceiveLine records received quantity against a purchase-order line, in
// the item's base unit.
type ReceiveLine struct {
	LineNo   int             `json:"line_no"`
	Quantity decimal.Decimal `json:"quantity"`
}

type ReceiveRequest struct {
	IdempotencyKey string `json:"-"`

	DocumentID snowflake.ID  `json:"document_id"`
	ReceivedAt time.Time     `json:"received_at"`
	Lines      []ReceiveLine `json:"lines"`
}

// View is the read model returned by every lifecycle operation.
type View struct {
	ID     snowflake.ID `json:"id"`
	Type   Type         `json:"type"`
	Status Status       `json:"status"`
	Number *string      `json:"number,omitempty"`

	CounterpartyID *snowflake.ID `json:"counterparty_id,omitempty"`
	Currency       string        `json:"currency"`
	DocumentDate   time.Time     `json:"document_date"`
	Memo           string        `json:"memo,omitempty"`

	SubTotal decimal.Decimal `json:"sub_total"`
	TaxTotal decimal.Decimal `json:"tax_total"`
	Total    decimal.Decimal `json:"total"`

	GLHeaderID         *snowflake.ID `json:"gl_header_id,omitempty"`
	ReversalGLHeaderID *snowflake.ID `json:"reversal_gl_header_id,omitempty"`
	VoidReason         *string       `json:"void_reason,omitempty"`

	Lines []Line `json:"lines"`
}

// PostResult carries the posted view plus any negative-stock warnings the
// policy downgraded instead of blocking.
type PostResult struct {
	Document View                      `json:"document"`
	Warnings []inventorydomain.Warning `json:"warnings,omitempty"`
}

type VoidResult struct {
	Document           View         `json:"document"`
	ReversalGLHeaderID snowflake.ID `json:"reversal_gl_header_id"`
}

type ApplyResult struct {
	AllocationID snowflake.ID    `json:"allocation_id"`
	DebitNoteID  snowflake.ID    `json:"debit_note_id"`
	BillID       snowflake.ID    `json:"bill_id"`
	Amount       decimal.Decimal `json:"amount"`
	Unallocated  decimal.Decimal `json:"unallocated"`
}

type ReceiveResult struct {
	Document View `json:"document"`
}

// Service is the document lifecycle controller. Every mutation runs in one
// transaction; org and actor ride on the context.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*View, error)
	UpdateDraft(ctx context.Context, req UpdateDraftRequest) (*View, error)
	Get(ctx context.Context, documentID snowflake.ID) (*View, error)

	Post(ctx context.Context, req PostRequest) (*PostResult, error)
	Void(ctx context.Context, req VoidRequest) (*VoidResult, error)

	Apply(ctx context.Context, req ApplyRequest) (*ApplyResult, error)
	Unapply(ctx context.Context, req UnapplyRequest) error

	// Purchase-order transitions. Submit assigns the PO number.
	Submit(ctx context.Context, documentID snowflake.ID) (*View, error)
	Approve(ctx context.Context, documentID snowflake.ID) (*View, error)
	Send(ctx context.Context, documentID snowflake.ID) (*View, error)
	Receive(ctx context.Context, req ReceiveRequest) (*ReceiveResult, error)
	Close(ctx context.Context, documentID snowflake.ID) (*View, error)
	Cancel(ctx context.Context, documentID snowflake.ID) (*View, error)
}

// Repository persists document headers, lines, and allocations. Mutating
// methods take the caller's transaction handle.
type Repository interface {
	Create(ctx context.Context, tx *gorm.DB, doc *Document, lines []Line) error
	Find(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Document, error)
	FindLines(ctx context.Context, db *gorm.DB, documentID snowflake.ID) ([]Line, error)
	ReplaceLines(ctx context.Context, tx *gorm.DB, documentID snowflake.ID, lines []Line) error
	Update(ctx context.Context, tx *gorm.DB, doc *Document) error
	UpdateLineReceived(ctx context.Context, tx *gorm.DB, lineID snowflake.ID, received decimal.Decimal) error

	CreateAllocation(ctx context.Context, tx *gorm.DB, alloc *Allocation) error
	DeleteAllocation(ctx context.Context, tx *gorm.DB, orgID, debitNoteID, billID snowflake.ID) error
	SumAllocations(ctx context.Context, db *gorm.DB, orgID, debitNoteID snowflake.ID) (decimal.Decimal, error)
	CountAllocations(ctx context.Context, db *gorm.DB, orgID, debitNoteID snowflake.ID) (int64, error)
}
