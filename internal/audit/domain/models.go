package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Actions recorded by the posting engine. Blocked attempts are recorded too:
// lock-date rejections and negative-stock blocks leave an entry even though
// the document transaction rolled back.
const (
	ActionDocumentCreated  = "document.created"
	ActionDocumentUpdated  = "document.updated"
	ActionDocumentPosted   = "document.posted"
	ActionDocumentVoided   = "document.voided"
	ActionPostBlocked      = "document.post_blocked"
	ActionVoidBlocked      = "document.void_blocked"
	ActionAllocationApply  = "allocation.applied"
	ActionAllocationUnbind = "allocation.unapplied"
	ActionOrderSubmitted   = "purchase_order.submitted"
	ActionOrderApproved    = "purchase_order.approved"
	ActionOrderSent        = "purchase_order.sent"
	ActionOrderReceived    = "purchase_order.received"
	ActionOrderClosed      = "purchase_order.closed"
	ActionOrderCancelled   = "purchase_order.cancelled"
	ActionStockOverride    = "inventory.negative_stock_override"
)

const (
	TargetTypeDocument = "document"
	TargetTypeGLHeader = "gl_header"
	TargetTypeItem     = "item"
)

type ActorType string

const (
	ActorTypeUser   ActorType = "user"
	ActorTypeSystem ActorType = "system"
)

type AuditLog struct {
	ID    snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID *snowflake.ID `gorm:"index" json:"org_id,omitempty"`

	ActorType string  `gorm:"type:text;not null" json:"actor_type"`
	ActorID   *string `gorm:"type:text" json:"actor_id,omitempty"`

	Action     string  `gorm:"type:text;not null;index" json:"action"`
	TargetType string  `gorm:"type:text;not null" json:"target_type"`
	TargetID   *string `gorm:"type:text;index" json:"target_id,omitempty"`

	Metadata datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`

	IPAddress *string `gorm:"type:text" json:"ip_address,omitempty"`
	UserAgent *string `gorm:"type:text" json:"user_agent,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// AuditCursor is the decoded keyset position for List.
type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	OrgID      snowflake.ID
	Action     string
	TargetType string
	TargetID   string
	ActorType  string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *AuditCursor
	Limit      int
}
