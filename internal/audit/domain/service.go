package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/smallbiznis/folio/pkg/db/pagination"
)

type ListAuditLogRequest struct {
	pagination.Pagination
	Action     string
	TargetType string
	TargetID   string
	ActorType  string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

type Service interface {
	// Record writes an audit entry using the service's own connection, so a
	// blocked action is still recorded after its transaction rolls back.
	Record(ctx context.Context, action string, targetType string, targetID *string, metadata map[string]any) error
	// RecordTx writes an audit entry inside the caller's transaction; it
	// commits or rolls back with the business change it describes.
	RecordTx(ctx context.Context, tx *gorm.DB, action string, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditLog, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
	ErrInvalidTimeRange    = errors.New("invalid_time_range")
	ErrInvalidAction       = errors.New("invalid_action")
)
