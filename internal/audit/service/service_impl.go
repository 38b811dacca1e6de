package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	auditdomain "github.com/smallbiznis/folio/internal/audit/domain"
	"github.com/smallbiznis/folio/internal/auditcontext"
	"github.com/smallbiznis/folio/internal/orgcontext"
	"github.com/smallbiznis/folio/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, action string, targetType string, targetID *string, metadata map[string]any) error {
	return s.RecordTx(ctx, s.db, action, targetType, targetID, metadata)
}

func (s *Service) RecordTx(ctx context.Context, tx *gorm.DB, action string, targetType string, targetID *string, metadata map[string]any) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}

	targetType = strings.TrimSpace(targetType)
	if targetType == "" {
		targetType = "unknown"
	}

	payload := map[string]any{}
	for key, value := range metadata {
		if key == "" {
			continue
		}
		payload[key] = value
	}
	if requestID := auditcontext.RequestIDFromContext(ctx); requestID != "" {
		payload["request_id"] = requestID
	}

	entry := auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		Action:     action,
		TargetType: targetType,
		TargetID:   normalizePointer(targetID),
		Metadata:   datatypes.JSONMap(payload),
		CreatedAt:  time.Now().UTC(),
	}

	if orgID, ok := orgcontext.OrgIDFromContext(ctx); ok && orgID != 0 {
		entry.OrgID = &orgID
	}
	entry.ActorType, entry.ActorID = resolveActor(ctx)
	if ip := auditcontext.IPAddressFromContext(ctx); ip != "" {
		entry.IPAddress = &ip
	}
	if ua := auditcontext.UserAgentFromContext(ctx); ua != "" {
		entry.UserAgent = &ua
	}

	if err := s.repo.Insert(ctx, tx, &entry); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidOrganization
	}

	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidTimeRange
	}

	var cursor *auditdomain.AuditCursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		cursor = &auditdomain.AuditCursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, s.db, auditdomain.ListFilter{
		OrgID:      orgID,
		Action:     req.Action,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		ActorType:  req.ActorType,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
		Cursor:     cursor,
		Limit:      pageSize,
	})
	if err != nil {
		return auditdomain.ListAuditLogResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *auditdomain.AuditLog) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	logs := make([]auditdomain.AuditLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}

	resp := auditdomain.ListAuditLogResponse{AuditLogs: logs}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func resolveActor(ctx context.Context) (string, *string) {
	if actorID, ok := orgcontext.ActorIDFromContext(ctx); ok && actorID != 0 {
		id := actorID.String()
		return string(auditdomain.ActorTypeUser), &id
	}
	return string(auditdomain.ActorTypeSystem), nil
}

func normalizePointer(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
