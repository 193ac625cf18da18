package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cwu2020/reflist-sub001/internal/audit/domain"
	"github.com/cwu2020/reflist-sub001/internal/auditcontext"
	"github.com/cwu2020/reflist-sub001/internal/workspacecontext"
	"github.com/cwu2020/reflist-sub001/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) AuditLog(ctx context.Context, workspaceID *snowflake.ID, actorType string, actorID *string, action string, targetType string, targetID *string, metadata map[string]any) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return domain.ErrInvalidAction
	}

	targetType = strings.TrimSpace(targetType)
	if targetType == "" {
		targetType = "unknown"
	}

	resolvedWorkspaceID := snowflake.ID(0)
	if workspaceID != nil {
		resolvedWorkspaceID = *workspaceID
	} else if fromCtx, ok := workspacecontext.WorkspaceIDFromContext(ctx); ok {
		resolvedWorkspaceID = fromCtx
	}

	resolvedActorType := strings.TrimSpace(actorType)
	resolvedActorID := actorID
	if resolvedActorType == "" {
		ctxType, ctxID := auditcontext.ActorFromContext(ctx)
		resolvedActorType = ctxType
		if ctxID != "" {
			resolvedActorID = &ctxID
		}
	}
	if resolvedActorType == "" {
		resolvedActorType = "system"
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

	entry := domain.AuditLog{
		ID:          s.genID.Generate(),
		WorkspaceID: resolvedWorkspaceID,
		ActorType:   resolvedActorType,
		ActorID:     resolvedActorID,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		Metadata:    datatypes.JSONMap(payload),
		CreatedAt:   time.Now().UTC(),
	}
	if ipAddress := auditcontext.IPAddressFromContext(ctx); ipAddress != "" {
		entry.IPAddress = &ipAddress
	}
	if userAgent := auditcontext.UserAgentFromContext(ctx); userAgent != "" {
		entry.UserAgent = &userAgent
	}

	if err := s.repo.Insert(ctx, s.db, &entry); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req domain.ListAuditLogRequest) (domain.ListAuditLogResponse, error) {
	workspaceID, ok := workspacecontext.WorkspaceIDFromContext(ctx)
	if !ok || workspaceID == 0 {
		return domain.ListAuditLogResponse{}, domain.ErrInvalidWorkspace
	}

	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return domain.ListAuditLogResponse{}, domain.ErrInvalidTimeRange
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, workspaceID, domain.ListAuditLogFilter{
		Action:     strings.TrimSpace(req.Action),
		TargetType: strings.TrimSpace(req.TargetType),
		TargetID:   strings.TrimSpace(req.TargetID),
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListAuditLogResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(entry *domain.AuditLog) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        entry.ID.String(),
			CreatedAt: entry.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	entries := make([]domain.AuditLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entries = append(entries, *item)
	}

	resp := domain.ListAuditLogResponse{AuditLogs: entries}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}
