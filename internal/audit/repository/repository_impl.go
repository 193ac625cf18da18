package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cwu2020/reflist-sub001/internal/audit/domain"
	"github.com/cwu2020/reflist-sub001/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO audit_logs (id, workspace_id, actor_type, actor_id, action, target_type, target_id, metadata, ip_address, user_agent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.WorkspaceID,
		entry.ActorType,
		entry.ActorID,
		entry.Action,
		entry.TargetType,
		entry.TargetID,
		entry.Metadata,
		entry.IPAddress,
		entry.UserAgent,
		entry.CreatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID, filter domain.ListAuditLogFilter, page pagination.Pagination) ([]*domain.AuditLog, error) {
	var entries []*domain.AuditLog
	stmt := db.WithContext(ctx).
		Model(&domain.AuditLog{}).
		Where("workspace_id = ?", workspaceID)
	if filter.Action != "" {
		stmt = stmt.Where("action = ?", filter.Action)
	}
	if filter.TargetType != "" {
		stmt = stmt.Where("target_type = ?", filter.TargetType)
	}
	if filter.TargetID != "" {
		stmt = stmt.Where("target_id = ?", filter.TargetID)
	}
	if filter.StartAt != nil {
		stmt = stmt.Where("created_at >= ?", *filter.StartAt)
	}
	if filter.EndAt != nil {
		stmt = stmt.Where("created_at <= ?", *filter.EndAt)
	}

	limit := page.PageSize
	if limit <= 0 {
		limit = 50
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		if cursor.CreatedAt != "" && cursor.ID != "" {
			createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
			if err != nil {
				return nil, domain.ErrInvalidPageToken
			}
			id, err := snowflake.ParseString(cursor.ID)
			if err != nil {
				return nil, domain.ErrInvalidPageToken
			}
			stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)", createdAt, createdAt, id)
		}
	}

	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit + 1).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
