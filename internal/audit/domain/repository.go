package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cwu2020/reflist-sub001/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListAuditLogFilter struct {
	Action     string
	TargetType string
	TargetID   string
	StartAt    *time.Time
	EndAt      *time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID, filter ListAuditLogFilter, page pagination.Pagination) ([]*AuditLog, error)
}
