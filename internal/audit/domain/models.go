package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditLog records privileged ledger mutations. Emission is best effort:
// writes happen after the owning transaction commits and failures are logged,
// never propagated.
type AuditLog struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID      `gorm:"index" json:"workspace_id"`
	ActorType   string            `json:"actor_type"`
	ActorID     *string           `json:"actor_id,omitempty"`
	Action      string            `gorm:"not null;index" json:"action"`
	TargetType  string            `gorm:"not null" json:"target_type"`
	TargetID    *string           `json:"target_id,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	IPAddress   *string           `json:"ip_address,omitempty"`
	UserAgent   *string           `json:"user_agent,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }
