package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// DefaultPartnerSlug marks the workspace's self-serve withdrawal partner.
const DefaultPartnerSlug = "workspace-default"

// Partner earns commissions and receives payouts.
type Partner struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	// WorkspaceID is zero for partners provisioned from a claiming user;
	// those are global identities not pinned to one workspace.
	WorkspaceID snowflake.ID `gorm:"index" json:"workspace_id,omitempty"`
	Name        string       `gorm:"not null" json:"name"`
	Slug        string       `gorm:"not null;index" json:"slug"`
	Email       string       `json:"email,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Partner) TableName() string { return "partners" }

// User is the verified identity behind zero or more partners. DefaultPartnerID
// is where claimed commission splits land.
type User struct {
	ID               snowflake.ID  `gorm:"primaryKey" json:"id"`
	Name             string        `gorm:"not null" json:"name"`
	Email            string        `json:"email,omitempty"`
	PhoneNumber      *string       `gorm:"index" json:"phone_number,omitempty"`
	DefaultPartnerID *snowflake.ID `gorm:"index" json:"default_partner_id,omitempty"`
	CreatedAt        time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }
