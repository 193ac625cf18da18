package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Program groups partners, links and commissions under one referral offer.
// CommissionUsage is a rollup counter kept consistent with the valid
// commissions attached to the program; it is a materialized cache, never a
// second source of truth.
type Program struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkspaceID     snowflake.ID `gorm:"not null;index" json:"workspace_id"`
	Name            string       `gorm:"not null" json:"name"`
	Currency        string       `gorm:"not null;default:'usd'" json:"currency"`
	CommissionUsage int64        `gorm:"not null;default:0" json:"commission_usage"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Program) TableName() string { return "programs" }

// ProgramEnrollment binds a partner to a program.
type ProgramEnrollment struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ProgramID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_program_enrollments_program_partner,priority:1" json:"program_id"`
	PartnerID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_program_enrollments_program_partner,priority:2" json:"partner_id"`
	Status    string       `gorm:"not null;default:'approved'" json:"status"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ProgramEnrollment) TableName() string { return "program_enrollments" }

// Link is a referral link. Sales and SaleAmount are rollup counters over
// the link's valid commissions.
type Link struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID  `gorm:"not null;index" json:"workspace_id"`
	ProgramID   snowflake.ID  `gorm:"not null;index" json:"program_id"`
	PartnerID   *snowflake.ID `gorm:"index" json:"partner_id,omitempty"`
	ShortKey    string        `gorm:"not null;uniqueIndex" json:"short_key"`
	Sales       int64         `gorm:"not null;default:0" json:"sales"`
	SaleAmount  int64         `gorm:"not null;default:0" json:"sale_amount"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Link) TableName() string { return "links" }

// Customer is the referred end customer a commission is attributed to.
type Customer struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID  `gorm:"not null;index" json:"workspace_id"`
	LinkID      *snowflake.ID `gorm:"index" json:"link_id,omitempty"`
	ExternalID  string        `gorm:"not null" json:"external_id"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }
