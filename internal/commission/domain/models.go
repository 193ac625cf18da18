package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the commission lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	StatusPaid      Status = "paid"
	StatusRefunded  Status = "refunded"
	StatusDuplicate Status = "duplicate"
	StatusFraud     Status = "fraud"
	StatusCanceled  Status = "canceled"
)

// AllStatuses lists every status in the domain. Balance responses zero-fill
// from this list so callers never special-case missing keys.
var AllStatuses = []Status{
	StatusPending,
	StatusProcessed,
	StatusPaid,
	StatusRefunded,
	StatusDuplicate,
	StatusFraud,
	StatusCanceled,
}

// Type is the attributed event kind.
type Type string

const (
	TypeClick Type = "click"
	TypeLead  Type = "lead"
	TypeSale  Type = "sale"
)

// IsValidStatus reports whether a status counts toward rollup stats.
// Everything counts except the exception statuses.
func IsValidStatus(status Status) bool {
	switch status {
	case StatusDuplicate, StatusFraud, StatusCanceled, StatusRefunded:
		return false
	default:
		return true
	}
}

// legalTransitions is the fixed transition table. paid is terminal; the
// exception statuses are reversible back to pending.
var legalTransitions = map[Status][]Status{
	StatusPending:   {StatusProcessed, StatusRefunded, StatusDuplicate, StatusFraud, StatusCanceled},
	StatusProcessed: {StatusPaid, StatusRefunded, StatusDuplicate, StatusFraud, StatusCanceled},
	StatusPaid:      {},
	StatusRefunded:  {StatusPending},
	StatusDuplicate: {StatusPending},
	StatusFraud:     {StatusPending},
	StatusCanceled:  {StatusPending},
}

// CanTransition reports whether the table permits from → to.
func CanTransition(from, to Status) bool {
	for _, allowed := range legalTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, bool) {
	candidate := Status(raw)
	for _, status := range AllStatuses {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}

// Commission is one attributed revenue event and the partner's earned share.
// Amount and Earnings are integer minor currency units.
type Commission struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID  `gorm:"not null;index" json:"workspace_id"`
	ProgramID   snowflake.ID  `gorm:"not null;index" json:"program_id"`
	PartnerID   *snowflake.ID `gorm:"index" json:"partner_id,omitempty"`
	LinkID      snowflake.ID  `gorm:"not null;index" json:"link_id"`
	CustomerID  *snowflake.ID `gorm:"index" json:"customer_id,omitempty"`
	Type        Type          `gorm:"type:text;not null" json:"type"`
	Amount      int64         `gorm:"not null" json:"amount"`
	Earnings    int64         `gorm:"not null" json:"earnings"`
	Currency    string        `gorm:"not null;default:'usd'" json:"currency"`
	Status      Status        `gorm:"type:text;not null;index" json:"status"`
	PayoutID    *snowflake.ID `gorm:"index" json:"payout_id,omitempty"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Commission) TableName() string { return "commissions" }

// CommissionSplit is a sub-allocation of a commission's earnings keyed
// provisionally by phone number until claimed by a verified partner.
// Once Claimed is true the row is immutable except by an explicit admin reset.
type CommissionSplit struct {
	ID                 snowflake.ID  `gorm:"primaryKey" json:"id"`
	CommissionID       snowflake.ID  `gorm:"not null;index" json:"commission_id"`
	PhoneNumber        *string       `gorm:"index" json:"phone_number,omitempty"`
	Earnings           int64         `gorm:"not null" json:"earnings"`
	Claimed            bool          `gorm:"not null;default:false;index" json:"claimed"`
	ClaimedAt          *time.Time    `json:"claimed_at,omitempty"`
	ClaimedByUserID    *snowflake.ID `gorm:"index" json:"claimed_by_user_id,omitempty"`
	ClaimedByPartnerID *snowflake.ID `json:"claimed_by_partner_id,omitempty"`
	PartnerID          *snowflake.ID `gorm:"index" json:"partner_id,omitempty"`
	CreatedAt          time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (CommissionSplit) TableName() string { return "commission_splits" }
