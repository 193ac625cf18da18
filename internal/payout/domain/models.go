package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the payout lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

var legalTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCompleted, StatusFailed, StatusCanceled},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCanceled},
	StatusCompleted:  {},
	StatusFailed:     {},
	StatusCanceled:   {},
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
	switch Status(raw) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCanceled:
		return Status(raw), true
	default:
		return "", false
	}
}

// Payout aggregates a partner's cleared commissions for transfer. Amount must
// equal the summed earnings of the commissions linked via payout_id at every
// point in the lifecycle, including after failure rollback.
type Payout struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkspaceID        snowflake.ID `gorm:"not null;index" json:"workspace_id"`
	ProgramID          snowflake.ID `gorm:"not null;index" json:"program_id"`
	PartnerID          snowflake.ID `gorm:"not null;index" json:"partner_id"`
	Amount             int64        `gorm:"not null" json:"amount"`
	Currency           string       `gorm:"not null;default:'usd'" json:"currency"`
	Status             Status       `gorm:"type:text;not null;index" json:"status"`
	PeriodStart        time.Time    `gorm:"not null" json:"period_start"`
	PeriodEnd          time.Time    `gorm:"not null" json:"period_end"`
	Description        string       `json:"description,omitempty"`
	CreatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	PaidAt             *time.Time   `json:"paid_at,omitempty"`
	ExternalTransferID *string      `json:"external_transfer_id,omitempty"`
}

// TableName sets the database table name.
func (Payout) TableName() string { return "payouts" }
