package domain

import (
	"errors"

	"github.com/bwmarrin/snowflake"
	commissiondomain "github.com/cwu2020/reflist-sub001/internal/commission/domain"
)

// ScopeKind selects the filter variant.
type ScopeKind string

const (
	ScopeWorkspace  ScopeKind = "workspace"
	ScopeProgram    ScopeKind = "program"
	ScopePartnerIDs ScopeKind = "partner_ids"
)

// Scope is the single filter type consumed by balance queries and the payout
// aggregator. One variant per call; no ad hoc OR-condition lists.
type Scope struct {
	Kind        ScopeKind
	WorkspaceID snowflake.ID
	ProgramID   snowflake.ID
	PartnerIDs  []snowflake.ID
}

func (s Scope) Validate() error {
	switch s.Kind {
	case ScopeWorkspace:
		if s.WorkspaceID == 0 {
			return ErrInvalidScope
		}
	case ScopeProgram:
		if s.ProgramID == 0 {
			return ErrInvalidScope
		}
	case ScopePartnerIDs:
		if len(s.PartnerIDs) == 0 {
			return ErrInvalidScope
		}
	default:
		return ErrInvalidScope
	}
	return nil
}

// Filter renders the scope as a SQL condition over the commissions table.
func (s Scope) Filter() (string, []any) {
	switch s.Kind {
	case ScopeWorkspace:
		return "workspace_id = ?", []any{s.WorkspaceID}
	case ScopeProgram:
		return "program_id = ?", []any{s.ProgramID}
	default:
		return "partner_id IN ?", []any{s.PartnerIDs}
	}
}

// Key is a stable identifier for the scope, used for lock keys and metrics.
func (s Scope) Key() string {
	switch s.Kind {
	case ScopeWorkspace:
		return "workspace:" + s.WorkspaceID.String()
	case ScopeProgram:
		return "program:" + s.ProgramID.String()
	default:
		key := "partners"
		for _, id := range s.PartnerIDs {
			key += ":" + id.String()
		}
		return key
	}
}

// StatusTotals is one status group in the counts breakdown.
type StatusTotals struct {
	Status   commissiondomain.Status `json:"status"`
	Count    int64                   `json:"count"`
	Amount   int64                   `json:"amount"`
	Earnings int64                   `json:"earnings"`
}

// Totals is the all-statuses aggregate.
type Totals struct {
	Count    int64 `json:"count"`
	Amount   int64 `json:"amount"`
	Earnings int64 `json:"earnings"`
}

// Balances is one internally consistent snapshot of the scope's aggregates.
type Balances struct {
	Counts           []StatusTotals `json:"counts"`
	All              Totals         `json:"all"`
	MonthlyEarnings  int64          `json:"monthly_earnings"`
	AvailableBalance int64          `json:"available_balance"`
	PendingEarnings  int64          `json:"pending_earnings"`
}

var (
	ErrInvalidScope = errors.New("invalid_scope")
)
