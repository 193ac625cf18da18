package domain

import (
	"context"
	"errors"
	"time"

	"github.com/cwu2020/reflist-sub001/pkg/db/pagination"
)

type TransitionRequest struct {
	ID           string
	TargetStatus string
}

// ForceStatusRequest bypasses the transition table. Transitions out of paid
// are still rejected.
type ForceStatusRequest struct {
	ID           string
	TargetStatus string
}

type DeleteRequest struct {
	ID    string
	Actor string
}

type DeleteResponse struct {
	Commission      Commission `json:"commission"`
	RollbackApplied bool       `json:"rollback_applied"`
}

type GetRequest struct {
	ID string
}

type ListRequest struct {
	pagination.Pagination
	Status      string
	PartnerID   string
	ProgramID   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListResponse struct {
	pagination.PageInfo
	Commissions []Commission `json:"commissions"`
}

type Service interface {
	// Transition moves a commission through the legal transition table and
	// keeps the link/program rollup counters consistent in the same
	// transaction.
	Transition(ctx context.Context, req TransitionRequest) (Commission, error)

	// ForceStatus is the admin override: any transition except out of paid,
	// with the same rollup side effects.
	ForceStatus(ctx context.Context, req ForceStatusRequest) (Commission, error)

	// Delete removes a commission after reversing its rollup contribution.
	// Rejected for paid or payout-attached commissions before any write.
	Delete(ctx context.Context, req DeleteRequest) (DeleteResponse, error)

	GetByID(ctx context.Context, req GetRequest) (Commission, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

var (
	ErrStateInvariantViolation = errors.New("state_invariant_violation")
	ErrNotFound                = errors.New("not_found")
	ErrConflict                = errors.New("conflict")
	ErrAttachedToPayout        = errors.New("commission_attached_to_payout")
	ErrInvalidStatus           = errors.New("invalid_status")
	ErrInvalidID               = errors.New("invalid_id")
	ErrInvalidWorkspace        = errors.New("invalid_workspace")
)
