package domain

import (
	"context"
	"errors"

	balancedomain "github.com/cwu2020/reflist-sub001/internal/balance/domain"
	commissiondomain "github.com/cwu2020/reflist-sub001/internal/commission/domain"
	"github.com/cwu2020/reflist-sub001/pkg/db/pagination"
)

var (
	ErrInvalidPayoutAmount  = errors.New("invalid_payout_amount")
	ErrMissingProgram       = errors.New("missing_program")
	ErrInsufficientBalance  = errors.New("insufficient_balance")
	ErrNotFound             = errors.New("payout_not_found")
	ErrConflict             = errors.New("payout_conflict")
	ErrInvalidTransition    = errors.New("state_invariant_violation")
	ErrInvalidID            = errors.New("invalid_payout_id")
	ErrInvalidPartner       = errors.New("invalid_partner")
	ErrInvalidStatus        = errors.New("invalid_payout_status")
	ErrInvalidWorkspace     = errors.New("invalid_workspace")
	ErrWithdrawalInProgress = errors.New("withdrawal_in_progress")
)

type CreateRequest struct {
	PartnerID     string
	CommissionIDs []string
	ProgramID     string
	Description   string
}

type CreateResponse struct {
	Payout      *Payout
	Commissions []*commissiondomain.Commission
}

type TransitionRequest struct {
	ID                 string
	TargetStatus       string
	ExternalTransferID string
	Actor              string
}

type WithdrawRequest struct {
	Scope       balancedomain.Scope
	Amount      int64
	Description string
	Actor       string
}

type GetRequest struct {
	ID string
}

type GetResponse struct {
	Payout      *Payout
	Commissions []*commissiondomain.Commission
}

type ListRequest struct {
	pagination.Pagination
	PartnerID string
	ProgramID string
	Status    string
}

type ListResponse struct {
	Payouts  []*Payout
	PageInfo pagination.PageInfo
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*CreateResponse, error)
	Transition(ctx context.Context, req TransitionRequest) (*Payout, error)
	Withdraw(ctx context.Context, req WithdrawRequest) (*CreateResponse, error)
	GetByID(ctx context.Context, req GetRequest) (*GetResponse, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
}
