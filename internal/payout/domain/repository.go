package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	commissiondomain "github.com/cwu2020/reflist-sub001/internal/commission/domain"
	"github.com/cwu2020/reflist-sub001/pkg/db/pagination"
)

type ListFilter struct {
	pagination.Pagination
	WorkspaceID snowflake.ID
	PartnerID   *snowflake.ID
	ProgramID   *snowflake.ID
	Status      *Status
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payout *Payout) error
	FindByID(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) (*Payout, error)

	// FindEligible returns the subset of ids that belong to the partner,
	// are in processed status and are not attached to any payout.
	FindEligible(ctx context.Context, db *gorm.DB, workspaceID, partnerID snowflake.ID, ids []snowflake.ID) ([]*commissiondomain.Commission, error)

	// FindEligibleByScope returns every attachable commission matched by the
	// scope filter, ordered by creation time.
	FindEligibleByScope(ctx context.Context, db *gorm.DB, scopeExpr string, scopeArgs []any) ([]*commissiondomain.Commission, error)

	// Attach stamps payout_id on the given commissions. The update is
	// conditional on each row still being attachable, and the returned count
	// lets the caller detect a concurrent writer.
	Attach(ctx context.Context, db *gorm.DB, payoutID snowflake.ID, ids []snowflake.ID) (int64, error)

	// UpdateStatus performs a compare-and-set on the payout status. A false
	// return means the row moved off fromStatus concurrently.
	UpdateStatus(ctx context.Context, db *gorm.DB, payout *Payout, fromStatus Status) (bool, error)

	// MarkCommissionsPaid promotes the payout's processed commissions to paid.
	MarkCommissionsPaid(ctx context.Context, db *gorm.DB, payoutID snowflake.ID) error

	// ReleaseCommissions detaches the payout's commissions and returns them
	// to pending so a later payout can pick them up.
	ReleaseCommissions(ctx context.Context, db *gorm.DB, payoutID snowflake.ID) error

	ListCommissions(ctx context.Context, db *gorm.DB, payoutID snowflake.ID) ([]*commissiondomain.Commission, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Payout, error)
}
