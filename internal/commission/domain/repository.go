package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cwu2020/reflist-sub001/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status      Status
	PartnerID   snowflake.ID
	ProgramID   snowflake.ID
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) (*Commission, error)

	// UpdateStatus is a conditional compare-and-set: the write applies only
	// when the row still carries fromStatus, and the returned bool reports
	// whether a row matched.
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, fromStatus, toStatus Status) (bool, error)

	// Delete removes the row only while it is still deletable: not paid and
	// not attached to a payout. The returned bool reports whether a row
	// matched, so a concurrent attach or settle surfaces as a miss.
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	List(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID, filter ListFilter, page pagination.Pagination) ([]*Commission, error)

	// AdjustRollup shifts the link sales/sale-amount counters and the program
	// usage counter by delta (+1 or -1) times the commission's contribution.
	AdjustRollup(ctx context.Context, db *gorm.DB, commission *Commission, delta int64) error
}
