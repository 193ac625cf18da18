package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	commissiondomain "github.com/cwu2020/reflist-sub001/internal/commission/domain"
)

// ClaimMarker stamps ownership onto splits in one conditional update.
type ClaimMarker struct {
	ClaimedAt time.Time
	UserID    snowflake.ID
	PartnerID snowflake.ID
}

type Repository interface {
	// MarkClaimed flips every unclaimed split for the phone number in a
	// single conditional update and returns the number of rows taken. The
	// claimed = FALSE predicate is what makes a repeat claim a no-op.
	MarkClaimed(ctx context.Context, db *gorm.DB, phoneNumber string, marker ClaimMarker) (int64, error)

	// FindClaimedBy returns the splits stamped with the given marker.
	FindClaimedBy(ctx context.Context, db *gorm.DB, marker ClaimMarker) ([]*commissiondomain.CommissionSplit, error)

	// SumUnclaimed totals the open splits for the phone number.
	SumUnclaimed(ctx context.Context, db *gorm.DB, phoneNumber string) (count int64, earnings int64, err error)
}

// VerificationStore holds verification records until their TTL lapses.
type VerificationStore interface {
	Put(ctx context.Context, verification *Verification, ttl time.Duration) error
	Get(ctx context.Context, token string) (*Verification, error)
}
