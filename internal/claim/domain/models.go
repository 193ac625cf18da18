package domain

import (
	"time"

	commissiondomain "github.com/cwu2020/reflist-sub001/internal/commission/domain"
)

// Verification is a short-lived record binding a verified phone number to a
// snapshot of what was claimable at verification time. The token is the
// lookup key; the snapshot is informational and the claim itself re-reads the
// live rows.
type Verification struct {
	Token             string    `json:"token"`
	PhoneNumber       string    `json:"phone_number"`
	UnclaimedCount    int64     `json:"unclaimed_count"`
	UnclaimedEarnings int64     `json:"unclaimed_earnings"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

func (v Verification) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

// ClaimResult is the settlement outcome for one phone number. A repeat claim
// returns zero counts, never an error.
type ClaimResult struct {
	PhoneNumber     string                              `json:"phone_number"`
	ClaimedCount    int64                               `json:"claimed_count"`
	ClaimedEarnings int64                               `json:"claimed_earnings"`
	PartnerID       string                              `json:"partner_id"`
	Splits          []*commissiondomain.CommissionSplit `json:"splits"`
}
