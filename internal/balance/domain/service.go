package domain

import "context"

type Service interface {
	// GetBalances computes every aggregate from one transaction so a single
	// response is never stitched from a moving target.
	GetBalances(ctx context.Context, scope Scope) (Balances, error)

	// AvailableBalance is the settled-but-unallocated earnings for the scope:
	// status processed and no payout attached.
	AvailableBalance(ctx context.Context, scope Scope) (int64, error)
}
