package ratelimit

import (
	"context"
	"time"
)

const (
	keyWithdraw     = "withdraw:lock:"
	withdrawLockTTL = 30 * time.Second
)

// WithdrawGuard serializes withdrawals per balance scope. Two concurrent
// withdrawals against the same scope would both pass the balance check and
// double-allocate the same commissions; the guard makes the second one fail
// fast instead. A nil guard (no redis configured) allows everything and the
// conditional attach remains the fallback protection.
type WithdrawGuard struct {
	locker *Locker
}

func NewWithdrawGuard(locker *Locker) *WithdrawGuard {
	if locker == nil {
		return nil
	}
	return &WithdrawGuard{locker: locker}
}

func (g *WithdrawGuard) Enabled() bool {
	return g != nil && g.locker != nil
}

// Acquire takes the scope lock and returns a release func. The second return
// is false when another withdrawal currently holds the scope.
func (g *WithdrawGuard) Acquire(ctx context.Context, scopeKey string) (func(), bool, error) {
	if !g.Enabled() {
		return func() {}, true, nil
	}

	key := keyWithdraw + scopeKey
	token, ok, err := g.locker.TryLock(ctx, key, withdrawLockTTL)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return func() {
		_ = g.locker.Release(context.WithoutCancel(ctx), key, token)
	}, true, nil
}
