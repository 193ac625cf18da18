package service

import (
	"context"
	"time"

	"github.com/cwu2020/reflist-sub001/internal/balance/domain"
	"github.com/cwu2020/reflist-sub001/internal/clock"
	commissiondomain "github.com/cwu2020/reflist-sub001/internal/commission/domain"
	workspacedomain "github.com/cwu2020/reflist-sub001/internal/workspace/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("balance.service"),
		clock: p.Clock,
	}
}

type statusRow struct {
	Status   string `gorm:"column:status"`
	Count    int64  `gorm:"column:count"`
	Amount   int64  `gorm:"column:amount"`
	Earnings int64  `gorm:"column:earnings"`
}

func (s *Service) GetBalances(ctx context.Context, scope domain.Scope) (domain.Balances, error) {
	if err := scope.Validate(); err != nil {
		return domain.Balances{}, err
	}

	scopeSQL, scopeArgs := scope.Filter()
	monthStart := s.monthStart(ctx, scope)

	var balances domain.Balances
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []statusRow
		if err := tx.WithContext(ctx).Raw(
			`SELECT status, COUNT(1) AS count, COALESCE(SUM(amount), 0) AS amount, COALESCE(SUM(earnings), 0) AS earnings
			 FROM commissions
			 WHERE `+scopeSQL+` AND earnings > 0
			 GROUP BY status`,
			scopeArgs...,
		).Scan(&rows).Error; err != nil {
			return err
		}

		byStatus := make(map[commissiondomain.Status]statusRow, len(rows))
		for _, row := range rows {
			byStatus[commissiondomain.Status(row.Status)] = row
		}

		// Zero-fill every status so callers never special-case missing keys.
		counts := make([]domain.StatusTotals, 0, len(commissiondomain.AllStatuses))
		var all domain.Totals
		for _, status := range commissiondomain.AllStatuses {
			row := byStatus[status]
			counts = append(counts, domain.StatusTotals{
				Status:   status,
				Count:    row.Count,
				Amount:   row.Amount,
				Earnings: row.Earnings,
			})
			all.Count += row.Count
			all.Amount += row.Amount
			all.Earnings += row.Earnings
		}
		balances.Counts = counts
		balances.All = all

		var monthly int64
		if err := tx.WithContext(ctx).Raw(
			`SELECT COALESCE(SUM(earnings), 0)
			 FROM commissions
			 WHERE `+scopeSQL+` AND earnings > 0
			   AND status IN ?
			   AND created_at >= ?`,
			append(append([]any{}, scopeArgs...), []string{
				string(commissiondomain.StatusPending),
				string(commissiondomain.StatusProcessed),
				string(commissiondomain.StatusPaid),
			}, monthStart)...,
		).Scan(&monthly).Error; err != nil {
			return err
		}
		balances.MonthlyEarnings = monthly

		available, err := availableBalanceTx(ctx, tx, scopeSQL, scopeArgs)
		if err != nil {
			return err
		}
		balances.AvailableBalance = available

		var pending int64
		if err := tx.WithContext(ctx).Raw(
			`SELECT COALESCE(SUM(earnings), 0)
			 FROM commissions
			 WHERE `+scopeSQL+` AND earnings > 0 AND status = ?`,
			append(append([]any{}, scopeArgs...), string(commissiondomain.StatusPending))...,
		).Scan(&pending).Error; err != nil {
			return err
		}
		balances.PendingEarnings = pending

		return nil
	})
	if err != nil {
		return domain.Balances{}, err
	}
	return balances, nil
}

func (s *Service) AvailableBalance(ctx context.Context, scope domain.Scope) (int64, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	scopeSQL, scopeArgs := scope.Filter()
	return availableBalanceTx(ctx, s.db, scopeSQL, scopeArgs)
}

func availableBalanceTx(ctx context.Context, db *gorm.DB, scopeSQL string, scopeArgs []any) (int64, error) {
	var available int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(earnings), 0)
		 FROM commissions
		 WHERE `+scopeSQL+` AND earnings > 0 AND status = ? AND payout_id IS NULL`,
		append(append([]any{}, scopeArgs...), string(commissiondomain.StatusProcessed))...,
	).Scan(&available).Error
	if err != nil {
		return 0, err
	}
	return available, nil
}

// monthStart resolves the start of the current calendar month in the
// workspace's local time zone, falling back to UTC.
func (s *Service) monthStart(ctx context.Context, scope domain.Scope) time.Time {
	loc := time.UTC
	if scope.Kind == domain.ScopeWorkspace {
		var workspace workspacedomain.Workspace
		if err := s.db.WithContext(ctx).Raw(
			`SELECT id, name, slug, timezone, created_at FROM workspaces WHERE id = ?`,
			scope.WorkspaceID,
		).Scan(&workspace).Error; err != nil {
			s.log.Warn("failed to load workspace timezone", zap.Error(err))
		} else if workspace.ID != 0 {
			loc = workspace.Location()
		}
	}

	now := s.clock.Now().In(loc)
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).UTC()
}
