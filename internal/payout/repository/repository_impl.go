package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	commissiondomain "github.com/cwu2020/reflist-sub001/internal/commission/domain"
	"github.com/cwu2020/reflist-sub001/internal/payout/domain"
	"github.com/cwu2020/reflist-sub001/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payout *domain.Payout) error {
	return db.WithContext(ctx).Create(payout).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) (*domain.Payout, error) {
	var payout domain.Payout
	stmt := db.WithContext(ctx).Where("id = ?", id)
	if workspaceID != 0 {
		stmt = stmt.Where("workspace_id = ?", workspaceID)
	}
	err := stmt.Limit(1).Find(&payout).Error
	if err != nil {
		return nil, err
	}
	if payout.ID == 0 {
		return nil, nil
	}
	return &payout, nil
}

func (r *repo) FindEligible(ctx context.Context, db *gorm.DB, workspaceID, partnerID snowflake.ID, ids []snowflake.ID) ([]*commissiondomain.Commission, error) {
	var commissions []*commissiondomain.Commission
	stmt := db.WithContext(ctx).
		Model(&commissiondomain.Commission{}).
		Where("id IN ?", ids).
		Where("partner_id = ?", partnerID).
		Where("status = ?", string(commissiondomain.StatusProcessed)).
		Where("payout_id IS NULL")
	if workspaceID != 0 {
		stmt = stmt.Where("workspace_id = ?", workspaceID)
	}
	err := stmt.Order("created_at asc, id asc").Find(&commissions).Error
	if err != nil {
		return nil, err
	}
	return commissions, nil
}

func (r *repo) FindEligibleByScope(ctx context.Context, db *gorm.DB, scopeExpr string, scopeArgs []any) ([]*commissiondomain.Commission, error) {
	var commissions []*commissiondomain.Commission
	err := db.WithContext(ctx).
		Model(&commissiondomain.Commission{}).
		Where(scopeExpr, scopeArgs...).
		Where("status = ?", string(commissiondomain.StatusProcessed)).
		Where("payout_id IS NULL").
		Where("earnings > 0").
		Order("created_at asc, id asc").
		Find(&commissions).Error
	if err != nil {
		return nil, err
	}
	return commissions, nil
}

func (r *repo) Attach(ctx context.Context, db *gorm.DB, payoutID snowflake.ID, ids []snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE commissions SET payout_id = ?, updated_at = ? WHERE id IN ? AND status = ? AND payout_id IS NULL`,
		payoutID,
		time.Now().UTC(),
		ids,
		string(commissiondomain.StatusProcessed),
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, payout *domain.Payout, fromStatus domain.Status) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE payouts SET status = ?, paid_at = ?, external_transfer_id = ? WHERE id = ? AND status = ?`,
		string(payout.Status),
		payout.PaidAt,
		payout.ExternalTransferID,
		payout.ID,
		string(fromStatus),
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) MarkCommissionsPaid(ctx context.Context, db *gorm.DB, payoutID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE commissions SET status = ?, updated_at = ? WHERE payout_id = ? AND status = ?`,
		string(commissiondomain.StatusPaid),
		time.Now().UTC(),
		payoutID,
		string(commissiondomain.StatusProcessed),
	).Error
}

func (r *repo) ReleaseCommissions(ctx context.Context, db *gorm.DB, payoutID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE commissions SET status = ?, payout_id = NULL, updated_at = ? WHERE payout_id = ?`,
		string(commissiondomain.StatusPending),
		time.Now().UTC(),
		payoutID,
	).Error
}

func (r *repo) ListCommissions(ctx context.Context, db *gorm.DB, payoutID snowflake.ID) ([]*commissiondomain.Commission, error) {
	var commissions []*commissiondomain.Commission
	err := db.WithContext(ctx).
		Model(&commissiondomain.Commission{}).
		Where("payout_id = ?", payoutID).
		Order("created_at asc, id asc").
		Find(&commissions).Error
	if err != nil {
		return nil, err
	}
	return commissions, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Payout, error) {
	var payouts []*domain.Payout
	stmt := db.WithContext(ctx).
		Model(&domain.Payout{}).
		Where("workspace_id = ?", filter.WorkspaceID)
	if filter.PartnerID != nil {
		stmt = stmt.Where("partner_id = ?", *filter.PartnerID)
	}
	if filter.ProgramID != nil {
		stmt = stmt.Where("program_id = ?", *filter.ProgramID)
	}
	if filter.Status != nil {
		stmt = stmt.Where("status = ?", string(*filter.Status))
	}

	limit := filter.PageSize
	if limit <= 0 {
		limit = 50
	}
	if filter.PageToken != "" {
		cursor, err := pagination.DecodeCursor(filter.PageToken)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		if cursor.CreatedAt != "" && cursor.ID != "" {
			createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
			if err != nil {
				return nil, domain.ErrInvalidID
			}
			id, err := snowflake.ParseString(cursor.ID)
			if err != nil {
				return nil, domain.ErrInvalidID
			}
			stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)", createdAt, createdAt, id)
		}
	}

	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit + 1).
		Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}
