package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cwu2020/reflist-sub001/internal/commission/domain"
	"github.com/cwu2020/reflist-sub001/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) (*domain.Commission, error) {
	var commission domain.Commission
	stmt := db.WithContext(ctx).Where("id = ?", id)
	if workspaceID != 0 {
		stmt = stmt.Where("workspace_id = ?", workspaceID)
	}
	err := stmt.Limit(1).Find(&commission).Error
	if err != nil {
		return nil, err
	}
	if commission.ID == 0 {
		return nil, nil
	}
	return &commission, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, fromStatus, toStatus domain.Status) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE commissions SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(toStatus),
		time.Now().UTC(),
		id,
		string(fromStatus),
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM commissions WHERE id = ? AND status <> ? AND payout_id IS NULL`,
		id,
		string(domain.StatusPaid),
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Commission, error) {
	var commissions []*domain.Commission
	stmt := db.WithContext(ctx).
		Model(&domain.Commission{}).
		Where("workspace_id = ?", workspaceID)
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", string(filter.Status))
	}
	if filter.PartnerID != 0 {
		stmt = stmt.Where("partner_id = ?", filter.PartnerID)
	}
	if filter.ProgramID != 0 {
		stmt = stmt.Where("program_id = ?", filter.ProgramID)
	}
	if filter.CreatedFrom != nil {
		stmt = stmt.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		stmt = stmt.Where("created_at <= ?", *filter.CreatedTo)
	}

	limit := page.PageSize
	if limit <= 0 {
		limit = 50
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
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
		Find(&commissions).Error
	if err != nil {
		return nil, err
	}
	return commissions, nil
}

func (r *repo) AdjustRollup(ctx context.Context, db *gorm.DB, commission *domain.Commission, delta int64) error {
	if delta == 0 {
		return nil
	}

	if err := db.WithContext(ctx).Exec(
		`UPDATE links SET sales = sales + ?, sale_amount = sale_amount + ? WHERE id = ?`,
		delta,
		delta*commission.Amount,
		commission.LinkID,
	).Error; err != nil {
		return err
	}

	return db.WithContext(ctx).Exec(
		`UPDATE programs SET commission_usage = commission_usage + ? WHERE id = ?`,
		delta*commission.Amount,
		commission.ProgramID,
	).Error
}
