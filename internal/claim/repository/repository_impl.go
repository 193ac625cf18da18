package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/cwu2020/reflist-sub001/internal/claim/domain"
	commissiondomain "github.com/cwu2020/reflist-sub001/internal/commission/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) MarkClaimed(ctx context.Context, db *gorm.DB, phoneNumber string, marker domain.ClaimMarker) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE commission_splits
		 SET claimed = TRUE,
		     claimed_at = ?,
		     claimed_by_user_id = ?,
		     claimed_by_partner_id = ?,
		     partner_id = ?
		 WHERE phone_number = ? AND claimed = FALSE`,
		marker.ClaimedAt,
		marker.UserID,
		marker.PartnerID,
		marker.PartnerID,
		phoneNumber,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repo) FindClaimedBy(ctx context.Context, db *gorm.DB, marker domain.ClaimMarker) ([]*commissiondomain.CommissionSplit, error) {
	var splits []*commissiondomain.CommissionSplit
	err := db.WithContext(ctx).
		Model(&commissiondomain.CommissionSplit{}).
		Where("claimed_by_user_id = ?", marker.UserID).
		Where("claimed_at = ?", marker.ClaimedAt).
		Order("created_at asc, id asc").
		Find(&splits).Error
	if err != nil {
		return nil, err
	}
	return splits, nil
}

func (r *repo) SumUnclaimed(ctx context.Context, db *gorm.DB, phoneNumber string) (int64, int64, error) {
	var row struct {
		Count    int64 `gorm:"column:count"`
		Earnings int64 `gorm:"column:earnings"`
	}
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) AS count, COALESCE(SUM(earnings), 0) AS earnings
		 FROM commission_splits
		 WHERE phone_number = ? AND claimed = FALSE`,
		phoneNumber,
	).Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Count, row.Earnings, nil
}
