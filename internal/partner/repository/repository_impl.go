package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/cwu2020/reflist-sub001/internal/partner/domain"
	programdomain "github.com/cwu2020/reflist-sub001/internal/program/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, partner *domain.Partner) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO partners (id, workspace_id, name, slug, email, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		partner.ID,
		partner.WorkspaceID,
		partner.Name,
		partner.Slug,
		partner.Email,
		partner.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Partner, error) {
	var partner domain.Partner
	err := db.WithContext(ctx).Raw(
		`SELECT id, workspace_id, name, slug, email, created_at
		 FROM partners WHERE id = ?`,
		id,
	).Scan(&partner).Error
	if err != nil {
		return nil, err
	}
	if partner.ID == 0 {
		return nil, nil
	}
	return &partner, nil
}

func (r *repo) FindUserByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, phone_number, default_partner_id, created_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) SetDefaultPartner(ctx context.Context, db *gorm.DB, userID, partnerID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET default_partner_id = ? WHERE id = ?`,
		partnerID,
		userID,
	).Error
}

func (r *repo) FindDefaultWorkspacePartner(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID) (*domain.Partner, error) {
	var partner domain.Partner
	err := db.WithContext(ctx).Raw(
		`SELECT id, workspace_id, name, slug, email, created_at
		 FROM partners
		 WHERE workspace_id = ? AND slug = ?
		 LIMIT 1`,
		workspaceID,
		domain.DefaultPartnerSlug,
	).Scan(&partner).Error
	if err != nil {
		return nil, err
	}
	if partner.ID == 0 {
		return nil, nil
	}
	return &partner, nil
}

func (r *repo) EnsureEnrollment(ctx context.Context, db *gorm.DB, enrollment *programdomain.ProgramEnrollment) error {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO program_enrollments (id, program_id, partner_id, status, created_at)
		 SELECT ?, ?, ?, ?, ?
		 WHERE NOT EXISTS (
			SELECT 1 FROM program_enrollments WHERE program_id = ? AND partner_id = ?
		 )`,
		enrollment.ID,
		enrollment.ProgramID,
		enrollment.PartnerID,
		enrollment.Status,
		enrollment.CreatedAt,
		enrollment.ProgramID,
		enrollment.PartnerID,
	)
	return result.Error
}
