package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cwu2020/reflist-sub001/internal/partner/domain"
	programdomain "github.com/cwu2020/reflist-sub001/internal/program/domain"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("partner.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) EnsurePartnerForUser(ctx context.Context, db *gorm.DB, req domain.EnsurePartnerRequest) (domain.Partner, error) {
	if req.UserID == 0 {
		return domain.Partner{}, domain.ErrInvalidUser
	}
	if db == nil {
		db = s.db
	}

	user, err := s.repo.FindUserByID(ctx, db, req.UserID)
	if err != nil {
		return domain.Partner{}, err
	}
	if user == nil {
		return domain.Partner{}, domain.ErrUserNotFound
	}

	if user.DefaultPartnerID != nil {
		existing, err := s.repo.FindByID(ctx, db, *user.DefaultPartnerID)
		if err != nil {
			return domain.Partner{}, err
		}
		if existing != nil {
			return *existing, nil
		}
		// Dangling default partner reference; reprovision below.
		s.log.Warn("default partner missing, reprovisioning",
			zap.String("user_id", user.ID.String()),
			zap.String("partner_id", user.DefaultPartnerID.String()),
		)
	}

	name := strings.TrimSpace(user.Name)
	if name == "" {
		name = "Partner " + user.ID.String()
	}

	partner := domain.Partner{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slug.Make(name),
		Email:     user.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, db, &partner); err != nil {
		return domain.Partner{}, err
	}
	if err := s.repo.SetDefaultPartner(ctx, db, user.ID, partner.ID); err != nil {
		return domain.Partner{}, err
	}

	return partner, nil
}

func (s *Service) EnsureDefaultPartner(ctx context.Context, db *gorm.DB, req domain.EnsureDefaultPartnerRequest) (domain.Partner, error) {
	if req.WorkspaceID == 0 {
		return domain.Partner{}, domain.ErrInvalidWorkspace
	}
	if req.ProgramID == 0 {
		return domain.Partner{}, domain.ErrInvalidProgram
	}
	if db == nil {
		db = s.db
	}

	partner, err := s.repo.FindDefaultWorkspacePartner(ctx, db, req.WorkspaceID)
	if err != nil {
		return domain.Partner{}, err
	}
	if partner == nil {
		created := domain.Partner{
			ID:          s.genID.Generate(),
			WorkspaceID: req.WorkspaceID,
			Name:        "Workspace Default",
			Slug:        domain.DefaultPartnerSlug,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.repo.Insert(ctx, db, &created); err != nil {
			return domain.Partner{}, err
		}
		partner = &created
	}

	enrollment := programdomain.ProgramEnrollment{
		ID:        s.genID.Generate(),
		ProgramID: req.ProgramID,
		PartnerID: partner.ID,
		Status:    "approved",
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.EnsureEnrollment(ctx, db, &enrollment); err != nil {
		return domain.Partner{}, err
	}

	return *partner, nil
}
