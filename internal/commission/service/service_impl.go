package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/cwu2020/reflist-sub001/internal/audit/domain"
	"github.com/cwu2020/reflist-sub001/internal/commission/domain"
	obsmetrics "github.com/cwu2020/reflist-sub001/internal/observability/metrics"
	"github.com/cwu2020/reflist-sub001/internal/workspacecontext"
	"github.com/cwu2020/reflist-sub001/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	AuditSvc   auditdomain.Service
	Repo       domain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	auditSvc   auditdomain.Service
	obsMetrics *obsmetrics.Metrics
	repo       domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("commission.service"),
		genID:      p.GenID,
		auditSvc:   p.AuditSvc,
		obsMetrics: p.ObsMetrics,
		repo:       p.Repo,
	}
}

func (s *Service) Transition(ctx context.Context, req domain.TransitionRequest) (domain.Commission, error) {
	return s.transition(ctx, req.ID, req.TargetStatus, false)
}

func (s *Service) ForceStatus(ctx context.Context, req domain.ForceStatusRequest) (domain.Commission, error) {
	return s.transition(ctx, req.ID, req.TargetStatus, true)
}

// transition is the single path for status changes. Rollup adjustment happens
// inside the same transaction as the status write; the audit record is
// emitted after commit and its failure never fails the operation.
func (s *Service) transition(ctx context.Context, rawID, rawTarget string, force bool) (domain.Commission, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return domain.Commission{}, err
	}
	target, ok := domain.ParseStatus(strings.TrimSpace(rawTarget))
	if !ok {
		return domain.Commission{}, domain.ErrInvalidStatus
	}

	workspaceID, _ := workspacecontext.WorkspaceIDFromContext(ctx)

	var updated domain.Commission
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commission, err := s.repo.FindByID(ctx, tx, workspaceID, id)
		if err != nil {
			return err
		}
		if commission == nil {
			return domain.ErrNotFound
		}

		if commission.Status == target {
			updated = *commission
			return nil
		}
		// paid is terminal regardless of force.
		if commission.Status == domain.StatusPaid {
			return domain.ErrStateInvariantViolation
		}
		if !force && !domain.CanTransition(commission.Status, target) {
			return domain.ErrStateInvariantViolation
		}

		matched, err := s.repo.UpdateStatus(ctx, tx, commission.ID, commission.Status, target)
		if err != nil {
			return err
		}
		if !matched {
			// Lost the compare-and-set to a concurrent writer.
			return domain.ErrConflict
		}

		if err := s.applyRollup(ctx, tx, commission, commission.Status, target); err != nil {
			return err
		}

		updated = *commission
		updated.Status = target
		updated.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return domain.Commission{}, err
	}

	s.recordTransition(ctx, &updated, rawTarget, force)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, req domain.DeleteRequest) (domain.DeleteResponse, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.DeleteResponse{}, err
	}

	workspaceID, _ := workspacecontext.WorkspaceIDFromContext(ctx)

	var resp domain.DeleteResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commission, err := s.repo.FindByID(ctx, tx, workspaceID, id)
		if err != nil {
			return err
		}
		if commission == nil {
			return domain.ErrNotFound
		}

		// Fail-fast preconditions, checked before any write.
		if commission.Status == domain.StatusPaid {
			return domain.ErrStateInvariantViolation
		}
		if commission.PayoutID != nil {
			return domain.ErrAttachedToPayout
		}

		rollback := domain.IsValidStatus(commission.Status)
		if rollback {
			if err := s.repo.AdjustRollup(ctx, tx, commission, -1); err != nil {
				return err
			}
		}
		matched, err := s.repo.Delete(ctx, tx, commission.ID)
		if err != nil {
			return err
		}
		if !matched {
			// A concurrent attach or settle landed between the read and
			// the delete.
			return domain.ErrConflict
		}

		resp = domain.DeleteResponse{
			Commission:      *commission,
			RollbackApplied: rollback,
		}
		return nil
	})
	if err != nil {
		return domain.DeleteResponse{}, err
	}

	// Deletion must not be blocked if the audit write fails.
	targetID := resp.Commission.ID.String()
	actor := strings.TrimSpace(req.Actor)
	var actorID *string
	if actor != "" {
		actorID = &actor
	}
	if err := s.auditSvc.AuditLog(ctx, &resp.Commission.WorkspaceID, "admin", actorID, "commission.delete", "commission", &targetID, map[string]any{
		"amount":           resp.Commission.Amount,
		"earnings":         resp.Commission.Earnings,
		"status":           string(resp.Commission.Status),
		"rollback_applied": resp.RollbackApplied,
	}); err != nil {
		s.log.Warn("failed to audit commission deletion", zap.Error(err))
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetRequest) (domain.Commission, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Commission{}, err
	}

	workspaceID, _ := workspacecontext.WorkspaceIDFromContext(ctx)
	commission, err := s.repo.FindByID(ctx, s.db, workspaceID, id)
	if err != nil {
		return domain.Commission{}, err
	}
	if commission == nil {
		return domain.Commission{}, domain.ErrNotFound
	}
	return *commission, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	workspaceID, ok := workspacecontext.WorkspaceIDFromContext(ctx)
	if !ok || workspaceID == 0 {
		return domain.ListResponse{}, domain.ErrInvalidWorkspace
	}

	filter := domain.ListFilter{
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			return domain.ListResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(req.PartnerID); raw != "" {
		partnerID, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidID
		}
		filter.PartnerID = partnerID
	}
	if raw := strings.TrimSpace(req.ProgramID); raw != "" {
		programID, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidID
		}
		filter.ProgramID = programID
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, workspaceID, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(commission *domain.Commission) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        commission.ID.String(),
			CreatedAt: commission.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	commissions := make([]domain.Commission, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		commissions = append(commissions, *item)
	}

	resp := domain.ListResponse{Commissions: commissions}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

// applyRollup is the single place rollup counter math lives. It adjusts the
// link and program counters only when the transition crosses the
// valid/invalid boundary.
func (s *Service) applyRollup(ctx context.Context, tx *gorm.DB, commission *domain.Commission, from, to domain.Status) error {
	fromValid := domain.IsValidStatus(from)
	toValid := domain.IsValidStatus(to)
	switch {
	case fromValid && !toValid:
		return s.repo.AdjustRollup(ctx, tx, commission, -1)
	case !fromValid && toValid:
		return s.repo.AdjustRollup(ctx, tx, commission, 1)
	default:
		return nil
	}
}

func (s *Service) recordTransition(ctx context.Context, commission *domain.Commission, target string, force bool) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordCommissionTransition(ctx, strings.TrimSpace(target))
	}

	action := "commission.transition"
	if force {
		action = "commission.force_status"
	}
	targetID := commission.ID.String()
	if err := s.auditSvc.AuditLog(ctx, &commission.WorkspaceID, "", nil, action, "commission", &targetID, map[string]any{
		"status":   string(commission.Status),
		"earnings": commission.Earnings,
	}); err != nil {
		s.log.Warn("failed to audit commission transition", zap.Error(err))
	}
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
