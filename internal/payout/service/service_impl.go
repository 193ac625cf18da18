package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/cwu2020/reflist-sub001/internal/audit/domain"
	balancedomain "github.com/cwu2020/reflist-sub001/internal/balance/domain"
	commissiondomain "github.com/cwu2020/reflist-sub001/internal/commission/domain"
	obsmetrics "github.com/cwu2020/reflist-sub001/internal/observability/metrics"
	partnerdomain "github.com/cwu2020/reflist-sub001/internal/partner/domain"
	"github.com/cwu2020/reflist-sub001/internal/payout/domain"
	"github.com/cwu2020/reflist-sub001/internal/ratelimit"
	"github.com/cwu2020/reflist-sub001/internal/workspacecontext"
	"github.com/cwu2020/reflist-sub001/pkg/db/pagination"
)

const defaultCurrency = "usd"

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	AuditSvc   auditdomain.Service
	Repo       domain.Repository
	PartnerSvc partnerdomain.Service
	Guard      *ratelimit.WithdrawGuard `optional:"true"`
	ObsMetrics *obsmetrics.Metrics      `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	auditSvc   auditdomain.Service
	repo       domain.Repository
	partnerSvc partnerdomain.Service
	guard      *ratelimit.WithdrawGuard
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payout.service"),
		genID:      p.GenID,
		auditSvc:   p.AuditSvc,
		repo:       p.Repo,
		partnerSvc: p.PartnerSvc,
		guard:      p.Guard,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.CreateResponse, error) {
	partnerID, err := snowflake.ParseString(strings.TrimSpace(req.PartnerID))
	if err != nil || partnerID == 0 {
		return nil, domain.ErrInvalidPartner
	}
	if len(req.CommissionIDs) == 0 {
		return nil, domain.ErrInvalidPayoutAmount
	}
	ids := make([]snowflake.ID, 0, len(req.CommissionIDs))
	for _, raw := range req.CommissionIDs {
		id, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil || id == 0 {
			return nil, domain.ErrInvalidID
		}
		ids = append(ids, id)
	}

	var explicitProgram snowflake.ID
	if raw := strings.TrimSpace(req.ProgramID); raw != "" {
		explicitProgram, err = snowflake.ParseString(raw)
		if err != nil || explicitProgram == 0 {
			return nil, domain.ErrMissingProgram
		}
	}

	workspaceID, ok := workspacecontext.WorkspaceIDFromContext(ctx)
	if !ok || workspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	var resp *domain.CreateResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Requested ids that are not the partner's, not processed or already
		// attached are dropped silently rather than failing the batch.
		eligible, err := s.repo.FindEligible(ctx, tx, workspaceID, partnerID, ids)
		if err != nil {
			return err
		}

		payout, err := s.buildPayout(workspaceID, partnerID, explicitProgram, req.Description, eligible)
		if err != nil {
			return err
		}

		if err := s.attach(ctx, tx, payout, eligible); err != nil {
			return err
		}

		resp = &domain.CreateResponse{Payout: payout, Commissions: eligible}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordCreated(ctx, resp.Payout, len(resp.Commissions), "payout.create", "")
	return resp, nil
}

func (s *Service) Withdraw(ctx context.Context, req domain.WithdrawRequest) (*domain.CreateResponse, error) {
	if err := req.Scope.Validate(); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidPayoutAmount
	}

	release, acquired, err := s.guard.Acquire(ctx, req.Scope.Key())
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, domain.ErrWithdrawalInProgress
	}
	defer release()

	scopeExpr, scopeArgs := req.Scope.Filter()

	var resp *domain.CreateResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		eligible, err := s.repo.FindEligibleByScope(ctx, tx, scopeExpr, scopeArgs)
		if err != nil {
			return err
		}

		// The eligible set is exactly the scope's available balance, so the
		// sufficiency check and the allocation read the same rows.
		available := sumEarnings(eligible)
		if available <= 0 {
			return domain.ErrInvalidPayoutAmount
		}
		if req.Amount > available {
			return domain.ErrInsufficientBalance
		}

		workspaceID := s.resolveWorkspace(ctx, req.Scope, eligible)
		if workspaceID == 0 {
			return domain.ErrInvalidWorkspace
		}
		programID := resolveProgram(req.Scope, eligible)
		if programID == 0 {
			return domain.ErrMissingProgram
		}

		partnerID, err := s.resolvePartner(ctx, tx, req.Scope, workspaceID, programID)
		if err != nil {
			return err
		}

		// Withdrawals always drain the whole eligible set. Partial
		// allocation would leave commissions split across payouts with no
		// conservation story, so the payout amount is the full balance even
		// when the request asks for less.
		payout, err := s.buildPayout(workspaceID, partnerID, programID, req.Description, eligible)
		if err != nil {
			return err
		}

		if err := s.attach(ctx, tx, payout, eligible); err != nil {
			return err
		}

		resp = &domain.CreateResponse{Payout: payout, Commissions: eligible}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordCreated(ctx, resp.Payout, len(resp.Commissions), "payout.withdraw", req.Actor)
	return resp, nil
}

func (s *Service) Transition(ctx context.Context, req domain.TransitionRequest) (*domain.Payout, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidID
	}
	target, ok := domain.ParseStatus(strings.TrimSpace(req.TargetStatus))
	if !ok {
		return nil, domain.ErrInvalidStatus
	}

	workspaceID, _ := workspacecontext.WorkspaceIDFromContext(ctx)

	var updated *domain.Payout
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payout, err := s.repo.FindByID(ctx, tx, workspaceID, id)
		if err != nil {
			return err
		}
		if payout == nil {
			return domain.ErrNotFound
		}
		if payout.Status == target {
			updated = payout
			return nil
		}
		if !domain.CanTransition(payout.Status, target) {
			return domain.ErrInvalidTransition
		}

		from := payout.Status
		payout.Status = target
		if target == domain.StatusCompleted {
			now := time.Now().UTC()
			payout.PaidAt = &now
			if transferID := strings.TrimSpace(req.ExternalTransferID); transferID != "" {
				payout.ExternalTransferID = &transferID
			}
		}

		matched, err := s.repo.UpdateStatus(ctx, tx, payout, from)
		if err != nil {
			return err
		}
		if !matched {
			return domain.ErrConflict
		}

		// Commission cascade keeps payout_id meaning "allocated": completed
		// settles the linked commissions, failure returns them to the pool.
		switch target {
		case domain.StatusCompleted:
			if err := s.repo.MarkCommissionsPaid(ctx, tx, payout.ID); err != nil {
				return err
			}
		case domain.StatusFailed, domain.StatusCanceled:
			if err := s.repo.ReleaseCommissions(ctx, tx, payout.ID); err != nil {
				return err
			}
		}

		updated = payout
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordPayoutTransition(ctx, string(updated.Status))
	}
	s.audit(ctx, updated, "payout.transition", req.Actor, map[string]any{
		"status": string(updated.Status),
		"amount": updated.Amount,
	})
	return updated, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetRequest) (*domain.GetResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidID
	}

	workspaceID, _ := workspacecontext.WorkspaceIDFromContext(ctx)
	payout, err := s.repo.FindByID(ctx, s.db, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, domain.ErrNotFound
	}

	commissions, err := s.repo.ListCommissions(ctx, s.db, payout.ID)
	if err != nil {
		return nil, err
	}
	return &domain.GetResponse{Payout: payout, Commissions: commissions}, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	workspaceID, ok := workspacecontext.WorkspaceIDFromContext(ctx)
	if !ok || workspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	filter := domain.ListFilter{
		Pagination:  req.Pagination,
		WorkspaceID: workspaceID,
	}
	if raw := strings.TrimSpace(req.PartnerID); raw != "" {
		partnerID, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		filter.PartnerID = &partnerID
	}
	if raw := strings.TrimSpace(req.ProgramID); raw != "" {
		programID, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		filter.ProgramID = &programID
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			return nil, domain.ErrInvalidStatus
		}
		filter.Status = &status
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	filter.PageSize = pageSize

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(payout *domain.Payout) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        payout.ID.String(),
			CreatedAt: payout.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	resp := &domain.ListResponse{Payouts: items}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

// buildPayout validates the aggregate and constructs the pending payout row.
// The amount is the exact sum of the linked earnings.
func (s *Service) buildPayout(workspaceID, partnerID, explicitProgram snowflake.ID, description string, eligible []*commissiondomain.Commission) (*domain.Payout, error) {
	total := sumEarnings(eligible)
	if total <= 0 {
		return nil, domain.ErrInvalidPayoutAmount
	}

	programID := explicitProgram
	if programID == 0 {
		programID = eligible[0].ProgramID
	}
	if programID == 0 {
		return nil, domain.ErrMissingProgram
	}

	now := time.Now().UTC()
	return &domain.Payout{
		ID:          s.genID.Generate(),
		WorkspaceID: workspaceID,
		ProgramID:   programID,
		PartnerID:   partnerID,
		Amount:      total,
		Currency:    defaultCurrency,
		Status:      domain.StatusPending,
		PeriodStart: now,
		PeriodEnd:   now,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
	}, nil
}

func (s *Service) attach(ctx context.Context, tx *gorm.DB, payout *domain.Payout, eligible []*commissiondomain.Commission) error {
	if err := s.repo.Insert(ctx, tx, payout); err != nil {
		return err
	}

	ids := make([]snowflake.ID, 0, len(eligible))
	for _, commission := range eligible {
		ids = append(ids, commission.ID)
	}
	attached, err := s.repo.Attach(ctx, tx, payout.ID, ids)
	if err != nil {
		return err
	}
	// A row moved under us between the select and the conditional update.
	// Roll the whole payout back rather than settle a different total than
	// the one recorded.
	if attached != int64(len(ids)) {
		return domain.ErrConflict
	}

	payoutID := payout.ID
	for _, commission := range eligible {
		commission.PayoutID = &payoutID
	}
	return nil
}

func (s *Service) resolveWorkspace(ctx context.Context, scope balancedomain.Scope, eligible []*commissiondomain.Commission) snowflake.ID {
	if scope.Kind == balancedomain.ScopeWorkspace {
		return scope.WorkspaceID
	}
	if workspaceID, ok := workspacecontext.WorkspaceIDFromContext(ctx); ok && workspaceID != 0 {
		return workspaceID
	}
	if len(eligible) > 0 {
		return eligible[0].WorkspaceID
	}
	return 0
}

func resolveProgram(scope balancedomain.Scope, eligible []*commissiondomain.Commission) snowflake.ID {
	if scope.Kind == balancedomain.ScopeProgram {
		return scope.ProgramID
	}
	if len(eligible) > 0 {
		return eligible[0].ProgramID
	}
	return 0
}

func (s *Service) resolvePartner(ctx context.Context, tx *gorm.DB, scope balancedomain.Scope, workspaceID, programID snowflake.ID) (snowflake.ID, error) {
	if scope.Kind == balancedomain.ScopePartnerIDs && len(scope.PartnerIDs) == 1 {
		return scope.PartnerIDs[0], nil
	}

	// Multi-partner and workspace/program scopes settle through the
	// workspace default partner.
	partner, err := s.partnerSvc.EnsureDefaultPartner(ctx, tx, partnerdomain.EnsureDefaultPartnerRequest{
		WorkspaceID: workspaceID,
		ProgramID:   programID,
	})
	if err != nil {
		return 0, err
	}
	return partner.ID, nil
}

func sumEarnings(commissions []*commissiondomain.Commission) int64 {
	var total int64
	for _, commission := range commissions {
		total += commission.Earnings
	}
	return total
}

func (s *Service) recordCreated(ctx context.Context, payout *domain.Payout, commissionCount int, action, actor string) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordPayoutCreated(ctx, action, payout.Amount)
	}
	s.audit(ctx, payout, action, actor, map[string]any{
		"amount":           payout.Amount,
		"commission_count": commissionCount,
		"partner_id":       payout.PartnerID.String(),
	})
}

func (s *Service) audit(ctx context.Context, payout *domain.Payout, action, actor string, metadata map[string]any) {
	targetID := payout.ID.String()
	var actorID *string
	if trimmed := strings.TrimSpace(actor); trimmed != "" {
		actorID = &trimmed
	}
	if err := s.auditSvc.AuditLog(ctx, &payout.WorkspaceID, "admin", actorID, action, "payout", &targetID, metadata); err != nil {
		s.log.Warn("failed to audit payout", zap.String("action", action), zap.Error(err))
	}
}
