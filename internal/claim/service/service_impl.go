package service

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/cwu2020/reflist-sub001/internal/audit/domain"
	"github.com/cwu2020/reflist-sub001/internal/claim/domain"
	"github.com/cwu2020/reflist-sub001/internal/clock"
	"github.com/cwu2020/reflist-sub001/internal/config"
	obsmetrics "github.com/cwu2020/reflist-sub001/internal/observability/metrics"
	partnerdomain "github.com/cwu2020/reflist-sub001/internal/partner/domain"
	"github.com/cwu2020/reflist-sub001/internal/providers/sms"
)

type Params struct {
	fx.In

	Cfg        config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	AuditSvc   auditdomain.Service
	Repo       domain.Repository
	Store      domain.VerificationStore
	PartnerSvc partnerdomain.Service
	SMS        sms.Provider
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	clock           clock.Clock
	auditSvc        auditdomain.Service
	repo            domain.Repository
	store           domain.VerificationStore
	partnerSvc      partnerdomain.Service
	sms             sms.Provider
	obsMetrics      *obsmetrics.Metrics
	verificationTTL time.Duration
}

func NewService(p Params) domain.Service {
	ttl := time.Duration(p.Cfg.VerificationTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("claim.service"),
		clock:           p.Clock,
		auditSvc:        p.AuditSvc,
		repo:            p.Repo,
		store:           p.Store,
		partnerSvc:      p.PartnerSvc,
		sms:             p.SMS,
		obsMetrics:      p.ObsMetrics,
		verificationTTL: ttl,
	}
}

func (s *Service) Claim(ctx context.Context, req domain.ClaimRequest) (*domain.ClaimResult, error) {
	phone, err := normalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, err
	}
	userID, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
	if err != nil || userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	var result *domain.ClaimResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		partner, err := s.partnerSvc.EnsurePartnerForUser(ctx, tx, partnerdomain.EnsurePartnerRequest{
			UserID: userID,
		})
		if err != nil {
			if err == partnerdomain.ErrUserNotFound {
				return domain.ErrUserNotFound
			}
			return err
		}

		// Truncate to microseconds so the marker survives the timestamp
		// round trip and the follow-up select matches exactly.
		marker := domain.ClaimMarker{
			ClaimedAt: s.clock.Now().UTC().Truncate(time.Microsecond),
			UserID:    userID,
			PartnerID: partner.ID,
		}

		claimed, err := s.repo.MarkClaimed(ctx, tx, phone, marker)
		if err != nil {
			return err
		}

		result = &domain.ClaimResult{
			PhoneNumber: phone,
			PartnerID:   partner.ID.String(),
		}
		if claimed == 0 {
			// Nothing left to take. Either the number never had splits or a
			// previous claim already settled them.
			return nil
		}

		splits, err := s.repo.FindClaimedBy(ctx, tx, marker)
		if err != nil {
			return err
		}
		result.ClaimedCount = claimed
		result.Splits = splits
		for _, split := range splits {
			result.ClaimedEarnings += split.Earnings
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.ClaimedCount > 0 {
		s.recordClaim(ctx, result)
	}
	return result, nil
}

func (s *Service) StartVerification(ctx context.Context, req domain.StartVerificationRequest) (*domain.Verification, error) {
	phone, err := normalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	count, earnings, err := s.repo.SumUnclaimed(ctx, s.db, phone)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	verification := &domain.Verification{
		Token:             ulid.Make().String(),
		PhoneNumber:       phone,
		UnclaimedCount:    count,
		UnclaimedEarnings: earnings,
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.verificationTTL),
	}
	if err := s.store.Put(ctx, verification, s.verificationTTL); err != nil {
		return nil, err
	}
	return verification, nil
}

func (s *Service) LookupVerification(ctx context.Context, req domain.LookupVerificationRequest) (*domain.Verification, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return nil, domain.ErrVerificationNotFound
	}

	verification, err := s.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if verification.Expired(s.clock.Now()) {
		return nil, domain.ErrVerificationExpired
	}
	return verification, nil
}

func (s *Service) Unclaimed(ctx context.Context, req domain.UnclaimedRequest) (*domain.UnclaimedResponse, error) {
	phone, err := normalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	count, earnings, err := s.repo.SumUnclaimed(ctx, s.db, phone)
	if err != nil {
		return nil, err
	}
	return &domain.UnclaimedResponse{
		PhoneNumber: phone,
		Count:       count,
		Earnings:    earnings,
	}, nil
}

func (s *Service) recordClaim(ctx context.Context, result *domain.ClaimResult) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordClaimSettled(ctx, result.ClaimedCount, result.ClaimedEarnings)
	}

	targetID := result.PartnerID
	if err := s.auditSvc.AuditLog(ctx, nil, "user", nil, "claim.settle", "partner", &targetID, map[string]any{
		"claimed_count":    result.ClaimedCount,
		"claimed_earnings": result.ClaimedEarnings,
	}); err != nil {
		s.log.Warn("failed to audit claim", zap.Error(err))
	}

	// The confirmation is best effort and must never delay or fail the
	// settlement itself.
	notice := sms.ClaimNotice{
		PhoneNumber:     result.PhoneNumber,
		ClaimedCount:    result.ClaimedCount,
		ClaimedEarnings: result.ClaimedEarnings,
	}
	go func(ctx context.Context) {
		if err := s.sms.SendClaimNotice(ctx, notice); err != nil {
			s.log.Warn("failed to send claim notice", zap.Error(err))
		}
	}(context.WithoutCancel(ctx))
}

// normalizePhone strips separators and validates an E.164-ish shape: an
// optional leading plus followed by 7 to 15 digits.
func normalizePhone(raw string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r == '+' && i == 0:
			b.WriteRune(r)
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			continue
		default:
			return "", domain.ErrInvalidPhone
		}
	}

	phone := b.String()
	digits := strings.TrimPrefix(phone, "+")
	if len(digits) < 7 || len(digits) > 15 {
		return "", domain.ErrInvalidPhone
	}
	return phone, nil
}
