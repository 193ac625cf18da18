package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	partnerdomain "github.com/cwu2020/reflist-sub001/internal/partner/domain"
	payoutdomain "github.com/cwu2020/reflist-sub001/internal/payout/domain"
	"github.com/cwu2020/reflist-sub001/internal/providers/pdf"
	"github.com/cwu2020/reflist-sub001/pkg/db/pagination"
)

type listPayoutsQuery struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
	Status    string `form:"status"`
	PartnerID string `form:"partner_id"`
	ProgramID string `form:"program_id"`
}

func (s *Server) ListPayouts(c *gin.Context) {
	var query listPayoutsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.payoutSvc.List(c.Request.Context(), payoutdomain.ListRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		Status:    strings.TrimSpace(query.Status),
		PartnerID: strings.TrimSpace(query.PartnerID),
		ProgramID: strings.TrimSpace(query.ProgramID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Payouts, "page_info": resp.PageInfo})
}

type createPayoutRequest struct {
	PartnerID     string   `json:"partner_id"`
	CommissionIDs []string `json:"commission_ids"`
	ProgramID     string   `json:"program_id"`
	Description   string   `json:"description"`
}

func (s *Server) CreatePayout(c *gin.Context) {
	var req createPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.payoutSvc.Create(c.Request.Context(), payoutdomain.CreateRequest{
		PartnerID:     strings.TrimSpace(req.PartnerID),
		CommissionIDs: req.CommissionIDs,
		ProgramID:     strings.TrimSpace(req.ProgramID),
		Description:   strings.TrimSpace(req.Description),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Payout, "commissions": resp.Commissions})
}

func (s *Server) GetPayoutByID(c *gin.Context) {
	resp, err := s.payoutSvc.GetByID(c.Request.Context(), payoutdomain.GetRequest{
		ID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Payout, "commissions": resp.Commissions})
}

type transitionPayoutRequest struct {
	Status             string `json:"status"`
	ExternalTransferID string `json:"external_transfer_id"`
}

func (s *Server) TransitionPayout(c *gin.Context) {
	var req transitionPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	payout, err := s.payoutSvc.Transition(c.Request.Context(), payoutdomain.TransitionRequest{
		ID:                 c.Param("id"),
		TargetStatus:       req.Status,
		ExternalTransferID: strings.TrimSpace(req.ExternalTransferID),
		Actor:              strings.TrimSpace(c.GetHeader(HeaderActorID)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payout})
}

func (s *Server) GetPayoutStatement(c *gin.Context) {
	ctx := c.Request.Context()

	resp, err := s.payoutSvc.GetByID(ctx, payoutdomain.GetRequest{ID: c.Param("id")})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	payout := resp.Payout

	partnerName := payout.PartnerID.String()
	var p partnerdomain.Partner
	if err := s.db.WithContext(ctx).Where("id = ?", payout.PartnerID).First(&p).Error; err == nil {
		partnerName = p.Name
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		AbortWithError(c, err)
		return
	}

	data := pdf.StatementData{
		PayoutID:    payout.ID.String(),
		PartnerName: partnerName,
		Status:      string(payout.Status),
		Currency:    strings.ToUpper(payout.Currency),
		PeriodStart: payout.PeriodStart.Format("2006-01-02"),
		PeriodEnd:   payout.PeriodEnd.Format("2006-01-02"),
		IssuedAt:    time.Now().UTC().Format("2006-01-02"),
		Total:       formatAmount(payout.Amount),
	}
	for _, commission := range resp.Commissions {
		data.Items = append(data.Items, pdf.StatementItem{
			CommissionID: commission.ID.String(),
			Type:         string(commission.Type),
			Date:         commission.CreatedAt.Format("2006-01-02"),
			Amount:       formatAmount(commission.Amount),
			Earnings:     formatAmount(commission.Earnings),
		})
	}

	doc, err := s.pdfProvider.GenerateStatement(ctx, data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=payout-%s.pdf", payout.ID.String()))
	c.Header("Content-Type", "application/pdf")
	if _, err := io.Copy(c.Writer, doc); err != nil {
		_ = c.Error(err)
	}
}

// formatAmount renders cents as a decimal string for statements.
func formatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
