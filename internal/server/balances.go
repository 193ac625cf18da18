package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	balancedomain "github.com/cwu2020/reflist-sub001/internal/balance/domain"
	payoutdomain "github.com/cwu2020/reflist-sub001/internal/payout/domain"
	"github.com/cwu2020/reflist-sub001/internal/workspacecontext"
)

type balancesQuery struct {
	ProgramID  string `form:"program_id"`
	PartnerIDs string `form:"partner_ids"`
}

func (s *Server) GetBalances(c *gin.Context) {
	var query balancesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	scope, err := s.resolveScope(c, strings.TrimSpace(query.ProgramID), splitIDs(query.PartnerIDs))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	balances, err := s.balanceSvc.GetBalances(c.Request.Context(), scope)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": balances})
}

type createWithdrawalRequest struct {
	ProgramID   string   `json:"program_id"`
	PartnerIDs  []string `json:"partner_ids"`
	Amount      int64    `json:"amount"`
	Description string   `json:"description"`
}

func (s *Server) CreateWithdrawal(c *gin.Context) {
	var req createWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	scope, err := s.resolveScope(c, strings.TrimSpace(req.ProgramID), req.PartnerIDs)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.payoutSvc.Withdraw(c.Request.Context(), payoutdomain.WithdrawRequest{
		Scope:       scope,
		Amount:      req.Amount,
		Description: strings.TrimSpace(req.Description),
		Actor:       strings.TrimSpace(c.GetHeader(HeaderActorID)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Payout, "commissions": resp.Commissions})
}

// resolveScope maps the request filters onto exactly one scope variant.
// Partner IDs win over program, program over the workspace default.
func (s *Server) resolveScope(c *gin.Context, programID string, partnerIDs []string) (balancedomain.Scope, error) {
	if len(partnerIDs) > 0 {
		ids := make([]snowflake.ID, 0, len(partnerIDs))
		for _, raw := range partnerIDs {
			id, err := snowflake.ParseString(strings.TrimSpace(raw))
			if err != nil {
				return balancedomain.Scope{}, newValidationError("partner_ids", "invalid_partner_id", "invalid partner id")
			}
			ids = append(ids, id)
		}
		return balancedomain.Scope{Kind: balancedomain.ScopePartnerIDs, PartnerIDs: ids}, nil
	}

	if programID != "" {
		id, err := snowflake.ParseString(programID)
		if err != nil {
			return balancedomain.Scope{}, newValidationError("program_id", "invalid_program_id", "invalid program id")
		}
		return balancedomain.Scope{Kind: balancedomain.ScopeProgram, ProgramID: id}, nil
	}

	workspaceID, ok := workspacecontext.WorkspaceIDFromContext(c.Request.Context())
	if !ok {
		return balancedomain.Scope{}, balancedomain.ErrInvalidScope
	}
	return balancedomain.Scope{Kind: balancedomain.ScopeWorkspace, WorkspaceID: workspaceID}, nil
}

func splitIDs(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
