package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	commissiondomain "github.com/cwu2020/reflist-sub001/internal/commission/domain"
	"github.com/cwu2020/reflist-sub001/pkg/db/pagination"
)

type listCommissionsQuery struct {
	PageToken   string `form:"page_token"`
	PageSize    int    `form:"page_size"`
	Status      string `form:"status"`
	PartnerID   string `form:"partner_id"`
	ProgramID   string `form:"program_id"`
	CreatedFrom string `form:"created_from"`
	CreatedTo   string `form:"created_to"`
}

func (s *Server) ListCommissions(c *gin.Context) {
	var query listCommissionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var createdFrom *time.Time
	if raw := strings.TrimSpace(query.CreatedFrom); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("created_from", "invalid_created_from", "invalid created_from"))
			return
		}
		createdFrom = &parsed
	}
	var createdTo *time.Time
	if raw := strings.TrimSpace(query.CreatedTo); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("created_to", "invalid_created_to", "invalid created_to"))
			return
		}
		createdTo = &parsed
	}

	resp, err := s.commissionSvc.List(c.Request.Context(), commissiondomain.ListRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		Status:      strings.TrimSpace(query.Status),
		PartnerID:   strings.TrimSpace(query.PartnerID),
		ProgramID:   strings.TrimSpace(query.ProgramID),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Commissions, "page_info": resp.PageInfo})
}

func (s *Server) GetCommissionByID(c *gin.Context) {
	commission, err := s.commissionSvc.GetByID(c.Request.Context(), commissiondomain.GetRequest{
		ID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": commission})
}

type transitionCommissionRequest struct {
	Status string `json:"status"`
}

func (s *Server) TransitionCommission(c *gin.Context) {
	var req transitionCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	commission, err := s.commissionSvc.Transition(c.Request.Context(), commissiondomain.TransitionRequest{
		ID:           c.Param("id"),
		TargetStatus: req.Status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": commission})
}

func (s *Server) ForceCommissionStatus(c *gin.Context) {
	var req transitionCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	commission, err := s.commissionSvc.ForceStatus(c.Request.Context(), commissiondomain.ForceStatusRequest{
		ID:           c.Param("id"),
		TargetStatus: req.Status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": commission})
}

func (s *Server) DeleteCommission(c *gin.Context) {
	resp, err := s.commissionSvc.Delete(c.Request.Context(), commissiondomain.DeleteRequest{
		ID:    c.Param("id"),
		Actor: strings.TrimSpace(c.GetHeader(HeaderActorID)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
