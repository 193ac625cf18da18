package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	claimdomain "github.com/cwu2020/reflist-sub001/internal/claim/domain"
)

type unclaimedQuery struct {
	PhoneNumber string `form:"phone_number"`
}

func (s *Server) GetUnclaimed(c *gin.Context) {
	var query unclaimedQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.claimSvc.Unclaimed(c.Request.Context(), claimdomain.UnclaimedRequest{
		PhoneNumber: strings.TrimSpace(query.PhoneNumber),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type claimRequest struct {
	PhoneNumber string `json:"phone_number"`
	UserID      string `json:"user_id"`
}

func (s *Server) ClaimCommissions(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.claimSvc.Claim(c.Request.Context(), claimdomain.ClaimRequest{
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		UserID:      strings.TrimSpace(req.UserID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

type startVerificationRequest struct {
	PhoneNumber string `json:"phone_number"`
}

func (s *Server) StartVerification(c *gin.Context) {
	var req startVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	verification, err := s.claimSvc.StartVerification(c.Request.Context(), claimdomain.StartVerificationRequest{
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": verification})
}

func (s *Server) GetVerification(c *gin.Context) {
	verification, err := s.claimSvc.LookupVerification(c.Request.Context(), claimdomain.LookupVerificationRequest{
		Token: c.Param("token"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": verification})
}
