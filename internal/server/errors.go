package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	balancedomain "github.com/cwu2020/reflist-sub001/internal/balance/domain"
	claimdomain "github.com/cwu2020/reflist-sub001/internal/claim/domain"
	commissiondomain "github.com/cwu2020/reflist-sub001/internal/commission/domain"
	partnerdomain "github.com/cwu2020/reflist-sub001/internal/partner/domain"
	payoutdomain "github.com/cwu2020/reflist-sub001/internal/payout/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		if errors.Is(err, ErrInvalidRequest) {
			code = "invalid_request"
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, commissiondomain.ErrStateInvariantViolation),
		errors.Is(err, commissiondomain.ErrAttachedToPayout),
		errors.Is(err, payoutdomain.ErrInvalidTransition):
		return http.StatusConflict, errorPayload{
			Type:    "state_invariant_violation",
			Message: "transition not permitted from the current state",
		}
	case errors.Is(err, payoutdomain.ErrInvalidPayoutAmount):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_payout_amount",
			Message: "payout amount must be positive",
		}
	case errors.Is(err, payoutdomain.ErrInsufficientBalance):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_payout_amount",
			Message: "requested amount exceeds available balance",
		}
	case errors.Is(err, payoutdomain.ErrMissingProgram):
		return http.StatusBadRequest, errorPayload{
			Type:    "missing_program",
			Message: "no program could be resolved for the payout",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, commissiondomain.ErrConflict),
		errors.Is(err, payoutdomain.ErrConflict),
		errors.Is(err, payoutdomain.ErrWithdrawalInProgress):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, commissiondomain.ErrInvalidID),
		errors.Is(err, commissiondomain.ErrInvalidStatus),
		errors.Is(err, commissiondomain.ErrInvalidWorkspace),
		errors.Is(err, payoutdomain.ErrInvalidID),
		errors.Is(err, payoutdomain.ErrInvalidStatus),
		errors.Is(err, payoutdomain.ErrInvalidPartner),
		errors.Is(err, payoutdomain.ErrInvalidWorkspace),
		errors.Is(err, balancedomain.ErrInvalidScope),
		errors.Is(err, claimdomain.ErrInvalidPhone),
		errors.Is(err, claimdomain.ErrInvalidUser),
		errors.Is(err, partnerdomain.ErrInvalidUser),
		errors.Is(err, partnerdomain.ErrInvalidWorkspace),
		errors.Is(err, partnerdomain.ErrInvalidProgram):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, commissiondomain.ErrNotFound),
		errors.Is(err, payoutdomain.ErrNotFound),
		errors.Is(err, claimdomain.ErrUserNotFound),
		errors.Is(err, claimdomain.ErrVerificationNotFound),
		errors.Is(err, claimdomain.ErrVerificationExpired),
		errors.Is(err, partnerdomain.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

// classifyErrorForLog feeds the request logger's error fields without
// rendering a response body.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := ""
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}
