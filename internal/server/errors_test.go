package server

import (
	"errors"
	"net/http"
	"testing"

	"gorm.io/gorm"

	balancedomain "github.com/cwu2020/reflist-sub001/internal/balance/domain"
	claimdomain "github.com/cwu2020/reflist-sub001/internal/claim/domain"
	commissiondomain "github.com/cwu2020/reflist-sub001/internal/commission/domain"
	payoutdomain "github.com/cwu2020/reflist-sub001/internal/payout/domain"
)

func TestMapErrorByKind(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"commission invariant", commissiondomain.ErrStateInvariantViolation, http.StatusConflict, "state_invariant_violation"},
		{"attached to payout", commissiondomain.ErrAttachedToPayout, http.StatusConflict, "state_invariant_violation"},
		{"payout transition", payoutdomain.ErrInvalidTransition, http.StatusConflict, "state_invariant_violation"},
		{"payout amount", payoutdomain.ErrInvalidPayoutAmount, http.StatusBadRequest, "invalid_payout_amount"},
		{"insufficient balance", payoutdomain.ErrInsufficientBalance, http.StatusBadRequest, "invalid_payout_amount"},
		{"missing program", payoutdomain.ErrMissingProgram, http.StatusBadRequest, "missing_program"},
		{"commission conflict", commissiondomain.ErrConflict, http.StatusConflict, "conflict"},
		{"payout conflict", payoutdomain.ErrConflict, http.StatusConflict, "conflict"},
		{"withdrawal in progress", payoutdomain.ErrWithdrawalInProgress, http.StatusConflict, "conflict"},
		{"commission not found", commissiondomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"payout not found", payoutdomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"verification not found", claimdomain.ErrVerificationNotFound, http.StatusNotFound, "not_found"},
		{"verification expired", claimdomain.ErrVerificationExpired, http.StatusNotFound, "not_found"},
		{"user not found", claimdomain.ErrUserNotFound, http.StatusNotFound, "not_found"},
		{"gorm not found", gorm.ErrRecordNotFound, http.StatusNotFound, "not_found"},
		{"invalid scope", balancedomain.ErrInvalidScope, http.StatusBadRequest, "validation_error"},
		{"invalid phone", claimdomain.ErrInvalidPhone, http.StatusBadRequest, "validation_error"},
		{"invalid commission id", commissiondomain.ErrInvalidID, http.StatusBadRequest, "validation_error"},
		{"invalid payout partner", payoutdomain.ErrInvalidPartner, http.StatusBadRequest, "validation_error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		{"nil", nil, http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			if status != tc.wantStatus {
				t.Fatalf("status = %d, want %d", status, tc.wantStatus)
			}
			if payload.Type != tc.wantType {
				t.Fatalf("type = %q, want %q", payload.Type, tc.wantType)
			}
		})
	}
}

func TestMapErrorKeepsValidationDetails(t *testing.T) {
	status, payload := mapError(newValidationError("partner_id", "invalid_partner_id", "invalid partner id"))
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if payload.Type != "validation_error" {
		t.Fatalf("type = %q", payload.Type)
	}
	if len(payload.Errors) != 1 || payload.Errors[0].Field != "partner_id" || payload.Errors[0].Code != "invalid_partner_id" {
		t.Fatalf("details lost: %+v", payload.Errors)
	}
}

func TestMapErrorSentinelValidationCarriesCode(t *testing.T) {
	_, payload := mapError(claimdomain.ErrInvalidPhone)
	if len(payload.Errors) != 1 {
		t.Fatalf("expected one detail, got %d", len(payload.Errors))
	}
	if payload.Errors[0].Code != "invalid_phone_number" {
		t.Fatalf("code = %q", payload.Errors[0].Code)
	}
	if payload.Errors[0].Field != "phone_number" {
		t.Fatalf("field = %q", payload.Errors[0].Field)
	}
}

func TestClassifyErrorForLog(t *testing.T) {
	kind, code := classifyErrorForLog(commissiondomain.ErrStateInvariantViolation)
	if kind != "state_invariant_violation" || code != "" {
		t.Fatalf("got %q/%q", kind, code)
	}
	kind, code = classifyErrorForLog(claimdomain.ErrInvalidPhone)
	if kind != "validation_error" || code != "invalid_phone_number" {
		t.Fatalf("got %q/%q", kind, code)
	}
}
