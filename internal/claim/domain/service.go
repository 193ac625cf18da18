package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidPhone         = errors.New("invalid_phone_number")
	ErrInvalidUser          = errors.New("invalid_user")
	ErrUserNotFound         = errors.New("user_not_found")
	ErrVerificationNotFound = errors.New("verification_not_found")
	ErrVerificationExpired  = errors.New("verification_expired")
)

type ClaimRequest struct {
	PhoneNumber string
	UserID      string
}

type StartVerificationRequest struct {
	PhoneNumber string
}

type LookupVerificationRequest struct {
	Token string
}

type UnclaimedRequest struct {
	PhoneNumber string
}

type UnclaimedResponse struct {
	PhoneNumber string `json:"phone_number"`
	Count       int64  `json:"count"`
	Earnings    int64  `json:"earnings"`
}

type Service interface {
	// Claim settles every unclaimed split keyed by the phone number onto the
	// user's partner. Repeat calls return an empty result.
	Claim(ctx context.Context, req ClaimRequest) (*ClaimResult, error)

	// StartVerification mints a token for the phone number together with a
	// snapshot of what is currently claimable.
	StartVerification(ctx context.Context, req StartVerificationRequest) (*Verification, error)

	// LookupVerification resolves a token minted by StartVerification.
	LookupVerification(ctx context.Context, req LookupVerificationRequest) (*Verification, error)

	// Unclaimed reports what a phone number could claim right now.
	Unclaimed(ctx context.Context, req UnclaimedRequest) (*UnclaimedResponse, error)
}
