package sms

import "context"

// ClaimNotice is the message sent after a phone number's splits settle.
type ClaimNotice struct {
	PhoneNumber     string `json:"phone_number"`
	ClaimedCount    int64  `json:"claimed_count"`
	ClaimedEarnings int64  `json:"claimed_earnings"`
}

type Provider interface {
	SendClaimNotice(ctx context.Context, notice ClaimNotice) error
}

type NoOpProvider struct{}

func NewNoOpProvider() Provider {
	return &NoOpProvider{}
}

func (p *NoOpProvider) SendClaimNotice(ctx context.Context, notice ClaimNotice) error {
	return nil
}
