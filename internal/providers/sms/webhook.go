package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookProvider posts claim notices to an external SMS gateway. The gateway
// owns carrier delivery; we only hand off the payload.
type WebhookProvider struct {
	url    string
	client *http.Client
}

func NewWebhook(url string) *WebhookProvider {
	return &WebhookProvider{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (p *WebhookProvider) SendClaimNotice(ctx context.Context, notice ClaimNotice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sms webhook returned status %d", resp.StatusCode)
	}
	return nil
}
