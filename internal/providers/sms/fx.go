package sms

import (
	"strings"

	"go.uber.org/fx"

	"github.com/cwu2020/reflist-sub001/internal/config"
)

var Module = fx.Module("providers.sms",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) Provider {
	if url := strings.TrimSpace(cfg.SMSWebhookURL); url != "" {
		return NewWebhook(url)
	}
	return &NoOpProvider{}
}
