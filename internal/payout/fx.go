package payout

import (
	"github.com/cwu2020/reflist-sub001/internal/payout/repository"
	"github.com/cwu2020/reflist-sub001/internal/payout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payout.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
