package balance

import (
	"github.com/cwu2020/reflist-sub001/internal/balance/service"
	"go.uber.org/fx"
)

var Module = fx.Module("balance.service",
	fx.Provide(service.NewService),
)
