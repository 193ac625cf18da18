package commission

import (
	"github.com/cwu2020/reflist-sub001/internal/commission/repository"
	"github.com/cwu2020/reflist-sub001/internal/commission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("commission.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
