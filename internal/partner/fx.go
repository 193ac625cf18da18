package partner

import (
	"github.com/cwu2020/reflist-sub001/internal/partner/repository"
	"github.com/cwu2020/reflist-sub001/internal/partner/service"
	"go.uber.org/fx"
)

var Module = fx.Module("partner.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
