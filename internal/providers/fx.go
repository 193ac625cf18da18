package providers

import (
	"github.com/cwu2020/reflist-sub001/internal/providers/pdf"
	"github.com/cwu2020/reflist-sub001/internal/providers/sms"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	pdf.Module,
	sms.Module,
)
