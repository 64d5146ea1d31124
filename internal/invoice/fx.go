package invoice

import (
	"go.uber.org/fx"

	"github.com/littleoaks/sprout/internal/invoice/service"
)

var Module = fx.Module("invoice.service",
	fx.Provide(service.NewSchedulePricer),
	fx.Provide(service.NewService),
)
