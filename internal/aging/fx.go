package aging

import (
	"go.uber.org/fx"

	"github.com/littleoaks/sprout/internal/aging/service"
)

var Module = fx.Module("aging.service",
	fx.Provide(service.NewService),
)
