package feeschedule

import (
	"go.uber.org/fx"

	"github.com/littleoaks/sprout/internal/feeschedule/service"
)

var Module = fx.Module("feeschedule.service",
	fx.Provide(service.NewService),
)
