package settings

import (
	"go.uber.org/fx"

	"github.com/littleoaks/sprout/internal/settings/service"
)

var Module = fx.Module("settings.service",
	fx.Provide(service.NewService),
)
