package familyaccount

import (
	"go.uber.org/fx"

	"github.com/littleoaks/sprout/internal/familyaccount/service"
)

var Module = fx.Module("familyaccount.service",
	fx.Provide(service.NewService),
)
