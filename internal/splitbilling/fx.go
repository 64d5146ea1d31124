package splitbilling

import (
	"go.uber.org/fx"

	"github.com/littleoaks/sprout/internal/splitbilling/render"
	"github.com/littleoaks/sprout/internal/splitbilling/service"
)

var Module = fx.Module("splitbilling.service",
	fx.Provide(render.NewRenderer),
	fx.Provide(service.NewService),
)
