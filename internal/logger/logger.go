// Package logger provides the zap logger as an fx module.
package logger

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/littleoaks/sprout/internal/config"
)

// Module provides *zap.Logger and redirects fx's own events through it.
var Module = fx.Module("logger",
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, log *zap.Logger) {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				_ = log.Sync()
				return nil
			},
		})
	}),
)

// New builds a production logger, or a human-readable development logger
// outside production.
func New(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
