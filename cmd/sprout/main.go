package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/littleoaks/sprout/internal/aging"
	"github.com/littleoaks/sprout/internal/clock"
	"github.com/littleoaks/sprout/internal/config"
	"github.com/littleoaks/sprout/internal/events"
	"github.com/littleoaks/sprout/internal/familyaccount"
	"github.com/littleoaks/sprout/internal/feeschedule"
	"github.com/littleoaks/sprout/internal/invoice"
	"github.com/littleoaks/sprout/internal/logger"
	"github.com/littleoaks/sprout/internal/migration"
	"github.com/littleoaks/sprout/internal/payment"
	"github.com/littleoaks/sprout/internal/seed"
	"github.com/littleoaks/sprout/internal/server"
	"github.com/littleoaks/sprout/internal/settings"
	"github.com/littleoaks/sprout/internal/splitbilling"
	"github.com/littleoaks/sprout/pkg/db"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		clock.Module,
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if err := seed.EnsureFacilitySettings(conn); err != nil {
				return err
			}
			if cfg.Bootstrap.SeedDemoTiers {
				return seed.EnsureDemoFeeTiers(conn)
			}
			return nil
		}),
		events.Module,
		settings.Module,
		feeschedule.Module,
		invoice.Module,
		payment.Module,
		splitbilling.Module,
		aging.Module,
		familyaccount.Module,
		server.Module,
	)
	app.Run()
}
