package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	affiliatedomain "github.com/redeviva/redeviva/internal/affiliate/domain"
	ruledomain "github.com/redeviva/redeviva/internal/commissionrule/domain"
	"github.com/redeviva/redeviva/internal/config"
	consortiumdomain "github.com/redeviva/redeviva/internal/consortium/domain"
	ledgerdomain "github.com/redeviva/redeviva/internal/ledger/domain"
	"github.com/redeviva/redeviva/internal/seed"
	withdrawaldomain "github.com/redeviva/redeviva/internal/withdrawal/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// MySQL and SQLite deployments get their schema from the models
			// directly; the versioned SQL is written for Postgres.
			if err := conn.AutoMigrate(
				&affiliatedomain.Affiliate{},
				&ledgerdomain.Balance{},
				&ledgerdomain.CommissionEvent{},
				&ruledomain.CommissionScope{},
				&ruledomain.CommissionRule{},
				&consortiumdomain.Group{},
				&consortiumdomain.Participant{},
				&consortiumdomain.Draw{},
				&withdrawaldomain.Withdrawal{},
			); err != nil {
				return err
			}
		}

		return seed.EnsureDefaultRules(conn)
	}),
)
