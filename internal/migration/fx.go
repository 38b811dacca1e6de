package migration

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	accountdomain "github.com/smallbiznis/folio/internal/account/domain"
	auditdomain "github.com/smallbiznis/folio/internal/audit/domain"
	"github.com/smallbiznis/folio/internal/config"
	documentdomain "github.com/smallbiznis/folio/internal/document/domain"
	idemdomain "github.com/smallbiznis/folio/internal/idempotency/domain"
	inventorydomain "github.com/smallbiznis/folio/internal/inventory/domain"
	itemdomain "github.com/smallbiznis/folio/internal/item/domain"
	ledgerdomain "github.com/smallbiznis/folio/internal/ledger/domain"
	orgdomain "github.com/smallbiznis/folio/internal/organization/domain"
	"github.com/smallbiznis/folio/internal/seed"
	seqdomain "github.com/smallbiznis/folio/internal/sequence/domain"
	taxdomain "github.com/smallbiznis/folio/internal/tax/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// The versioned migrations target postgres; other dialects are
			// for local development and get the gorm schema directly.
			if err := conn.AutoMigrate(
				&orgdomain.Organization{},
				&accountdomain.Account{},
				&taxdomain.TaxCode{},
				&itemdomain.Unit{},
				&itemdomain.Item{},
				&documentdomain.Document{},
				&documentdomain.Line{},
				&documentdomain.Allocation{},
				&ledgerdomain.GLHeader{},
				&ledgerdomain.GLLine{},
				&idemdomain.Key{},
				&seqdomain.Counter{},
				&inventorydomain.Movement{},
				&auditdomain.AuditLog{},
			); err != nil {
				return err
			}
		}

		return seed.EnsureDefaultOrg(conn, node)
	}),
)
