package migration

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/cwu2020/reflist-sub001/internal/config"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// Versioned migrations are postgres-only; other dialects are expected
		// to bring their own schema.
		if strings.EqualFold(strings.TrimSpace(cfg.DBType), "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		}

		if cfg.DefaultWorkspaceID != 0 {
			return EnsureWorkspace(conn, snowflake.ID(cfg.DefaultWorkspaceID))
		}
		return nil
	}),
)
