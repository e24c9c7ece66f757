package repository

import (
	"fmt"

	"github.com/propfolio/propfolio/internal/config"
	"github.com/propfolio/propfolio/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Open(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	switch cfg.DatabaseDriver {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DatabaseDSN), gormCfg)
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.DatabaseDSN), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Session{},
		&domain.Property{},
		&domain.Tenant{},
		&domain.Lease{},
		&domain.Payment{},
		&domain.Notification{},
	)
}
