// Package daemon wires the database, permission registry, bootstrap seeder,
// and web service into the running application.
package daemon

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/openpulpit/openpulpit/internal/authz"
	"github.com/openpulpit/openpulpit/internal/config"
	"github.com/openpulpit/openpulpit/internal/db/dsn"
	"github.com/openpulpit/openpulpit/internal/db/models"
	"github.com/openpulpit/openpulpit/internal/seeder"
	"github.com/openpulpit/openpulpit/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	webService *web.Service
	cfg        *config.Config
}

// Start starts the Daemon's web service.
func (d *Daemon) Start() error {
	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// WaitShutdown blocks until the web service has shut down gracefully.
func (d *Daemon) WaitShutdown() {
	d.webService.WaitShutdown()
}

// New creates a new Daemon instance with the provided configuration.
// It opens the database, migrates the schema, runs the one-time bootstrap
// sequence, and builds the web service.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db := OpenDB(cfg)

	registry, err := authz.LoadRegistry(cfg.Authz.RegistryPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Authz.RegistryPath).Msg("failed to load permission registry")
	}

	data, err := seeder.LoadDatasets(cfg.Seed.Dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Seed.Dir).Msg("failed to load seed datasets")
	}

	if err = seeder.Bootstrap(db, registry, data); err != nil {
		log.Fatal().Err(err).Msg("bootstrap seeding failed")
	}

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db, registry),
	}
}

// OpenDB opens the configured database and migrates the schema.
func OpenDB(cfg *config.Config) *gorm.DB {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case "postgres":
		dialector = postgres.Open(dsn.CreatePostgres(cfg))
	default:
		dialector = mysql.Open(dsn.Create(cfg))
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	if err = db.AutoMigrate(
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
		&models.User{},
		&models.Credential{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	return db
}
