package config

import (
	"github.com/openpulpit/openpulpit/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Authz     Authz
	Seed      Seed
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain       string // domain name for the webserver
	Port         int    // listening port for the webserver
	ShutDownTime int    // wait time for shutdown
	URL          string // base url for the webserver
}

// Authz holds the permission registry settings.
type Authz struct {
	// RegistryPath is the TOML file with the per-user-type default
	// permission sets and per-role nominal catalogs.
	RegistryPath string `toml:"registryPath"`
}

// Seed holds the bootstrap seeding settings.
type Seed struct {
	// Dir is the directory containing the roles/permissions/users datasets.
	Dir string `toml:"dir"`
}
