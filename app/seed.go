package app

import (
	"github.com/spf13/cobra"

	"github.com/openpulpit/openpulpit/internal/authz"
	"github.com/openpulpit/openpulpit/internal/config"
	"github.com/openpulpit/openpulpit/internal/daemon"
	"github.com/openpulpit/openpulpit/internal/logger"
	"github.com/openpulpit/openpulpit/internal/seeder"
)

func init() { //nolint: gochecknoinits
	seedCmd.Flags().StringVarP(&configPath, "config", "c", "./etc/", "Path to the configuration directory")

	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run the bootstrap seeding sequence and exit",
	Long: `Seed migrates the database schema and runs the three-stage bootstrap
sequence (roles, permission catalog, initial users). Every stage only runs
against an empty table, so seeding an already populated database is a no-op.`,
	PreRun: func(_ *cobra.Command, _ []string) {
		if cfg, err = config.ReadConfig(configPath); err != nil {
			panic(err)
		}

		if err = logger.Init(cfg.Log); err != nil {
			panic(err)
		}
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		db := daemon.OpenDB(&cfg)

		registry, err := authz.LoadRegistry(cfg.Authz.RegistryPath)
		if err != nil {
			return err
		}

		data, err := seeder.LoadDatasets(cfg.Seed.Dir)
		if err != nil {
			return err
		}

		return seeder.Bootstrap(db, registry, data)
	},
}
