package app

import (
	"github.com/spf13/cobra"

	"github.com/openpulpit/openpulpit/internal/config"
	"github.com/openpulpit/openpulpit/internal/daemon"
	"github.com/openpulpit/openpulpit/internal/logger"
)

func init() { //nolint: gochecknoinits
	startCmd.Flags().StringVarP(&configPath, "config", "c", "./etc/", "Path to the configuration directory")
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode")

	rootCmd.AddCommand(startCmd)
}

var (
	configPath string // Path to the configuration directory

	cfg     config.Config
	err     error
	devMode bool

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the OpenPulpit authorization service",
		PreRun: func(_ *cobra.Command, _ []string) {
			if cfg, err = config.ReadConfig(configPath); err != nil {
				panic(err)
			}

			if devMode {
				cfg.DevMode = true
			}

			if err = logger.Init(cfg.Log); err != nil {
				panic(err)
			}
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			d := daemon.New(&cfg)

			// the signal handler drains in-flight requests and then
			// shuts the fiber app down, which unblocks Start
			go d.WaitShutdown()

			return d.Start()
		},
	}
)
