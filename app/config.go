package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openpulpit/openpulpit/internal/config"
)

func init() { //nolint: gochecknoinits
	configCmd.Flags().StringVarP(&configPath, "config", "c", "./etc/", "Path to the configuration directory")
	configCmd.Flags().BoolVar(&configAsJSON, "json", false, "Dump the configuration as JSON")

	rootCmd.AddCommand(configCmd)
}

var (
	configAsJSON bool

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.ReadConfig(configPath)
			if err != nil {
				return err
			}

			dump := config.DumpConfig
			if configAsJSON {
				dump = config.DumpConfigJSON
			}

			out, err := dump(cfg)
			if err != nil {
				return err
			}

			fmt.Println(out)

			return nil
		},
	}
)
