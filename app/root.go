// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "openpulpit",
	Short: "OpenPulpit is the authorization service for the OpenPulpit platform",
	Long: `OpenPulpit manages roles, permissions and API credentials for the
OpenPulpit content platform and answers authorization queries over a REST API.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
