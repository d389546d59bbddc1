package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath to the configuration YAML file; empty searches configs/config.yml.
	configPath string

	rootCmd = &cobra.Command{
		Use:   "sensor-telemetry",
		Short: "Ingest IO-Link sensor telemetry over MQTT, serve it over HTTP and augment it",
		// serving is the default action
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file")

	rootCmd.AddCommand(serveCmd, augmentCmd, configCmd)
}
