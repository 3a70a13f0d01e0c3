package main

import (
	"log"
	"os"

	"ems-inventory/internal/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ems-inventory",
	Short: "EMS supply inventory API",
	// Without a subcommand the binary serves the API.
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
	SilenceUsage: true,
}

func main() {
	config.LoadEnv()
	if err := rootCmd.Execute(); err != nil {
		log.Printf("[FATAL] %v", err)
		os.Exit(1)
	}
}
