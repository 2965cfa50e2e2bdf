package main

import (
	"github.com/spf13/cobra"

	"github.com/itchan-dev/foro/shared/config"
	"github.com/itchan-dev/foro/shared/logger"
)

var (
	configFolder string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "forotree",
	Short: "Inspect forum reply trees and realtime events",
	Long: `forotree talks to the same forum gateway and realtime channel as the
frontend, using the frontend's config folder.

Available commands:
  arbol    - print the reply tree of a forum
  escuchar - print reply events as they arrive
  token    - mint a session token for local testing`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Initialize(logLevel, false)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log_level", "warn", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(arbolCmd, escucharCmd, tokenCmd)
}

func loadConfig() (*config.Config, error) {
	return config.Load(configFolder)
}
