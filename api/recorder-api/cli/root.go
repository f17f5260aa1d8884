// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rapidaai/speaking-coach/config"
	"github.com/rapidaai/speaking-coach/pkg/commons"
	"github.com/rapidaai/speaking-coach/pkg/utils"
)

var (
	version = "0.1.0"
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:          "speaking-coach",
	Short:        "Speaking coach recorder",
	Long:         `speaking-coach records spoken answers, streams live transcription and scores them with Gemini`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("speaking-coach v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "env file to load (default is ./.env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level to the console")

	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadApplication reads the configuration and builds the application logger.
// The record command keeps the console quiet unless --verbose is set so the
// transcript stays readable.
func loadApplication(console bool) (*config.AppConfig, commons.Logger, error) {
	if cfgFile != "" {
		if err := os.Setenv("ENV_PATH", cfgFile); err != nil {
			return nil, nil, err
		}
	}
	vConfig, err := config.InitConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name),
		commons.Path(cfg.LogPath),
		commons.Level(level),
		commons.Console(console || verbose),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	utils.SetPanicHandler(func(_ context.Context, recovered interface{}, stack []byte) {
		logger.Errorw("recovered goroutine panic", "panic", recovered, "stack", string(stack))
	})
	return cfg, logger, nil
}
