package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sweeney/ledctl/internal/config"
	"github.com/sweeney/ledctl/internal/logger"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "ledctl",
		Short: "Serial line-command controller for red, yellow and green outputs",
		Long: `ledctl reads commands such as "red_on" or "all_off" from a serial link,
drives the matching GPIO lines and answers each command with one status line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			log, err := logger.New(logger.Config{
				Level:      cfg.Log.Level,
				Format:     cfg.Log.Format,
				File:       cfg.Log.File,
				MaxSizeMB:  cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
				MaxAgeDays: cfg.Log.MaxAgeDays,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()

			return run(cfg, log)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	config.RegisterFlags(cmd.Flags())

	cmd.AddCommand(newSendCmd(), newSignalCmd(), newCommandsCmd())
	return cmd
}
