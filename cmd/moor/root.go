package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/moor/internal/app"
	"github.com/five82/moor/internal/config"
	"github.com/five82/moor/internal/logging"
)

// runFunc starts the dashboard. Tests replace it.
type runFunc func(cmd *cobra.Command, opts app.Options) error

func runApp(cmd *cobra.Command, opts app.Options) error {
	return app.Run(cmd.Context(), opts)
}

func newRootCmd(version string) *cobra.Command {
	return buildRootCmd(version, runApp)
}

func buildRootCmd(version string, start runFunc) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "moor",
		Short:         "Terminal dashboard for containers, images and volumes",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			logger, closer, err := logging.New(cfg.Log.File, cfg.Log.Level)
			if err != nil {
				return err
			}
			defer closer.Close()

			if cfg.File != "" {
				logger.Debug("config loaded", "path", cfg.File)
			}
			return start(cmd, app.Options{Config: cfg, Logger: logger, Version: version})
		},
	}

	flags := root.Flags()
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./moor.toml or ~/.config/moor/config.toml)")
	flags.String("socket", "", "daemon socket path (default: resolved from the active docker context)")
	flags.Int("tail", 0, "lines of history each log stream starts with")
	flags.Int("buffer-limit", 0, "bytes of log text kept per container, 0 for unbounded")
	flags.String("log-file", "", "moor's own log file")
	flags.String("log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(newInitCmd(&configPath), newVersionCmd(version))
	return root
}

func newInitCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.Write(*configPath, config.Default())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
