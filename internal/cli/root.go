// Package cli implements the smartplot command line tool: a demo producer,
// a receiver that prints or records plot messages, and a capture replayer.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// app is the state shared by the subcommands, filled in by the root
// command's pre-run.
type app struct {
	cfgFile  string
	logLevel string

	cfg    *Config
	logger *slog.Logger
}

// NewRootCommand builds the smartplot command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "smartplot",
		Short: "Stream, receive and replay plot data",
		Long: `smartplot talks the plot streaming protocol. It can generate demo
curves, act as a minimal plotter that prints or records what it receives,
and replay recorded capture files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(a.cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if a.logLevel != "" {
				cfg.LogLevel = a.logLevel
			}

			level, err := parseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newSendCommand(a),
		newListenCommand(a),
		newReplayCommand(a),
	)

	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)

	return root.ExecuteContext(ctx)
}
