package cli

import (
	"io"
	"os"

	"kudos-bot/config"

	"github.com/google/logger"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DBPath  string
	Verbose bool

	// Config is populated before any subcommand runs.
	Config config.Config
}

// NewRootCommand creates the root command for the kudos bot.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "kudos-bot",
		Short: "Peer recognition bot",
		Long:  "A Telegram bot where colleagues give each other pluses and spend them in a small shop.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.DBPath != "" {
				cfg.DBPath = opts.DBPath
			}
			if opts.Verbose {
				cfg.Verbose = true
			}
			opts.Config = cfg
			initLogging(cfg.Verbose)
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite database path (overrides DB_PATH)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log every state transition")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMemberCommand(opts))
	cmd.AddCommand(NewItemCommand(opts))

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func initLogging(verbose bool) {
	logger.Init("kudos-bot", true, false, io.Discard)
	if verbose {
		logger.SetLevel(1)
	}
}
