package cli

import (
	"os"
	"os/signal"
	"syscall"

	"kudos-bot/bot"
	"kudos-bot/catalog"
	"kudos-bot/errs"
	"kudos-bot/flow"
	"kudos-bot/store"

	"github.com/google/logger"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(rootOpts)
		},
	}
}

func serve(opts *RootOptions) error {
	cfg := opts.Config
	if err := cfg.RequireToken(); err != nil {
		return err
	}

	defaults, err := catalog.Load()
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close(db)

	sessions := flow.NewSessions()
	machine := flow.New(flow.Deps{
		Members:  store.NewMembers(db),
		Bindings: store.NewBindings(db),
		Ledger:   store.NewLedger(db),
		Shop:     store.NewShop(db, defaults.Items),
		Reasons:  defaults.Reasons,
		Sessions: sessions,
		PageSize: cfg.PageSize,
	})

	b, err := bot.NewBot(cfg.BotToken, cfg.PollTimeout, machine)
	if err != nil {
		return err
	}

	// Scheduler
	c := cron.New()
	if _, err := c.AddFunc(cfg.SessionSweep, func() {
		if n := sessions.CleanUpInactive(cfg.SessionIdle); n > 0 {
			logger.V(1).Infof("dropped %d idle sessions", n)
		}
	}); err != nil {
		return errs.Wrapf(err, "schedule session sweep %q", cfg.SessionSweep)
	}
	c.Start()
	defer c.Stop()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		b.Stop()
	}()

	logger.Infof("using database %s", cfg.DBPath)
	b.Start()
	return nil
}
