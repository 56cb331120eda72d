// Package cli is the gymbuddy command line: the TUI by default, plus one-shot
// commands for scripting and the reminder daemon.
package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sadopc/gymbuddy/internal/config"
	"github.com/sadopc/gymbuddy/internal/logging"
	"github.com/sadopc/gymbuddy/internal/metrics"
	"github.com/sadopc/gymbuddy/internal/reminder"
	"github.com/sadopc/gymbuddy/internal/service"
	"github.com/sadopc/gymbuddy/internal/store"
)

// CLI holds the state shared by every command.
type CLI struct {
	v          *viper.Viper
	configFile string
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	c := &CLI{v: viper.New()}

	root := &cobra.Command{
		Use:   "gymbuddy",
		Short: "Hydration reminders and workout tracking",
		Long: `gymbuddy plans your daily water intake from your weight and active hours
and reminds you to drink, one serving at a time.

Run without a command to open the dashboard.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTUI(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configFile, "config", "", "config file (default ~/.config/gymbuddy/config.yaml)")
	pf.String("db", "", "sqlite database path")
	pf.String("user", "", "user id the reminders belong to")
	pf.String("log-level", "", "debug, info, warn or error")
	_ = c.v.BindPFlag("db_path", pf.Lookup("db"))
	_ = c.v.BindPFlag("user_id", pf.Lookup("user"))
	_ = c.v.BindPFlag("log_level", pf.Lookup("log-level"))

	root.AddCommand(newPlanCommand(c))
	root.AddCommand(newArrangeCommand(c))
	root.AddCommand(newCancelCommand(c))
	root.AddCommand(newTestNotifyCommand(c))
	root.AddCommand(newStatusCommand(c))
	root.AddCommand(newCheckInCommand(c))
	root.AddCommand(newDrinkCommand(c))
	root.AddCommand(newExportCommand(c))
	root.AddCommand(newDaemonCommand(c))
	root.AddCommand(newSyncCommand(c))
	return root
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// runtime is everything a command needs once config is loaded.
type runtime struct {
	cfg      *config.Config
	logger   *zap.SugaredLogger
	store    *store.Store
	registry *prometheus.Registry
	svc      *service.Hydration

	closers []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

type setup struct {
	// tee copies log lines to stderr.
	tee bool
	// dispatcher builds the dispatcher once the store and logger exist.
	dispatcher func(cfg *config.Config, st *store.Store, logger *zap.SugaredLogger) reminder.Dispatcher
	// restore re-arms persisted triggers before the command runs.
	restore bool
}

// open loads config, then opens the logger, the store, the metrics registry
// and the hydration service, in that order.
func (c *CLI) open(s setup) (*runtime, error) {
	cfg, err := config.Load(c.v, c.configFile)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg}

	logger, closeLog, err := logging.New(cfg.LogLevel, cfg.LogFile, s.tee)
	if err != nil {
		return nil, err
	}
	rt.logger = logger
	rt.closers = append(rt.closers, closeLog)

	st, err := store.New(cfg.DBPath)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	rt.store = st
	rt.closers = append(rt.closers, func() { st.Close() })

	rt.registry = prometheus.NewRegistry()
	m, err := metrics.New(rt.registry)
	if err != nil {
		rt.Close()
		return nil, err
	}

	var dispatcher reminder.Dispatcher
	if s.dispatcher != nil {
		dispatcher = s.dispatcher(cfg, st, logger)
	}
	rt.svc = service.New(st, service.Options{
		UserID:         cfg.UserID,
		Dispatcher:     dispatcher,
		Logger:         logger,
		Metrics:        m,
		DailySpec:      cfg.DailyReplan,
		ReconcileEvery: cfg.Reconcile,
	})
	rt.closers = append(rt.closers, rt.svc.Stop)

	if s.restore {
		n, err := rt.svc.Restore()
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("restore triggers: %w", err)
		}
		logger.Debugf("cli: restored %d triggers for %s", n, cfg.UserID)
	}
	return rt, nil
}
