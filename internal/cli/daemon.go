package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/firestore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/sadopc/gymbuddy/internal/config"
	"github.com/sadopc/gymbuddy/internal/metrics"
	"github.com/sadopc/gymbuddy/internal/notify"
	"github.com/sadopc/gymbuddy/internal/profile"
	"github.com/sadopc/gymbuddy/internal/reminder"
	"github.com/sadopc/gymbuddy/internal/store"
)

// notifierFor posts reminders the way the config asks and always records
// them as delivery history.
func notifierFor(cfg *config.Config, st *store.Store, logger *zap.SugaredLogger) reminder.Dispatcher {
	var post reminder.Dispatcher = notify.NewLog(logger)
	if cfg.Notifier == "desktop" {
		post = notify.NewDesktop(logger)
	}
	return notify.Multi{post, notify.NewRecorder(st, cfg.UserID)}
}

func newDaemonCommand(c *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the reminder scheduler in the foreground",
		Long: `Keep the scheduled reminders firing without the dashboard open. The daemon
replans every day, picks up reminders scheduled by other gymbuddy commands and
serves Prometheus metrics when metrics_addr is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := c.open(setup{tee: true, dispatcher: notifierFor, restore: true})
			if err != nil {
				return err
			}
			defer rt.Close()
			return runDaemon(ctx, rt)
		},
	}
}

func runDaemon(ctx context.Context, rt *runtime) error {
	if err := rt.svc.Start(ctx); err != nil {
		return err
	}
	// Today's plan may not exist yet if the daemon starts after midnight.
	if _, err := rt.svc.Replan(ctx); err != nil && !errors.Is(err, store.ErrNotFound) {
		rt.logger.Warnf("daemon: initial replan: %v", err)
	}
	rt.logger.Infof("daemon: running for %s, %d reminders pending", rt.cfg.UserID, len(rt.svc.Pending()))

	if rt.cfg.MetricsAddr != "" {
		if err := metrics.Serve(ctx, rt.cfg.MetricsAddr, rt.registry, rt.logger); err != nil {
			return err
		}
	} else {
		<-ctx.Done()
	}
	rt.logger.Infof("daemon: shutting down")
	return nil
}

func newSyncCommand(c *CLI) *cobra.Command {
	var projectID, credentials string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Import the profile from the mobile app's Firestore document and replan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.open(setup{restore: true})
			if err != nil {
				return err
			}
			defer rt.Close()

			fs := rt.cfg.Firestore
			if !fs.Enabled && projectID == "" {
				return errors.New("firestore sync is disabled, set firestore.enabled or pass --project")
			}
			if projectID != "" {
				fs.ProjectID = projectID
			}
			if credentials != "" {
				fs.CredentialsFile = credentials
			}
			if fs.ProjectID == "" {
				return errors.New("firestore project id is not set (firestore.project_id or --project)")
			}

			ctx := cmd.Context()
			var opts []option.ClientOption
			if fs.CredentialsFile != "" {
				opts = append(opts, option.WithCredentialsFile(fs.CredentialsFile))
			}
			client, err := firestore.NewClient(ctx, fs.ProjectID, opts...)
			if err != nil {
				return fmt.Errorf("connect to firestore: %w", err)
			}
			defer client.Close()

			p, err := profile.Sync(ctx, profile.NewFirestore(client), rt.store, rt.cfg.UserID, rt.logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "synced %s: %.1f kg, active %s-%s\n", p.UserID, p.WeightKg, p.ActiveStart, p.ActiveEnd)

			report, err := rt.svc.Replan(ctx)
			if err != nil {
				return err
			}
			printReport(out, report, rt.svc.Pending())
			return nil
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "GCP project id (default firestore.project_id)")
	cmd.Flags().StringVar(&credentials, "credentials", "", "service account JSON (default firestore.credentials_file)")
	return cmd
}
