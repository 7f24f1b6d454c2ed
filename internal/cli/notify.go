package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	cliadapter "github.com/example/rota/internal/adapters/cli"
	"github.com/example/rota/internal/core/week"
	"github.com/example/rota/internal/ports/primary"
	"github.com/example/rota/internal/watch"
	"github.com/example/rota/internal/wire"
)

// NotifyCmd returns the notify command
func NotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Reminder notifications",
		Long: `Evaluate reminder slots and record what the delivery agent did with them.

Reminders go out Monday 11:00 (weekly assignment), Sunday 18:00 and
Sunday 21:00 (pending weeks only), in the configured timezone.`,
	}

	cmd.AddCommand(notifyDueCmd())
	cmd.AddCommand(notifyRecordCmd())
	cmd.AddCommand(notifyWatchCmd())
	cmd.AddCommand(notifyDispatchesCmd())

	return cmd
}

func notifyDueCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "due",
		Short: "Print the reminders due at a minute as JSON lines",
		Long: `Print the reminders due at one minute. Nothing is written to the database.

Examples:
  rota notify due
  rota notify due --at 2026-10-19T11:00:00+02:00`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at %q: expected RFC 3339", at)
				}
				t = parsed
			}
			_, err := wire.NotificationAdapter().Due(cmd.Context(), t.Truncate(time.Minute))
			return err
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Minute to evaluate, RFC 3339 (default: now)")

	return cmd
}

func notifyRecordCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record delivery outcomes from JSON lines",
		Long: `Record delivery outcomes. Each line is a notification as printed by
'notify due' with a status (sent, failed, skipped, suppressed,
test_redirected) and optional reason and dispatched_at.

Examples:
  rota notify due | deliver | rota notify record --file -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeFn, err := openInput(file)
			if err != nil {
				return err
			}
			defer closeFn()

			dispatches, err := cliadapter.DecodeDispatches(r)
			if err != nil {
				return err
			}
			_, err = wire.NotificationAdapter().Record(cmd.Context(), dispatches)
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON lines file, - for stdin")

	return cmd
}

func notifyWatchCmd() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Emit reminders as they fall due",
		Long: `Evaluate every minute once and stream due reminders as JSON lines to
stdout until interrupted. Logs go to stderr.

Examples:
  rota notify watch
  rota notify watch --metrics-addr :9108`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := currentConfig(cmd)
			if metricsAddr == "" {
				metricsAddr = cfg.MetricsAddr
			}
			logger := wire.Logger()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if metricsAddr != "" {
				srv := &http.Server{
					Addr:              metricsAddr,
					Handler:           metricsHandler(),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("metrics server failed", "addr", metricsAddr, "error", err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
				logger.Info("serving metrics", "addr", metricsAddr)
			}

			w := watch.New(wire.NotificationService(), os.Stdout, watch.Config{
				Interval: cfg.WatchInterval,
				Logger:   logger,
			})
			logger.Info("watching reminder slots", "timezone", cfg.Timezone, "interval", cfg.WatchInterval)
			return w.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	return cmd
}

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(wire.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := wire.Store().Ping(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintln(w, "ok")
	})
	return mux
}

func notifyDispatchesCmd() *cobra.Command {
	var weekFlag, member, status string
	var limit int

	cmd := &cobra.Command{
		Use:   "dispatches",
		Short: "List recorded delivery outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := primary.DispatchFilters{MemberID: member, Status: status, Limit: limit}
			if weekFlag != "" {
				w, err := week.Parse(weekFlag)
				if err != nil {
					return err
				}
				filters.WeekStart = w
			}
			_, err := wire.NotificationAdapter().Dispatches(cmd.Context(), filters)
			return err
		},
	}

	cmd.Flags().StringVar(&weekFlag, "week", "", "Only this week (YYYY-MM-DD Monday)")
	cmd.Flags().StringVar(&member, "member", "", "Only this member")
	cmd.Flags().StringVar(&status, "status", "", "Only this status")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows")

	return cmd
}
