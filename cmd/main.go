package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"invoicelink/internal/billing"
	"invoicelink/internal/config"
	_ "invoicelink/internal/docs"
	"invoicelink/internal/handlers"
	"invoicelink/internal/jobs/background"
	"invoicelink/internal/logger"
	"invoicelink/internal/middleware"
	"invoicelink/internal/models"
	"invoicelink/pkg/database"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	echoSwagger "github.com/swaggo/echo-swagger"
)

var version = "dev"

//	@title						InvoiceLink API
//	@version					1.0
//	@description				Business registration, subscription administration and invoicing.
//	@BasePath					/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "invoicelink",
		Short:         "Subscription and invoicing backend for small businesses",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSweepTrialsCmd(),
		newMarkOverdueCmd(),
		newTotalsCmd(),
	)
	return root
}

// withApp loads configuration, sets up logging and wires the services.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	if cfg.GeneratedSecret {
		log.Warn().Msg("JWT_SECRET not set, using a generated secret; sessions will not survive a restart")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, serve)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.RequestLogger(logger.WithComponent("http")))
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	handlers.RegisterRoutes(e, a.handlers(), a.auth, version)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	scheduler, err := background.NewJobScheduler(a.accounts, a.invoices, a.clock, background.Options{
		TrialSweepEnabled:  a.cfg.TrialSweepEnabled,
		TrialSweepApply:    a.cfg.TrialSweepApply,
		TrialSweepInterval: a.cfg.TrialSweepInterval,
		OverdueInterval:    a.cfg.OverdueInterval,
	}, logger.WithComponent("jobs"))
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("scheduler shutdown failed")
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("version", version).Str("port", a.cfg.Port).Bool("database", a.pool != nil).Msg("invoicelink server starting")
		if err := e.Start(":" + a.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if a.pool == nil {
					return errors.New("DATABASE_URL is required")
				}
				if err := database.Migrate(ctx, a.pool); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			})
		},
	}
}

func newSweepTrialsCmd() *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "sweep-trials",
		Short: "Find trial accounts past their end date, and cancel them with --apply",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				n, err := a.accounts.SweepExpiredTrials(ctx, apply)
				if err != nil {
					return err
				}
				verb := "would cancel"
				if apply {
					verb = "canceled"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d expired trial(s)\n", verb, n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "cancel the expired trials instead of only counting them")
	return cmd
}

func newMarkOverdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-overdue",
		Short: "Mark sent invoices past their due date as overdue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				n, err := a.invoices.MarkOverdue(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "marked %d invoice(s) overdue\n", n)
				return nil
			})
		},
	}
}

func newTotalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "totals [draft.json]",
		Short: "Print the totals of an invoice draft read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return printTotals(in, cmd.OutOrStdout())
		},
	}
}

func printTotals(in io.Reader, out io.Writer) error {
	var draft models.InvoiceDraft
	if err := json.NewDecoder(in).Decode(&draft); err != nil {
		return fmt.Errorf("failed to read draft: %w", err)
	}

	totals := billing.ComputeTotals(draft.Items).Rounded()
	for _, item := range draft.Items {
		fmt.Fprintf(out, "%-30s %4d x %10s = %10s\n", item.Description, item.Quantity, billing.FormatMoney(item.UnitPrice), billing.FormatMoney(billing.LineTotal(item)))
	}
	fmt.Fprintf(out, "Subtotal: %s\nTax:      %s\nTotal:    %s\n",
		billing.FormatMoney(totals.Subtotal), billing.FormatMoney(totals.Tax), billing.FormatMoney(totals.Total))

	var verr *models.ValidationError
	if err := billing.ValidateDraft(&draft); errors.As(err, &verr) {
		fields := make([]string, 0, len(verr.Fields))
		for field := range verr.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(out, "invalid %s: %s\n", field, verr.Fields[field])
		}
	}
	return nil
}
