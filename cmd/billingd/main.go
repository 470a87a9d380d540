// Command billingd creates monthly subscription invoices on a cron schedule and
// exposes Prometheus metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/mmynk/colivsplit/internal/config"
	"github.com/mmynk/colivsplit/internal/metrics"
	"github.com/mmynk/colivsplit/internal/models"
	"github.com/mmynk/colivsplit/internal/service"
	"github.com/mmynk/colivsplit/internal/storage/sqlite"
	"github.com/mmynk/colivsplit/pkg/logging"
)

func main() {
	periodFlag := flag.String("period", "", "bill this period (YYYY-MM) once and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("Invalid timezone", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	billing := service.NewBillingService(store, metrics.New(prometheus.DefaultRegisterer))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *periodFlag != "" || cfg.RunOnce {
		period := models.PeriodOf(time.Now().In(loc))
		if *periodFlag != "" {
			if period, err = models.ParsePeriod(*periodFlag); err != nil {
				slog.Error("Invalid period", "error", err)
				os.Exit(1)
			}
		}
		if err := runBilling(ctx, billing, period, cfg); err != nil {
			store.Close()
			os.Exit(1)
		}
		return
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.BillingCronSpec, func() {
		jobCtx, cancel := context.WithTimeout(ctx, cfg.JobTimeout)
		defer cancel()
		runBilling(jobCtx, billing, models.PeriodOf(time.Now().In(loc)), cfg)
	})
	if err != nil {
		slog.Error("Failed to schedule billing cron", "spec", cfg.BillingCronSpec, "error", err)
		os.Exit(1)
	}
	c.Start()
	slog.Info("Scheduled billing cron job", "spec", cfg.BillingCronSpec, "timezone", loc.String())

	server := &http.Server{Addr: cfg.MetricsAddr, Handler: loggingMiddleware(metricsMux())}
	go func() {
		slog.Info("Metrics server starting", "address", cfg.MetricsAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownServer(server, 10*time.Second)
	// Wait for a running billing job to finish.
	<-c.Stop().Done()
}

// shutdownServer stops the server, giving in-flight requests up to timeout to finish.
func shutdownServer(server *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Metrics server shutdown failed", "error", err)
		return err
	}
	return nil
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// loggingMiddleware logs scrapes and probes at debug level.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// invoiceGenerator is the part of the billing service the scheduler drives.
type invoiceGenerator interface {
	GenerateMonthlyInvoices(ctx context.Context, period models.Period) (int, error)
}

// runBilling runs the monthly billing, retrying after persistence errors.
// Each attempt skips properties an earlier attempt already billed.
func runBilling(ctx context.Context, billing invoiceGenerator, period models.Period, cfg *config.Config) error {
	var err error
	for attempt := 0; attempt <= cfg.BillingMaxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("Retrying billing run", "period", period.String(), "attempt", attempt, "delay", cfg.BillingRetryDelay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.BillingRetryDelay):
			}
		}

		var created int
		created, err = billing.GenerateMonthlyInvoices(ctx, period)
		if err == nil {
			slog.Info("Billing run finished", "period", period.String(), "created", created, "attempts", attempt+1)
			return nil
		}
		slog.Error("Billing run failed", "period", period.String(), "created", created, "error", err)
		if ctx.Err() != nil {
			return err
		}
	}
	return fmt.Errorf("billing run for %s failed after %d attempts: %w", period, cfg.BillingMaxRetries+1, err)
}
