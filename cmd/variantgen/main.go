// Command variantgen expands bicycle designator workbooks into the full
// catalog of configurations.
//
// Usage:
//
//	variantgen generate bikes.xlsx --out-dir out
//	variantgen inspect bikes.xlsx
//	variantgen validate --config job.yaml
//	variantgen serve --addr :8080
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"variantgen/internal/logging"
	"variantgen/internal/metrics"
	"variantgen/internal/metrics/prompush"

	// register every workbook loader and storage backend; the job decides
	// which one runs.
	_ "variantgen/internal/parser/all"
	_ "variantgen/internal/storage/all"
)

const metricsJob = "variantgen"

// app carries state shared by the subcommands.
type app struct {
	verbose        bool
	logFormat      string
	metricsBackend string
	pushGatewayURL string

	logger *zap.Logger
	// metricsHandler is set for the "prometheus" backend and mounted by serve.
	metricsHandler http.Handler
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{}
	err := a.rootCmd().ExecuteContext(ctx)
	stop()
	a.shutdown()
	if err != nil {
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "variantgen",
		Short: "Expand a designator workbook into every bicycle configuration",
		Long: `variantgen reads a workbook with an ID sheet (one column per designator
axis), an optional GENERAL sheet of defaults and any number of detail sheets,
and writes one record per combination of axis values.`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup() },
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logs")
	pf.StringVar(&a.logFormat, "log-format", "console", "log encoding: console or json")
	pf.StringVar(&a.metricsBackend, "metrics-backend", "", "metrics backend: none, pushgateway or prometheus (env METRICS_BACKEND)")
	pf.StringVar(&a.pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (env PUSHGATEWAY_URL)")

	root.AddCommand(
		a.generateCmd(),
		a.inspectCmd(),
		a.validateCmd(),
		a.serveCmd(),
	)
	return root
}

// setup builds the logger and picks the metrics backend: flag, then env,
// then none.
func (a *app) setup() error {
	level := "info"
	if a.verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{Level: level, Format: a.logFormat})
	if err != nil {
		return err
	}
	a.logger = logger

	backend := a.metricsBackend
	if backend == "" {
		backend = os.Getenv("METRICS_BACKEND")
	}
	switch backend {
	case "", "none":
		a.logger.Debug("metrics: disabled")
	case "pushgateway":
		url := a.pushGatewayURL
		if url == "" {
			url = os.Getenv("PUSHGATEWAY_URL")
		}
		if url == "" {
			url = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(metricsJob, url)
		if err != nil {
			a.logger.Warn("metrics: pushgateway backend unavailable; using nop", zap.Error(err))
			return nil
		}
		metrics.SetBackend(b)
		a.logger.Debug("metrics: pushgateway", zap.String("url", url))
	case "prometheus":
		b, err := prompush.NewScrapeBackend(metricsJob)
		if err != nil {
			a.logger.Warn("metrics: prometheus backend unavailable; using nop", zap.Error(err))
			return nil
		}
		metrics.SetBackend(b)
		a.metricsHandler = b.Handler()
	default:
		return fmt.Errorf("unknown metrics backend %q (want none, pushgateway or prometheus)", backend)
	}
	return nil
}

// shutdown flushes metrics and logs.
func (a *app) shutdown() {
	if err := metrics.Flush(); err != nil && a.logger != nil {
		a.logger.Warn("metrics: flush", zap.Error(err))
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
