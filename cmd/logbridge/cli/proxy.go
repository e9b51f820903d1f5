package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/tkingovr/logbridge/internal/metrics"
	"github.com/tkingovr/logbridge/internal/middleware"
	"github.com/tkingovr/logbridge/internal/pipeline"
	"github.com/tkingovr/logbridge/internal/policy"
	"github.com/tkingovr/logbridge/internal/proxy"
)

var (
	proxyTarget      string
	proxyListen      string
	proxyMetricsPath string
	proxyMaxBody     int64
)

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Start a logging HTTP reverse proxy",
	Long: `Start an HTTP reverse proxy that logs every exchange with the upstream
through the configured filters. Routes listed in settings.routes are
registered as ServeMux patterns and name the requests they match.`,
	Example: `  logbridge proxy -c logbridge.yaml --target http://localhost:4000 --listen :3000`,
	RunE:    runProxy,
}

func init() {
	proxyCmd.Flags().StringVar(&proxyTarget, "target", "", "upstream URL (required)")
	proxyCmd.Flags().StringVar(&proxyListen, "listen", ":3000", "listen address")
	proxyCmd.Flags().StringVar(&proxyMetricsPath, "metrics-path", "/metrics", "path serving Prometheus metrics, empty to disable")
	proxyCmd.Flags().Int64Var(&proxyMaxBody, "max-body", middleware.DefaultMaxBody, "bytes of request/response body captured")
	_ = proxyCmd.MarkFlagRequired("target")
	rootCmd.AddCommand(proxyCmd)
}

func runProxy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}

	out, err := newSink(cfg)
	if err != nil {
		return err
	}
	defer out.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	chain := pipeline.BuildChain(pipeline.ChainConfig{
		Engine:       engine,
		Formatter:    newFormatter(cfg),
		Sink:         out,
		Metrics:      metrics.NewRecorder(reg),
		Throttle:     cfg.Throttle,
		ScrubSecrets: cfg.ScrubSecrets,
		Logger:       logger,
	})

	mw := middleware.New(chain, logger,
		middleware.WithRouteNamer(middleware.KnownPatterns(policy.NewStaticRoutes(cfg.Routes...))),
		middleware.WithMaxBody(proxyMaxBody),
	)

	opts := []proxy.Option{proxy.WithRoutes(cfg.Routes...)}
	if proxyMetricsPath != "" {
		opts = append(opts, proxy.WithMetrics(proxyMetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	p, err := proxy.NewProxy(proxyTarget, mw, logger, opts...)
	if err != nil {
		return fmt.Errorf("creating proxy: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down proxy")
		cancel()
	}()

	return p.ListenAndServe(ctx, proxyListen)
}
