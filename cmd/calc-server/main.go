package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/loganszeto/calcd-go/internal/config"
	"github.com/loganszeto/calcd-go/internal/logging"
	"github.com/loganszeto/calcd-go/internal/server"
)

var (
	flagConfig          string
	flagAddr            string
	flagMaxConns        int64
	flagReadTimeout     time.Duration
	flagIdleTimeout     time.Duration
	flagMonitorInterval time.Duration
	flagStatsInterval   time.Duration
	flagDrainTimeout    time.Duration
	flagRequestQuota    int64
	flagMetricsAddr     string
	flagLogLevel        string
	flagLogFormat       string
	flagLogFile         string
)

var rootCmd = &cobra.Command{
	Use:          "calc-server",
	Short:        "TCP calculator server speaking CalcProtocol/1.0",
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flagConfig, "config", "", "path to a YAML config file")
	f.StringVar(&flagAddr, "addr", "", "listen address (host:port)")
	f.Int64Var(&flagMaxConns, "max-connections", 0, "maximum concurrent connections")
	f.DurationVar(&flagReadTimeout, "read-timeout", 0, "per-read timeout")
	f.DurationVar(&flagIdleTimeout, "idle-timeout", 0, "idle eviction threshold")
	f.DurationVar(&flagMonitorInterval, "monitor-interval", 0, "idle sweep interval")
	f.DurationVar(&flagStatsInterval, "stats-interval", 0, "stats log interval")
	f.DurationVar(&flagDrainTimeout, "drain-timeout", 0, "shutdown drain deadline")
	f.Int64Var(&flagRequestQuota, "request-quota", 0, "maximum requests per connection")
	f.StringVar(&flagMetricsAddr, "metrics-addr", "", "Prometheus metrics listen address")
	f.StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error")
	f.StringVar(&flagLogFormat, "log-format", "", "text or json")
	f.StringVar(&flagLogFile, "log-file", "", "append JSON logs to this file")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	if flagConfig != "" {
		var err error
		if cfg, err = config.Load(flagConfig); err != nil {
			return err
		}
	}
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, log)
	}

	return server.New(cfg, log).ListenAndServe(ctx)
}

// applyFlags overrides config values with any flags the user set
// explicitly, so flags win over both defaults and the config file.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("addr") {
		cfg.Addr = flagAddr
	}
	if f.Changed("max-connections") {
		cfg.MaxConnections = flagMaxConns
	}
	if f.Changed("read-timeout") {
		cfg.ReadTimeout = config.Duration(flagReadTimeout)
	}
	if f.Changed("idle-timeout") {
		cfg.IdleTimeout = config.Duration(flagIdleTimeout)
	}
	if f.Changed("monitor-interval") {
		cfg.MonitorInterval = config.Duration(flagMonitorInterval)
	}
	if f.Changed("stats-interval") {
		cfg.StatsInterval = config.Duration(flagStatsInterval)
	}
	if f.Changed("drain-timeout") {
		cfg.DrainTimeout = config.Duration(flagDrainTimeout)
	}
	if f.Changed("request-quota") {
		cfg.RequestQuota = flagRequestQuota
	}
	if f.Changed("metrics-addr") {
		cfg.MetricsAddr = flagMetricsAddr
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if f.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	if f.Changed("log-file") {
		cfg.LogFile = flagLogFile
	}
}

func serveMetrics(ctx context.Context, addr string, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	log.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server failed", "error", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
