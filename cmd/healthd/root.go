package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonwraymond/healthops/health"
	"github.com/jonwraymond/healthops/internal/config"
	"github.com/jonwraymond/healthops/internal/logging"
	"github.com/jonwraymond/healthops/internal/wiring"
	"github.com/jonwraymond/healthops/observe"
)

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "healthd",
		Short:         "healthd - health check aggregation daemon",
		Long:          "healthd runs the configured health checks and reports their aggregate status over HTTP or once from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "healthd.yaml", "path to the YAML config file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newCheckCmd(opts))
	return root
}

// daemon holds everything built from one config load.
type daemon struct {
	cfg      *config.Config
	zap      *zap.Logger
	logger   observe.Logger
	observer observe.Observer
	agg      *health.Aggregator
	closers  []io.Closer
}

func (o *rootOptions) build(ctx context.Context) (*daemon, error) {
	cfg, err := config.Load(o.configPath, o.envFile)
	if err != nil {
		return nil, err
	}

	zl, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	rt := &daemon{cfg: cfg, zap: zl, logger: observe.NewZapLogger(zl), closers: []io.Closer{logCloser}}

	obsCfg := cfg.Telemetry.Observe()
	obsCfg.Logging.Logger = rt.logger
	rt.observer, err = observe.NewObserver(ctx, obsCfg)
	if err != nil {
		rt.close(ctx)
		return nil, err
	}
	metrics, err := observe.NewMetrics(rt.observer.Meter())
	if err != nil {
		rt.close(ctx)
		return nil, err
	}

	rt.agg, err = wiring.Aggregator(cfg, health.AggregatorConfig{
		Logger:  rt.observer.Logger(),
		Tracer:  observe.NewTracer(rt.observer.Tracer()),
		Metrics: metrics,
	})
	if err != nil {
		rt.close(ctx)
		return nil, err
	}
	return rt, nil
}

func (rt *daemon) close(ctx context.Context) {
	if rt.observer != nil {
		if err := rt.observer.Shutdown(ctx); err != nil {
			rt.zap.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}
	_ = rt.zap.Sync()
	for _, c := range rt.closers {
		_ = c.Close()
	}
}
