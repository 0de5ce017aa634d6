package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonwraymond/healthops/health"
	"github.com/jonwraymond/healthops/internal/wiring"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the health endpoints over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := opts.build(ctx)
			if err != nil {
				return err
			}
			defer rt.close(context.WithoutCancel(ctx))

			if addr != "" {
				rt.cfg.Server.Addr = addr
			}
			mux, err := newMux(rt)
			if err != nil {
				return err
			}
			return serve(ctx, rt, mux)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func newMux(rt *daemon) (*http.ServeMux, error) {
	hc, err := wiring.Handlers(rt.cfg, rt.logger)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	if err := health.RegisterHandlers(mux, rt.agg, hc); err != nil {
		return nil, err
	}
	if rt.cfg.Server.MetricsPath != "" {
		mux.Handle(rt.cfg.Server.MetricsPath, promhttp.Handler())
	}
	return mux, nil
}

func serve(ctx context.Context, rt *daemon, h http.Handler) error {
	srv := &http.Server{
		Addr:              rt.cfg.Server.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.zap.Info("healthd listening",
			zap.String("addr", srv.Addr),
			zap.Strings("checks", rt.agg.Names()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	rt.zap.Info("healthd shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rt.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
