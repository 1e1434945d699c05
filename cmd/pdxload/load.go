package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"pdxgraph/internal/blob"
	"pdxgraph/internal/core"
	"pdxgraph/internal/report"
)

type outcome struct {
	provider string
	report   *core.Report
	err      error
}

func (a *app) runLoad(ctx context.Context, providers []string) error {
	store, err := core.OpenGraphStore(ctx, a.cfg.Storage, a.log)
	if err != nil {
		return fmt.Errorf("open graph store: %w", err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			a.log.Warn("close graph store", "error", err)
		}
	}()

	res, release, err := a.resolver(ctx)
	if err != nil {
		return err
	}
	defer release()

	reg := prometheus.NewRegistry()
	metrics, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		return err
	}
	stop, err := a.serveMetrics(reg)
	if err != nil {
		return err
	}
	defer stop()

	svc, err := core.NewService(store, res,
		core.WithLogger(a.log),
		core.WithMetrics(metrics),
		core.WithRequireValid(a.cfg.Load.RequireValid),
	)
	if err != nil {
		return err
	}
	writer, err := a.reportWriter(ctx)
	if err != nil {
		return err
	}

	results := make([]outcome, len(providers))
	var g errgroup.Group
	g.SetLimit(a.cfg.Load.Parallelism)
	for i, p := range providers {
		g.Go(func() error {
			results[i] = a.loadProvider(ctx, svc, writer, p)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		status := "ok"
		if r.err != nil {
			status = "failed: " + r.err.Error()
			failed++
		}
		issues := 0
		if r.report != nil {
			issues = len(r.report.Issues)
		}
		fmt.Fprintf(a.out, "%s\t%s\tissues=%d\n", r.provider, status, issues)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d providers failed", failed, len(providers))
	}
	return nil
}

func (a *app) loadProvider(ctx context.Context, svc *core.Service, writer *report.Writer, provider string) outcome {
	out := outcome{provider: provider}
	tables, err := a.tables(ctx, provider)
	if err != nil {
		out.err = err
		return out
	}
	out.report, out.err = svc.Load(ctx, provider, tables)
	if writer != nil && out.report != nil {
		arts, err := writer.Write(ctx, out.report)
		if err != nil {
			a.log.Warn("write report", "provider", provider, "error", err)
		}
		for _, art := range arts {
			a.log.Info("report written", "provider", provider, "key", art.Key, "rows", art.Rows)
		}
	}
	return out
}

func (a *app) reportWriter(ctx context.Context) (*report.Writer, error) {
	if !a.cfg.Reports.Enabled {
		return nil, nil
	}
	store, err := blob.Open(ctx, a.cfg.Reports.Store)
	if err != nil {
		return nil, fmt.Errorf("open report store: %w", err)
	}
	return report.NewWriter(store, a.cfg.Reports.Prefix), nil
}

// serveMetrics exposes reg on /metrics when a listen address is configured.
func (a *app) serveMetrics(reg *prometheus.Registry) (func(), error) {
	if a.cfg.Metrics.Listen == "" {
		return func() {}, nil
	}
	ln, err := net.Listen("tcp", a.cfg.Metrics.Listen)
	if err != nil {
		return nil, fmt.Errorf("metrics listen: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server", "error", err)
		}
	}()
	a.log.Info("metrics listening", "addr", ln.Addr().String())
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
