package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lanwatch/lanwatch/internal/config"
	"github.com/lanwatch/lanwatch/internal/httpapi"
	"github.com/lanwatch/lanwatch/internal/logging"
	"github.com/lanwatch/lanwatch/internal/monitor"
	"github.com/lanwatch/lanwatch/internal/names"
	"github.com/lanwatch/lanwatch/internal/neigh"
	"github.com/lanwatch/lanwatch/internal/oui"
	"github.com/lanwatch/lanwatch/internal/probe"
	"github.com/lanwatch/lanwatch/internal/scan"
	"github.com/lanwatch/lanwatch/internal/service"
	"github.com/lanwatch/lanwatch/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	if err := os.MkdirAll(cfg.DBDir(), 0o755); err != nil {
		logger.Error("failed to create db directory", "err", err)
		os.Exit(1)
	}
	repo, err := storage.New(ctx, cfg.DBPath, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "err", err)
		os.Exit(1)
	}
	defer repo.Close()

	ouiDB, err := oui.LoadEmbedded()
	if err != nil {
		logger.Error("failed to load oui db", "err", err)
		os.Exit(1)
	}

	prober := newProber(cfg, logger)
	resolver, closer := newResolver(cfg, logger)
	if closer != nil {
		defer closer.Close()
	}

	opts := scan.Options{
		ProbeTimeout: cfg.ProbeTimeout,
		Workers:      cfg.ScanWorkers,
	}
	if cfg.LookupHostnames {
		opts.Hostnames = names.New("", cfg.ProbeTimeout)
	}
	session := scan.NewSession(prober, resolver, opts, logger)

	svc := service.New(ctx, session, prober, repo, ouiDB, logger)
	mon := monitor.New(svc, cfg.MonitorInterval, logger)
	go mon.Run(ctx)

	api := httpapi.New(svc, mon, logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("server starting", "addr", httpServer.Addr, "probe_mode", string(cfg.ProbeMode), "resolver_mode", string(cfg.ResolverMode))
	if err := httpapi.RunServer(ctx, httpServer, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server terminated with error", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func newProber(cfg config.Config, logger *slog.Logger) probe.Prober {
	switch cfg.ProbeMode {
	case config.ProbeModeICMP:
		return probe.NewSocketProber(true, logger)
	case config.ProbeModeUDP:
		return probe.NewSocketProber(false, logger)
	case config.ProbeModePing:
		return probe.NewExecProber(logger)
	default:
		return probe.NewAutoSocketProber(logger)
	}
}

// newResolver obeys RESOLVER_MODE but falls back to the neighbor table
// when active resolution is unavailable on this platform or interface.
func newResolver(cfg config.Config, logger *slog.Logger) (neigh.Resolver, io.Closer) {
	if cfg.ResolverMode == config.ResolverModeActive {
		active, err := neigh.NewActiveResolver(cfg.ResolverIface, cfg.ProbeTimeout, logger)
		if err == nil {
			closer, _ := active.(io.Closer)
			return active, closer
		}
		logger.Warn("active resolver unavailable, using neighbor table", "iface", cfg.ResolverIface, "err", err)
	}
	return neigh.NewTableResolver(logger), nil
}
