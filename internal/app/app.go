package app

import (
	"context"
	"fmt"

	"github.com/loreleaf/loreleaf/internal/adapter"
	"github.com/loreleaf/loreleaf/internal/conflict"
	"github.com/loreleaf/loreleaf/internal/config"
	"github.com/loreleaf/loreleaf/internal/handler/http"
	"github.com/loreleaf/loreleaf/internal/logger"
	"github.com/loreleaf/loreleaf/internal/netmon"
	"github.com/loreleaf/loreleaf/internal/optimistic"
	"github.com/loreleaf/loreleaf/internal/queue"
	"github.com/loreleaf/loreleaf/internal/server"
	"github.com/loreleaf/loreleaf/internal/service"
	"github.com/loreleaf/loreleaf/internal/store"
	"github.com/loreleaf/loreleaf/internal/workers"
)

// App owns the wired sync engine and its transports.
type App struct {
	engine  service.Engine
	job     service.SyncJob
	monitor netmon.Monitor
	server  server.Server
	workers *workers.Workers

	logger *logger.Logger
}

func NewApp(cfg *config.StructuredConfig, version string, log *logger.Logger) (*App, error) {
	ctx := context.Background()

	st, err := store.NewSQLiteStore(ctx, cfg.Storage.DSN, log)
	if err != nil {
		return nil, fmt.Errorf("create local store: %w", err)
	}

	remote, err := adapter.NewHTTPRemote(cfg.Remote, log)
	if err != nil {
		return nil, fmt.Errorf("create remote adapter: %w", err)
	}

	probeURL := cfg.Monitor.ProbeURL
	if probeURL == "" {
		probeURL = cfg.Remote.BaseURL
	}
	prober := netmon.NewHTTPProber(probeURL, cfg.Monitor.ProbeTimeout)
	monitor := netmon.NewMonitor(prober, cfg.Monitor.ProbeInterval, log)

	q := queue.NewOperationQueue(st, nil, cfg.Engine.MaxRetries, log)
	arena := optimistic.NewUpdateManager(st, nil, log)
	resolver := conflict.NewResolver(cfg.Engine.MergePriority, log)

	deps := service.NewDeps(q, arena, resolver, remote, monitor, log)
	orc := service.NewOrchestrator(deps, cfg.Engine, log)
	engine := service.NewEngine(deps, orc, cfg.Engine, log)
	job := service.NewSyncJob(engine, monitor, log)

	handler := http.NewHandler(engine, monitor, version, log)
	srv, err := server.NewServer(handler.Init(), cfg.Server, log)
	if err != nil {
		return nil, fmt.Errorf("create control server: %w", err)
	}

	return &App{
		engine:  engine,
		job:     job,
		monitor: monitor,
		server:  srv,
		workers: workers.NewWorkers(
			workers.WorkerFunc(monitor.Start),
			workers.WorkerFunc(job.Start),
		),
		logger: log,
	}, nil
}

// Run starts the engine and its background workers, then serves the
// control API until a stop signal arrives.
func (a *App) Run(ctx context.Context) error {
	if err := a.engine.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	a.workers.Run(ctx)

	a.server.RunServer()

	a.job.Stop()
	a.monitor.Stop()

	if err := a.engine.Close(); err != nil {
		a.logger.Error().Err(err).Msg("error closing engine")
	}

	return nil
}
