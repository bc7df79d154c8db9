package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/opentalon/agentsmith/internal/analyzer"
	"github.com/opentalon/agentsmith/internal/cache"
	"github.com/opentalon/agentsmith/internal/config"
	"github.com/opentalon/agentsmith/internal/metrics"
	"github.com/opentalon/agentsmith/internal/planner"
	"github.com/opentalon/agentsmith/internal/provider"
	"github.com/opentalon/agentsmith/internal/registry"
	"github.com/opentalon/agentsmith/internal/runtime"
	"github.com/opentalon/agentsmith/internal/scheduler"
	"github.com/opentalon/agentsmith/internal/server"
	"github.com/opentalon/agentsmith/internal/store"
	"github.com/opentalon/agentsmith/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get())
		os.Exit(0)
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.Parse([]byte("{}"))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting", zap.String("version", version.Get().String()))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("fatal", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	return cfg.Build()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	m := metrics.New(prometheus.DefaultRegisterer)

	var analyzerOpts []analyzer.Option
	analyzerOpts = append(analyzerOpts,
		analyzer.WithLogger(logger.Named("analyzer")),
		analyzer.WithMetrics(m))
	if cfg.Cache.Enabled {
		cacheOpts := []cache.Option{cache.WithLogger(logger.Named("cache"))}
		if cfg.Cache.TTL.Std() > 0 {
			cacheOpts = append(cacheOpts, cache.WithTTL(cfg.Cache.TTL.Std()))
		}
		analysisCache, err := cache.Dial(ctx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB, cacheOpts...)
		if err != nil {
			return fmt.Errorf("cache: %w", err)
		}
		defer func() { _ = analysisCache.Close() }()
		analyzerOpts = append(analyzerOpts, analyzer.WithCache(analysisCache))
	}

	apiAnalyzer := analyzer.New(analyzerOpts...)
	agentPlanner := planner.New(planner.WithMetrics(m))

	runtimes := make(map[string]*runtime.Runtime, len(cfg.Providers))
	var defaultRuntime *runtime.Runtime
	for name, pc := range cfg.Providers {
		backend, err := provider.FromConfig(provider.Config{
			API:     pc.API,
			BaseURL: pc.BaseURL,
			APIKey:  pc.APIKey,
			Model:   pc.Model,
		})
		if err != nil {
			return fmt.Errorf("provider %s: %w", name, err)
		}
		rt := runtime.New(backend,
			runtime.WithLogger(logger.Named("runtime")),
			runtime.WithMetrics(m))
		runtimes[name] = rt
		if defaultRuntime == nil || name == "default" {
			defaultRuntime = rt
		}
	}
	if defaultRuntime == nil {
		// No providers configured: run with the stub backend so the
		// analyze/plan surface still works end to end.
		logger.Warn("no providers configured, using stub backend")
		defaultRuntime = runtime.New(provider.NewStubProvider(""),
			runtime.WithLogger(logger.Named("runtime")),
			runtime.WithMetrics(m))
	}

	reg := registry.New(defaultRuntime, registry.WithLogger(logger.Named("registry")))

	srv := server.New(server.Deps{
		Analyzer:   apiAnalyzer,
		Planner:    agentPlanner,
		Runtime:    defaultRuntime,
		Registry:   reg,
		Agents:     store.NewAgentStore(db),
		Executions: store.NewExecutionStore(db),
		Metrics:    m,
		Logger:     logger.Named("server"),
	})

	var sched *scheduler.Scheduler
	if len(cfg.Schedules) > 0 {
		sched = scheduler.New(&scheduler.Pipeline{
			Analyzer:       apiAnalyzer,
			Planner:        agentPlanner,
			Runtimes:       runtimes,
			DefaultRuntime: defaultRuntime,
		}, scheduler.WithLogger(logger.Named("scheduler")))
		for _, sc := range cfg.Schedules {
			job := scheduler.Job{
				Name:     sc.Name,
				Cron:     sc.Cron,
				APIInput: sc.APIInput,
				Goal:     sc.Goal,
				Message:  sc.Message,
				Provider: sc.Provider,
			}
			if err := sched.Add(job); err != nil {
				return err
			}
		}
		sched.Start()
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(cfg.Server.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
