// Package main provides the entry point for respkv-server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv/internal/infra/buildinfo"
	"github.com/yndnr/respkv/internal/infra/confloader"
	"github.com/yndnr/respkv/internal/infra/shutdown"
	"github.com/yndnr/respkv/internal/server/config"
	"github.com/yndnr/respkv/internal/server/redisserver"
	"github.com/yndnr/respkv/internal/storage/memory"
	"github.com/yndnr/respkv/internal/telemetry/logger"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	return newApp().Run(args)
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "respkv-server",
		Usage:   "in-memory key-value server speaking the Redis protocol",
		Version: buildinfo.Get().String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to YAML configuration file",
				EnvVars: []string{"RESPKV_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "bind",
				Usage: "Redis listen address (host:port)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level: debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format: json, text",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "enable the Prometheus endpoint on this address",
			},
		},
		Action: serve,
	}
}

// flagOverrides maps explicitly set flags to configuration keys.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)
	if c.IsSet("bind") {
		overrides["server.redis.addr"] = c.String("bind")
	}
	if c.IsSet("log-level") {
		overrides["log.level"] = c.String("log-level")
	}
	if c.IsSet("log-format") {
		overrides["log.format"] = c.String("log-format")
	}
	if c.IsSet("metrics-addr") {
		overrides["server.metrics.enabled"] = true
		overrides["server.metrics.addr"] = c.String("metrics-addr")
	}
	return overrides
}

func serve(c *cli.Context) error {
	configFile := c.String("config")
	overrides := flagOverrides(c)

	cfg, err := loadConfig(configFile, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := initLogger(cfg)
	info := buildinfo.Get()
	log.Info("starting respkv-server", append(info.LogAttrs(), "config", configFile)...)

	store := memory.New(memory.WithShardCount(cfg.Storage.ShardCount))

	var metrics *metric.Registry
	if cfg.Server.Metrics.Enabled {
		metrics = metric.NewRegistry()
		metrics.MustRegister(metric.NewCollector(store))
	}

	srv := redisserver.New(redisConfig(cfg), redisserver.NewStoreHandler(store),
		redisserver.WithLogger(log.With("component", "redis")),
		redisserver.WithMetrics(metrics),
	)

	shutdownHandler := shutdown.NewHandler(shutdownTimeout)
	shutdownHandler.SetLogger(log)

	ctx := c.Context
	if err := srv.Start(ctx); err != nil {
		return err
	}
	shutdownHandler.OnShutdown("redis server", srv.Shutdown)

	if metrics != nil {
		metricsServer, err := startMetrics(cfg.Server.Metrics.Addr, metrics, log)
		if err != nil {
			_ = srv.Shutdown(context.Background())
			return err
		}
		shutdownHandler.OnShutdown("metrics server", metricsServer.Shutdown)
	}

	if configFile != "" {
		watcher, err := watchConfig(configFile, overrides, log)
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from defaults, file, environment and
// flag overrides, then validates it.
func loadConfig(configFile string, overrides map[string]any) (*config.ServerConfig, error) {
	cfg := config.Default()

	loader := confloader.NewLoader(
		confloader.WithConfigFile(configFile),
		confloader.WithDotEnv(".env", ".env.local"),
		confloader.WithOverrides(overrides),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger initializes the structured logger and installs it as default.
func initLogger(cfg *config.ServerConfig) logger.Logger {
	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	logger.SetDefault(log)
	return log
}

func redisConfig(cfg *config.ServerConfig) *redisserver.Config {
	r := cfg.Server.Redis
	return &redisserver.Config{
		Addr:           r.Addr,
		ReadTimeout:    r.ReadTimeout,
		WriteTimeout:   r.WriteTimeout,
		IdleTimeout:    r.IdleTimeout,
		MaxConnections: r.MaxConnections,
		RateLimit:      r.RateLimit,
	}
}

// startMetrics serves /metrics on addr.
func startMetrics(addr string, metrics *metric.Registry, log logger.Logger) (*http.Server, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Surface immediate bind failures.
	select {
	case err := <-errCh:
		return nil, fmt.Errorf("metrics server: %w", err)
	case <-time.After(100 * time.Millisecond):
	}
	return srv, nil
}

// watchConfig reloads the log level when the configuration file changes.
// Other settings need a restart.
func watchConfig(configFile string, overrides map[string]any, log logger.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(configFile); err != nil {
		_ = watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(string) {
		cfg, err := loadConfig(configFile, overrides)
		if err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	watcher.StartAsync()
	return watcher, nil
}
