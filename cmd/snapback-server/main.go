package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/yndnr/snapback/internal/core/service"
	"github.com/yndnr/snapback/internal/infra/buildinfo"
	"github.com/yndnr/snapback/internal/infra/confloader"
	"github.com/yndnr/snapback/internal/infra/shutdown"
	"github.com/yndnr/snapback/internal/server/config"
	"github.com/yndnr/snapback/internal/server/httpserver"
	"github.com/yndnr/snapback/internal/server/redisserver"
	"github.com/yndnr/snapback/internal/storage"
	"github.com/yndnr/snapback/internal/telemetry/logger"
	"github.com/yndnr/snapback/internal/telemetry/metric"
	"github.com/yndnr/snapback/internal/telemetry/tracer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("snapback-server %s\n", buildinfo.String())
		return nil
	}

	loader := newLoader(*configFile)
	cfg, err := loadConfig(loader)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       os.Stdout,
		AddSource:    cfg.Log.AddSource,
		MaskIdentity: cfg.Log.MaskIdentity,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	slogger := logger.ToSlog(log)
	slog.SetDefault(slogger)

	info := buildinfo.Get()
	log.Info("starting snapback-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile,
		"engine", cfg.Storage.Engine)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	shutdownHandler := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout,
		shutdown.WithLogger(slogger.With("component", "shutdown")))

	// Hooks run in reverse order of registration.
	tp, err := tracer.New(ctx, tracer.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	shutdownHandler.OnShutdown("tracer", tp.Shutdown)

	var reg *metric.Registry
	if cfg.Metrics.Enabled {
		reg = metric.NewRegistry()
	}

	engine, err := openStorage(cfg, slogger, reg)
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return fmt.Errorf("init storage: %w", err)
	}
	shutdownHandler.OnShutdownFunc("storage", engine.Close)

	svcOpts := []service.CoordinatorOption{
		service.WithLogger(log.With("component", "coordinator")),
	}
	snapshotCipher, err := cfg.Storage.SnapshotCipher()
	if err != nil {
		_ = shutdownHandler.Shutdown()
		return fmt.Errorf("init snapshot cipher: %w", err)
	}
	if snapshotCipher != nil {
		log.Info("snapshot sealing enabled", "cipher", snapshotCipher.Type())
		svcOpts = append(svcOpts, service.WithSnapshotCipher(snapshotCipher))
	}
	if reg != nil {
		svcOpts = append(svcOpts, service.WithMetrics(reg))
	}
	users := service.NewUserService(engine, svcOpts...)
	if reg != nil {
		reg.MustRegister(metric.NewCollector(users.Stats))
	}

	routerCfg := httpserver.DefaultRouterConfig()
	routerCfg.Users = users
	routerCfg.Ready = func(ctx context.Context) error { return storage.Ping(ctx, engine) }
	routerCfg.Engine = engine.Name()
	routerCfg.Logger = slogger.With("component", "http")
	routerCfg.Metrics = reg
	routerCfg.MetricsPath = cfg.Metrics.Path
	routerCfg.CORSAllowedOrigins = cfg.CORS.AllowedOrigins
	routerCfg.MaxBodyBytes = cfg.Server.HTTP.MaxBodyBytes
	routerCfg.RateLimitRPS = 0
	if cfg.RateLimit.Enabled {
		routerCfg.RateLimitRPS = cfg.RateLimit.RPS
		routerCfg.RateLimitBurst = cfg.RateLimit.Burst
	}

	httpServer := httpserver.New(httpserver.Config{
		Addr:         cfg.Server.HTTP.Addr,
		TLSCertFile:  cfg.Server.HTTP.TLSCertFile,
		TLSKeyFile:   cfg.Server.HTTP.TLSKeyFile,
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}, httpserver.NewRouter(routerCfg), slogger.With("component", "http"))

	g, gctx := errgroup.WithContext(ctx)

	if *configFile != "" {
		watcher, err := watchConfig(loader, slogger)
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			shutdownHandler.OnShutdownFunc("config-watcher", watcher.Close)
			g.Go(func() error {
				if err := watcher.Run(gctx); err != nil && !errors.Is(err, confloader.ErrWatcherClosed) && !errors.Is(err, context.Canceled) {
					return fmt.Errorf("config watcher: %w", err)
				}
				return nil
			})
		}
	}

	if cfg.Server.Redis.Enabled {
		respServer, err := newRESPServer(cfg, users, slogger, reg)
		if err != nil {
			_ = shutdownHandler.Shutdown()
			return fmt.Errorf("init resp server: %w", err)
		}
		shutdownHandler.OnShutdown("resp", respServer.Shutdown)
		g.Go(func() error {
			if err := respServer.ListenAndServe(); err != nil {
				return fmt.Errorf("resp server: %w", err)
			}
			return nil
		})
	}

	shutdownHandler.OnShutdown("http", httpServer.Shutdown)

	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return shutdownHandler.Wait(gctx)
	})

	log.Info("server started, press Ctrl+C to stop")
	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

func newLoader(configFile string) *confloader.Loader {
	opts := []confloader.Option{confloader.WithDefaults(config.DefaultMap())}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	return confloader.NewLoader(opts...)
}

// loadConfig reads every source into a fresh config and validates it.
func loadConfig(loader *confloader.Loader) (*config.ServerConfig, error) {
	cfg := config.Default()
	if err := loader.Reload(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openStorage(cfg *config.ServerConfig, log *slog.Logger, reg *metric.Registry) (storage.Engine, error) {
	storageCfg := storage.Config{
		Engine: cfg.Storage.Engine,
		Shards: cfg.Storage.Shards,
		Badger: cfg.Storage.BadgerStoreConfig(),
		Logger: log.With("component", "storage"),
	}
	if reg != nil {
		storageCfg.Metrics = reg.Registerer()
	}
	return storage.Open(storageCfg)
}

func newRESPServer(cfg *config.ServerConfig, users redisserver.UserService, log *slog.Logger, reg *metric.Registry) (*redisserver.Server, error) {
	rc := cfg.Server.Redis
	respCfg := &redisserver.Config{
		Addr:         rc.Addr,
		ReadTimeout:  rc.ReadTimeout,
		WriteTimeout: rc.WriteTimeout,
		IdleTimeout:  rc.IdleTimeout,
	}
	if cfg.RateLimit.Enabled {
		respCfg.RateLimit = cfg.RateLimit.RPS
		respCfg.RateBurst = cfg.RateLimit.Burst
	}
	if rc.TLSCertFile != "" {
		cert, err := tls.LoadX509KeyPair(rc.TLSCertFile, rc.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load tls key pair: %w", err)
		}
		respCfg.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	var opts []redisserver.Option
	if reg != nil {
		opts = append(opts, redisserver.WithMetrics(reg))
	}
	return redisserver.New(respCfg, users, log.With("component", "resp"), opts...), nil
}

// watchConfig re-applies log.level whenever the config file changes.
// Other settings take effect on restart.
func watchConfig(loader *confloader.Loader, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(loader.FilePath(),
		confloader.WithWatcherLogger(log.With("component", "config-watcher")))
	if err != nil {
		return nil, err
	}

	watcher.OnChange(func(path string) {
		cfg, err := loadConfig(loader)
		if err != nil {
			log.Warn("config reload rejected", "path", path, "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			log.Info("log level changed", "from", logger.GetLevel(), "to", cfg.Log.Level)
			logger.SetLevel(cfg.Log.Level)
		}
	})
	return watcher, nil
}
