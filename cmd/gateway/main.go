// Package main is the entry point for the identity-provider gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dnsforyou/idgw/internal/auth/jwt"
	"github.com/dnsforyou/idgw/internal/config"
	"github.com/dnsforyou/idgw/internal/health"
	"github.com/dnsforyou/idgw/internal/keycloak"
	"github.com/dnsforyou/idgw/internal/observability"
	httpserver "github.com/dnsforyou/idgw/internal/server/http"
	"github.com/dnsforyou/idgw/internal/server/http/middleware"
	"github.com/dnsforyou/idgw/internal/store"
	"github.com/dnsforyou/idgw/internal/vault"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	logger := initLogger(flags)
	defer func() { _ = logger.Sync() }()

	cfg := loadAndValidateConfig(flags.configPath, logger)
	app := initApplication(cfg, logger)

	run(app, flags.configPath, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("IDGW_CONFIG_PATH", "configs/gateway.yaml"),
		"Path to configuration file")
	logLevel := flag.String("log-level", getEnvOrDefault("IDGW_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("IDGW_LOG_FORMAT", "json"),
		"Log format (json, console)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information and exits.
func printVersion() {
	fmt.Printf("idgw version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger initializes the logger.
func initLogger(flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  flags.logLevel,
		Format: flags.logFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	observability.SetGlobalLogger(logger)
	return logger
}

// loadAndValidateConfig loads and validates the configuration.
func loadAndValidateConfig(configPath string, logger observability.Logger) *config.Config {
	logger.Info("starting idgw",
		observability.String("version", version),
		observability.String("config", configPath),
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", observability.Error(err))
	}

	if err := config.Validate(cfg); err != nil {
		logger.Fatal("invalid configuration", observability.Error(err))
	}

	logger.Info("configuration loaded",
		observability.String("address", cfg.Server.Address),
		observability.String("authority", cfg.Keycloak.Authority),
		observability.String("realm", cfg.Keycloak.Realm),
		observability.Bool("auth", cfg.Auth.Enabled),
		observability.Bool("store", cfg.Store.Enabled),
		observability.Bool("vault", cfg.Vault.Enabled),
	)

	return cfg
}

// application holds all application components.
type application struct {
	server        *httpserver.Server
	store         store.Store
	limiter       *middleware.RateLimiter
	tracer        *observability.Tracer
	healthChecker *health.Checker
	config        *config.Config
}

// initApplication initializes all application components.
func initApplication(cfg *config.Config, logger observability.Logger) *application {
	ctx := context.Background()

	resolveSecrets(ctx, cfg, logger)

	tracer := initTracer(cfg, logger)
	healthChecker := health.NewChecker(version)
	healthChecker.RegisterCheck("provider",
		health.ProviderCheck(cfg.Keycloak.Authority, cfg.Keycloak.Realm, nil))

	gateway, err := keycloak.New(&keycloak.Config{
		Authority:         cfg.Keycloak.Authority,
		Realm:             cfg.Keycloak.Realm,
		ClientID:          cfg.Keycloak.ClientID,
		ClientSecret:      cfg.Keycloak.ClientSecret,
		AdminUsername:     cfg.Keycloak.AdminUsername,
		AdminPassword:     cfg.Keycloak.AdminPassword,
		Timeout:           cfg.Keycloak.Timeout.Duration(),
		TokenSafetyMargin: cfg.Keycloak.TokenSafetyMargin.Duration(),
		CircuitBreaker: keycloak.CircuitBreakerConfig{
			Enabled:   cfg.Keycloak.CircuitBreaker.Enabled,
			Threshold: cfg.Keycloak.CircuitBreaker.Threshold,
			Timeout:   cfg.Keycloak.CircuitBreaker.Timeout.Duration(),
		},
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("failed to create provider gateway", observability.Error(err))
	}

	projections := initStore(cfg, healthChecker, logger)
	validator := initValidator(ctx, cfg, logger)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, logger)
	}

	router := httpserver.NewRouter(httpserver.RouterOptions{
		Service:   gateway,
		Store:     projections,
		Checker:   healthChecker,
		Validator: validator,
		Limiter:   limiter,
		AdminRole: cfg.Auth.AdminRole,
		Logger:    logger,
	})

	return &application{
		server:        httpserver.NewServer(cfg.Server, router, logger),
		store:         projections,
		limiter:       limiter,
		tracer:        tracer,
		healthChecker: healthChecker,
		config:        cfg,
	}
}

// resolveSecrets fills provider credentials from Vault when configured and
// verifies the admin credentials are present afterwards.
func resolveSecrets(ctx context.Context, cfg *config.Config, logger observability.Logger) {
	client, err := vault.New(cfg.Vault, logger)
	if err != nil {
		logger.Fatal("failed to create vault client", observability.Error(err))
	}

	if err := vault.ResolveKeycloakSecrets(ctx, client, cfg, logger); err != nil {
		logger.Fatal("failed to resolve provider secrets", observability.Error(err))
	}

	if cfg.Keycloak.AdminUsername == "" || cfg.Keycloak.AdminPassword == "" {
		logger.Fatal("provider admin credentials are not configured")
	}
}

// initStore creates the user projection store.
func initStore(cfg *config.Config, checker *health.Checker, logger observability.Logger) store.Store {
	if !cfg.Store.Enabled {
		return store.NewMemoryStore()
	}

	s, err := store.NewRedisStore(cfg.Store, logger)
	if err != nil {
		logger.Fatal("failed to connect to projection store", observability.Error(err))
	}

	checker.RegisterCheck("store", health.StoreCheck(s))
	return s
}

// initValidator creates the inbound token validator, or nil when disabled.
func initValidator(ctx context.Context, cfg *config.Config, logger observability.Logger) middleware.TokenValidator {
	if !cfg.Auth.Enabled {
		logger.Warn("inbound token validation is disabled")
		return nil
	}

	issuer := cfg.Auth.Issuer
	if issuer == "" {
		issuer = jwt.IssuerForRealm(cfg.Keycloak.Authority, cfg.Keycloak.Realm)
	}

	validator, err := jwt.NewValidator(ctx, &jwt.Config{
		Issuer:          issuer,
		RefreshInterval: cfg.Auth.JWKSRefreshInterval.Duration(),
		ClockSkew:       cfg.Auth.ClockSkew.Duration(),
		Logger:          logger,
	})
	if err != nil {
		logger.Fatal("failed to create token validator", observability.Error(err))
	}

	return validator
}

// initTracer initializes the tracer.
func initTracer(cfg *config.Config, logger observability.Logger) *observability.Tracer {
	tracer, err := observability.NewTracer(cfg.Tracing)
	if err != nil {
		logger.Fatal("failed to initialize tracer", observability.Error(err))
	}
	return tracer
}

// run starts the server and blocks until shutdown.
func run(app *application, configPath string, logger observability.Logger) {
	errCh := make(chan error, 1)
	go func() { errCh <- app.server.Start() }()

	watcher := startConfigWatcher(configPath, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", observability.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server exited", observability.Error(err))
	}

	shutdown(app, watcher, logger)
}

// startConfigWatcher starts the configuration watcher. Only the log level is
// applied dynamically; other changes require a restart.
func startConfigWatcher(configPath string, logger observability.Logger) *config.Watcher {
	watcher, err := config.NewWatcher(configPath, func(newCfg *config.Config) {
		logger.Info("configuration changed",
			observability.String("logLevel", newCfg.Logging.Level),
		)
		if err := logger.SetLevel(newCfg.Logging.Level); err != nil {
			logger.Warn("failed to apply log level", observability.Error(err))
		}
	}, config.WithLogger(logger))
	if err != nil {
		logger.Warn("failed to create config watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(context.Background()); err != nil {
		logger.Warn("failed to start config watcher", observability.Error(err))
	}

	return watcher
}

// shutdown stops all components gracefully.
func shutdown(app *application, watcher *config.Watcher, logger observability.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(),
		app.config.Server.ShutdownTimeout.Duration())
	defer cancel()

	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			logger.Warn("failed to stop config watcher", observability.Error(err))
		}
	}

	if app.limiter != nil {
		app.limiter.Stop()
	}

	if err := app.server.Stop(ctx); err != nil {
		logger.Error("failed to stop server", observability.Error(err))
	}

	if err := app.store.Close(); err != nil {
		logger.Warn("failed to close projection store", observability.Error(err))
	}

	if app.tracer != nil {
		if err := app.tracer.Shutdown(ctx); err != nil {
			logger.Warn("failed to shutdown tracer", observability.Error(err))
		}
	}

	logger.Info("shutdown complete")
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
