package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haguru/jungle/config"
	"github.com/haguru/jungle/internal/auth"
	"github.com/haguru/jungle/internal/interfaces"
	"github.com/haguru/jungle/internal/middleware"
	"github.com/haguru/jungle/internal/routes"
	"github.com/haguru/jungle/internal/server"
	mongoUserRepo "github.com/haguru/jungle/internal/userrepo/mongo"
	postgresUserRepo "github.com/haguru/jungle/internal/userrepo/postgres"
	"github.com/haguru/jungle/internal/userservice"
	"github.com/haguru/jungle/pkg/databases/mongo"
	"github.com/haguru/jungle/pkg/databases/postgres"
	"github.com/haguru/jungle/pkg/metrics"
	"github.com/haguru/jungle/pkg/zerolog"

	structValidator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var ShutdownTimeout = 10 * time.Second

// App represents the main application, containing server and configuration.
// It initializes with a config file, validates settings, and manages routes.
type App struct {
	Server   interfaces.Server
	Config   *config.ServiceConfig
	Logger   interfaces.Logger
	Metrics  interfaces.Metrics
	userRepo interfaces.UserRepository
}

// NewApp reads the configuration at configPath, connects the configured store
// and wires the HTTP server.
func NewApp(configPath string) (*App, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := zerolog.NewZerologLogger(cfg.ServiceName)
	logger.SetLevel(cfg.LogLevel)

	dbClient, err := initializeDBClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database client: %w", err)
	}

	userRepo, err := initializeUserRepo(cfg, dbClient)
	if err != nil {
		_ = dbClient.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to initialize user repository: %w", err)
	}

	app, err := newApp(cfg, logger, userRepo)
	if err != nil {
		_ = userRepo.Close(context.Background())
		return nil, err
	}
	return app, nil
}

// LoadConfig reads the YAML file, applies environment overrides and validates the result.
func LoadConfig(configPath string) (*config.ServiceConfig, error) {
	cfg, err := config.ReadLocalConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	if err := config.ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(structValidator.New()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp wires the service, routes and middleware around an already connected repository.
func newApp(cfg *config.ServiceConfig, logger interfaces.Logger, userRepo interfaces.UserRepository) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		userRepo: userRepo,
	}

	app.Metrics = initializeMetrics(cfg.ServiceName)

	issuer, err := initializeIssuer(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}
	logger.Info("Token issuer ready", "alg", issuer.Algorithm(), "ttl", cfg.Token.TTL.String())

	userService := userservice.NewUserService(userRepo, logger, cfg.BcryptCost)
	route := routes.NewRoute(app.Metrics, userService, issuer, structValidator.New(), logger)

	app.Server = server.NewServer(cfg.Host, cfg.Port, logger)
	app.Server.Use(httpMiddleware(logger, app.Metrics)...)

	metricsHandler := promhttp.HandlerFor(app.Metrics.GetRegistry(), promhttp.HandlerOpts{})
	if err := app.Server.AddRoute(routes.MetricsRouteAPI, metricsHandler.ServeHTTP); err != nil {
		return nil, fmt.Errorf("failed to add metrics route: %w", err)
	}

	if err := route.Register(app.Server); err != nil {
		return nil, fmt.Errorf("failed to add routes: %w", err)
	}

	return app, nil
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully and closes the store.
func (app *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.RunContext(ctx)
}

// RunContext serves until ctx is done or the server fails.
func (app *App) RunContext(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- app.Server.ListenAndServe()
	}()

	var runErr error
	select {
	case runErr = <-serveErr:
	case <-ctx.Done():
		app.Logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := app.Server.Shutdown(shutdownCtx); err != nil {
			runErr = err
		}
		if err := <-serveErr; err != nil && runErr == nil {
			runErr = err
		}
	}

	if err := app.userRepo.Close(context.Background()); err != nil {
		app.Logger.Warn("Failed to close user repository", "error", err)
		runErr = errors.Join(runErr, err)
	}
	return runErr
}

// httpMiddleware is the handler chain, outermost first. The request logger wraps
// Recover so a panicking request still gets its log line with a 500.
// Metrics stays next to the mux to see the matched pattern.
func httpMiddleware(logger interfaces.Logger, m interfaces.Metrics) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestLogger(logger),
		middleware.Recover(logger),
		middleware.CORS(),
		middleware.Metrics(m),
	}
}

func initializeMetrics(serviceName string) interfaces.Metrics {
	appMetrics := metrics.NewMetrics(serviceName)
	middleware.RegisterHTTPMetrics(appMetrics)
	routes.RegisterMetrics(appMetrics)
	return appMetrics
}

// initializeIssuer prefers an ECDSA key when one is configured and falls back to the shared secret.
func initializeIssuer(token config.Token) (*auth.TokenIssuer, error) {
	if token.PrivateKeyPath != "" {
		privateKey, err := auth.LoadECDSAPrivateKey(token.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load private key: %w", err)
		}
		return auth.NewECDSAIssuer(privateKey, token.TTL)
	}
	return auth.NewHMACIssuer(token.Secret, token.TTL)
}

func initializeDBClient(cfg *config.ServiceConfig, logger interfaces.Logger) (interfaces.DBClient, error) {
	var (
		dbClient interfaces.DBClient
		dsn      string
		err      error
	)

	switch cfg.Database.Type {
	case config.DatabaseTypeMongo:
		dbClient, err = mongo.NewMongoDB(cfg.Database.MongoDB, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MongoDB client: %w", err)
		}
		dsn = cfg.Database.MongoDB.DSN

	case config.DatabaseTypePostgres:
		dbClient, err = postgres.NewPostgresDatabaseClient(cfg.Database.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL client: %w", err)
		}
		dsn = cfg.Database.Postgres.DSN

	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}

	if err := dbClient.Connect(context.Background(), dsn); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Database.Type, err)
	}

	return dbClient, nil
}

func initializeUserRepo(cfg *config.ServiceConfig, dbClient interfaces.DBClient) (interfaces.UserRepository, error) {
	var (
		userRepo interfaces.UserRepository
		err      error
	)

	switch cfg.Database.Type {
	case config.DatabaseTypeMongo:
		userRepo, err = mongoUserRepo.NewMongoUserRepository(dbClient)
	case config.DatabaseTypePostgres:
		userRepo, err = postgresUserRepo.NewPostgresUserRepository(dbClient)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
	if err != nil {
		return nil, err
	}

	if err = userRepo.EnsureIndices(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure indices: %w", err)
	}

	return userRepo, nil
}
