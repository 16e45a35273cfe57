package cmd

import (
	"context"
	"fmt"
	"net/http"

	"catalog/api"
	apicatalog "catalog/api/catalog"
	"catalog/api/health"
	"catalog/application/behavior"
	appcatalog "catalog/application/catalog"
	"catalog/application/mediator"
	"catalog/application/validation"
	"catalog/config"
	"catalog/domain/catalog"
	"catalog/domain/shared"
	"catalog/infrastructure/persistence"
	"catalog/infrastructure/persistence/audit"
	"catalog/infrastructure/persistence/gormdb"
	"catalog/infrastructure/persistence/memory"
	"catalog/infrastructure/persistence/retry"
	"catalog/pkg/logger"
	"catalog/pkg/metrics"
	"catalog/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AppBuilder builds an App with customizable components
type AppBuilder struct {
	cfg          *config.Config
	controllers  []api.ControllerRegister
	middlewares  []api.MiddlewareRegister
	customRoutes []api.Route
	store        persistence.Database
}

// NewBuilder creates a new AppBuilder
func NewBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{
		cfg:          cfg,
		controllers:  []api.ControllerRegister{},
		middlewares:  []api.MiddlewareRegister{},
		customRoutes: []api.Route{},
	}
}

// WithController adds a controller to the app
func (b *AppBuilder) WithController(c api.ControllerRegister) *AppBuilder {
	b.controllers = append(b.controllers, c)
	return b
}

// WithMiddleware adds a middleware to the app
func (b *AppBuilder) WithMiddleware(m api.MiddlewareRegister) *AppBuilder {
	b.middlewares = append(b.middlewares, m)
	return b
}

// WithRoute adds a custom route
func (b *AppBuilder) WithRoute(method, path string, handler gin.HandlerFunc) *AppBuilder {
	b.customRoutes = append(b.customRoutes, api.Route{
		Method:  method,
		Path:    path,
		Handler: handler,
	})
	return b
}

// WithStore replaces the configured database; database.type is then ignored
func (b *AppBuilder) WithStore(db persistence.Database) *AppBuilder {
	b.store = db
	return b
}

// Build creates the App instance
func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	log, err := logger.Init(b.cfg.Log, b.cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Info("Starting application",
		zap.String("app", b.cfg.App.Name),
		zap.String("version", b.cfg.App.Version),
		zap.String("env", b.cfg.App.Env),
		zap.String("database", b.cfg.Database.Driver))

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		ServiceName: b.cfg.Tracing.ServiceName,
		Version:     b.cfg.App.Version,
		Environment: b.cfg.App.Env,
		Endpoint:    b.cfg.Tracing.Endpoint,
		Insecure:    b.cfg.Tracing.Insecure,
		SampleRatio: b.cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	store, gdb, err := b.openStore(ctx, log)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, err
	}

	collector := metrics.New(metricsNamespace)
	factory := persistence.NewUnitOfWorkFactory(store, log, audit.NewInterceptor())

	sender, err := NewSender(b.cfg, factory, collector, log)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, err
	}

	if !b.hasHealthController() {
		b.controllers = append(b.controllers, health.NewController(b.cfg, healthChecks(gdb)))
	}
	if !b.hasCatalogController() {
		b.controllers = append(b.controllers, apicatalog.NewController(sender))
	}
	if b.cfg.Metrics.Enabled {
		b.WithRoute(http.MethodGet, b.cfg.Metrics.Path, gin.WrapH(collector.Handler()))
	}

	router := api.NewRouter(b.cfg, b.controllers, b.middlewares, b.customRoutes)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         ":" + b.cfg.Server.Port,
		Handler:      router.GetEngine(),
		ReadTimeout:  b.cfg.Server.ReadTimeout,
		WriteTimeout: b.cfg.Server.WriteTimeout,
	}

	app := &App{
		config: b.cfg,
		router: router,
		server: server,
		db:     gdb,
		log:    log,
	}
	app.onShutdown(shutdownTracing)
	return app, nil
}

const metricsNamespace = "catalog"

// NewSender assembles the request pipeline: validation, performance and
// transaction behaviors around the catalog handlers, with command retries
// on transient store errors outside the whole chain.
func NewSender(cfg *config.Config, factory shared.UnitOfWorkFactory, collector *metrics.Collector, log *zap.Logger) (mediator.Sender, error) {
	handlers := appcatalog.NewHandlers(factory, log)
	m, err := mediator.New(handlers.Registrations(),
		mediator.WithLogger(log),
		mediator.WithBehaviors(behavior.Pipeline(
			validation.NewBehavior(appcatalog.Validators(factory),
				validation.WithConcurrency(cfg.Pipeline.ValidatorConcurrency),
				validation.WithLogger(log)),
			behavior.NewPerformance(log,
				behavior.WithThreshold(cfg.Pipeline.SlowThreshold),
				behavior.WithMetrics(collector),
				behavior.WithTracer(tracing.Tracer())),
			behavior.NewTransaction(factory, log, collector),
		)...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build mediator: %w", err)
	}
	if err := m.Require(appcatalog.Requests()...); err != nil {
		return nil, fmt.Errorf("incomplete handler registration: %w", err)
	}

	retryConfig := retry.FromAppConfig(cfg)
	retryConfig.Logger = log
	return retry.NewSender(m, retryConfig), nil
}

// openStore returns the configured database. gdb is nil for the in-memory store.
func (b *AppBuilder) openStore(ctx context.Context, log *zap.Logger) (persistence.Database, *gorm.DB, error) {
	if b.store != nil {
		return b.store, nil, nil
	}
	if b.cfg.Database.Driver == config.DatabaseMemory {
		log.Info("Using in-memory persistence layer")
		return memory.New(), nil, nil
	}

	gdb, err := OpenDatabase(ctx, b.cfg, log)
	if err != nil {
		return nil, nil, err
	}

	// Auto migration in development environment
	if b.cfg.IsDevelopment() {
		if err := Migrate(gdb); err != nil {
			return nil, nil, fmt.Errorf("failed to auto migrate: %w", err)
		}
	}
	return gormdb.NewDB(gdb), gdb, nil
}

// OpenDatabase connects to the configured SQL database and verifies it answers
func OpenDatabase(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	dbConfig := cfg.Database.Config
	gdb, err := dbConfig.Connect(log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Database.Driver, err)
	}
	if err := gormdb.Ping(ctx, gdb); err != nil {
		return nil, fmt.Errorf("failed to ping %s: %w", cfg.Database.Driver, err)
	}
	return gdb, nil
}

// Migrate creates or updates the catalog tables and the audit table
func Migrate(gdb *gorm.DB) error {
	return gormdb.AutoMigrate(gdb, &catalog.Category{}, &catalog.Product{})
}

func healthChecks(gdb *gorm.DB) map[string]health.CheckFunc {
	if gdb == nil {
		return nil
	}
	return map[string]health.CheckFunc{
		"database": func(ctx context.Context) error { return gormdb.Ping(ctx, gdb) },
	}
}

func (b *AppBuilder) hasCatalogController() bool {
	for _, c := range b.controllers {
		if _, ok := c.(*apicatalog.Controller); ok {
			return true
		}
	}
	return false
}

func (b *AppBuilder) hasHealthController() bool {
	for _, c := range b.controllers {
		if _, ok := c.(*health.Controller); ok {
			return true
		}
	}
	return false
}
