package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"

	libdb "skyscope/backend/libs/db"
	libredis "skyscope/backend/libs/redis"
	"skyscope/backend/services/skyscope-api/internal/config"
	"skyscope/backend/services/skyscope-api/internal/export"
	httpserver "skyscope/backend/services/skyscope-api/internal/http"
	"skyscope/backend/services/skyscope-api/internal/http/handlers"
	"skyscope/backend/services/skyscope-api/internal/http/middleware"
	"skyscope/backend/services/skyscope-api/internal/live"
	"skyscope/backend/services/skyscope-api/internal/metrics"
	redisstore "skyscope/backend/services/skyscope-api/internal/redis"
	"skyscope/backend/services/skyscope-api/internal/repository"
	"skyscope/backend/services/skyscope-api/internal/repository/memory"
	"skyscope/backend/services/skyscope-api/internal/repository/sqlite"
	"skyscope/backend/services/skyscope-api/internal/secret"
	"skyscope/backend/services/skyscope-api/internal/service"
)

// App wires skyscope-api dependencies.
type App struct {
	handler     http.Handler
	server      *httpserver.Server
	hub         *live.Hub
	db          *sql.DB
	redisClient *redis.Client
	mirror      *export.InfluxMirror
	logger      *zap.Logger
}

type stores struct {
	sensors      service.SensorRepository
	measurements service.MeasurementRepository
	db           *sql.DB
}

// New constructs the application graph. Store, cache and mirror connections are
// opened here and released by Close.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *App, err error) {
	app := &App{logger: logger}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.db = st.db

	verifier, err := secret.NewVerifier(cfg.Registration.Key, cfg.Registration.KeyHash)
	if err != nil {
		return nil, fmt.Errorf("app: registration key: %w", err)
	}

	var cache service.SensorCache
	if cfg.RedisEnabled() {
		app.redisClient, err = libredis.NewRedisClient(ctx, libredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		cache = redisstore.NewStore(app.redisClient)
	}

	m := metrics.New()
	app.hub = live.NewHub(logger)
	m.Gauge("live_subscribers", "Open live feed connections.", func() float64 { return float64(app.hub.SubCount()) })
	m.Gauge("live_dropped_events", "Live events dropped for slow subscribers.", func() float64 { return float64(app.hub.DropCount()) })

	sinks := []service.MeasurementSink{m, app.hub}
	if cfg.InfluxEnabled() {
		app.mirror, err = export.NewInfluxMirror(ctx, export.Options{
			URL:    cfg.Influx.URL,
			Token:  cfg.Influx.Token,
			Org:    cfg.Influx.Org,
			Bucket: cfg.Influx.Bucket,
		}, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, app.mirror)
	}

	registrationService := service.NewRegistrationService(st.sensors, verifier, cache, logger.Named("registration"))
	ingestionService := service.NewIngestionService(st.sensors, st.measurements, cache, logger.Named("ingestion"), sinks...)
	queryService := service.NewQueryService(st.sensors, st.measurements, logger.Named("query"))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	liveServer := live.NewServer(app.hub, cfg.PingInterval(), 0, originChecker(cfg, corsHandler), logger.Named("live"))

	routes := httpserver.Routes{
		Register:    handlers.NewRegisterHandler(registrationService, m),
		Ingest:      handlers.NewIngestHandler(ingestionService),
		Sensors:     handlers.NewSensorsHandler(queryService),
		Latest:      handlers.NewLatestHandler(queryService),
		Last12Hours: handlers.NewLast12HoursHandler(queryService),
		Filter:      handlers.NewFilterHandler(queryService),
		Live:        liveServer.HandleWS,
		Health:      handlers.NewHealthHandler(),
		Metrics:     m.Handler(),
	}
	if cfg.HTTP.StaticDir != "" {
		routes.Static = handlers.NewStaticHandler(cfg.HTTP.StaticDir)
	}

	router := httpserver.NewRouter(routes, middleware.MetricsMiddleware(m))
	app.handler = chain(corsHandler.Handler(router),
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.TimeoutMiddleware(cfg.RequestTimeout()),
	)
	app.server = httpserver.NewServer(cfg.HTTPAddress(), app.handler, cfg.RequestTimeout(), logger)

	logger.Info("application initialized",
		zap.String("driver", cfg.Database.Driver),
		zap.Bool("redis", cfg.RedisEnabled()),
		zap.Bool("influx", cfg.InfluxEnabled()),
		zap.Bool("static", cfg.HTTP.StaticDir != ""),
	)
	return app, nil
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		gdb, err := libdb.NewSQLiteDB(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		if err := sqlite.Migrate(gdb); err != nil {
			sqlDB.Close()
			return nil, err
		}
		return &stores{
			sensors:      sqlite.NewSensorRepository(gdb),
			measurements: sqlite.NewMeasurementRepository(gdb),
			db:           sqlDB,
		}, nil
	case config.DriverMemory:
		store := memory.NewStore()
		return &stores{sensors: store, measurements: store}, nil
	default:
		sqlDB, err := libdb.NewPostgresDB(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		if err := repository.EnsureSchema(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, err
		}
		return &stores{
			sensors:      repository.NewSensorRepository(sqlDB),
			measurements: repository.NewMeasurementRepository(sqlDB),
			db:           sqlDB,
		}, nil
	}
}

// originChecker applies the CORS allow-list to WebSocket upgrades. Requests without an
// Origin header come from non-browser clients and are accepted.
func originChecker(cfg *config.Config, c *cors.Cors) func(*http.Request) bool {
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		if r.Header.Get("Origin") == "" {
			return true
		}
		return c.OriginAllowed(r)
	}
}

// chain wraps h so that the first middleware is the outermost.
func chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// Handler exposes the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run starts the live hub and the HTTP server.
func (a *App) Run(ctx context.Context) error {
	go a.hub.Run(ctx)
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.mirror != nil {
		a.mirror.Close()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
