// api/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aadinath/api/config"
	"aadinath/api/database"
	"aadinath/api/geo"
	"aadinath/api/handlers"
	"aadinath/api/identity"
	"aadinath/api/middleware"
	"aadinath/api/service"
	"aadinath/api/store"
	"aadinath/api/tracking"
	"aadinath/api/utils"
)

const (
	startupTimeout  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	err = run(cfg, logger)
	if err != nil {
		logger.Errorf("Server failed: %v", err)
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsRelease() {
		zcfg = zap.NewProductionConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg.Level = level

	l, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// backends are the stores selected by STORAGE_DRIVER.
type backends struct {
	events store.EventStore
	subs   store.SubmissionStore
	users  handlers.UserRepository
	close  func()
}

func openBackends(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*backends, error) {
	if cfg.UseMemoryStorage() {
		logger.Warnf("STORAGE_DRIVER=memory: analytics data is not persisted")
		mem := store.NewMemoryStore()
		return &backends{events: mem, subs: mem, users: store.NewMemoryUserStore(), close: func() {}}, nil
	}

	dbClient, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	if err := database.EnsurePostgresSchema(ctx, dbClient.DB); err != nil {
		dbClient.Close()
		return nil, err
	}

	chClient, err := database.NewClickHouseDB(ctx, cfg.ClickHouse, logger)
	if err != nil {
		dbClient.Close()
		return nil, err
	}
	if err := database.EnsureClickHouseSchema(ctx, chClient.Conn); err != nil {
		chClient.Close()
		dbClient.Close()
		return nil, err
	}

	return &backends{
		events: store.NewAnalyticsStore(chClient, logger),
		subs:   store.NewSubmissionStore(dbClient.DB, logger),
		users:  store.NewUserStore(dbClient.DB, logger),
		close: func() {
			chClient.Close()
			dbClient.Close()
		},
	}, nil
}

// newLocator layers the Redis cache over MaxMind then ipapi. Missing optional
// pieces are skipped.
func newLocator(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (geo.Locator, func()) {
	var (
		chain   geo.Chain
		closers []func()
	)

	if cfg.Geo.DBPath != "" {
		mm, err := geo.OpenMaxMind(cfg.Geo.DBPath)
		if err != nil {
			logger.Warnf("GeoIP database unavailable, using HTTP lookups only: %v", err)
		} else {
			chain = append(chain, mm)
			closers = append(closers, func() { _ = mm.Close() })
		}
	}
	chain = append(chain, geo.NewIPAPILocator(cfg.Geo.APIURL, cfg.Geo.LookupTimeout, logger))

	var locator geo.Locator = chain
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warnf("Redis unavailable, geolocation results will not be cached: %v", err)
		} else {
			locator = geo.NewCachedLocator(chain, rdb, cfg.Geo.CacheTTL, logger)
			closers = append(closers, func() { _ = rdb.Close() })
		}
	}

	return locator, func() {
		for _, c := range closers {
			c()
		}
	}
}

func run(cfg *config.Config, logger *zap.SugaredLogger) error {
	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	be, err := openBackends(startCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer be.close()

	locator, closeLocator := newLocator(startCtx, cfg, logger)
	defer closeLocator()

	loc, err := cfg.Analytics.Location()
	if err != nil {
		return err
	}

	// Capture pipeline: handlers enqueue, the writer batches into the event store.
	buffer := tracking.NewBuffer(cfg.Capture.BufferSize)
	writer := tracking.NewWriter(be.events, buffer, logger, cfg.Capture.FlushInterval, cfg.Capture.FlushThreshold)
	writer.Start()
	defer writer.Stop()

	capturer := tracking.NewCapturer(buffer, locator, be.subs, logger)
	svc := service.NewAnalyticsService(be.events, be.subs, service.Options{
		FetchMultiplier: cfg.Analytics.FetchMultiplier,
		QueryTimeout:    cfg.Analytics.QueryTimeout,
		Location:        loc,
		IdleTimeout:     cfg.Analytics.IdleTimeout,
	}, logger)
	issuer := utils.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)

	cookies := identity.CookieOptions{
		MaxAge: cfg.Session.CookieMaxAge,
		Domain: cfg.Session.CookieDomain,
		Secure: cfg.Session.CookieSecure,
	}

	r := gin.New()
	if !cfg.IsRelease() {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestMetrics())
	r.Use(middleware.CORSMiddleware(middleware.ParseOrigins(cfg.FEOrigin)))

	handlers.SetupRoutes(r, handlers.Routes{
		Track:         handlers.NewTrackHandlers(capturer, locator, cookies, logger),
		Analytics:     handlers.NewAnalyticsHandlers(svc, loc, logger),
		Auth:          handlers.NewAuthHandlers(be.users, issuer, int(issuer.TTL()/time.Second), cfg.Session.CookieSecure, logger),
		AdminAuth:     middleware.AuthRequired(issuer, cfg.Auth.DefaultKey, logger),
		CaptureLimit:  cfg.Capture.RateLimit,
		CaptureWindow: cfg.Capture.RateWindow,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("API server starting on %s (storage=%s)", cfg.ServerAddr(), cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	logger.Infof("Shutting down server...")

	ctx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	logger.Infof("Server exiting, flushing %d buffered events", buffer.Len())
	return nil
}
