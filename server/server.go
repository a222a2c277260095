// Package server assembles the newsmap HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pevans/newsmap/auth"
	"github.com/pevans/newsmap/config"
	"github.com/pevans/newsmap/countries"
	"github.com/pevans/newsmap/geoip"
	"github.com/pevans/newsmap/headlines"
	"github.com/pevans/newsmap/metrics"
	"github.com/pevans/newsmap/newspapers"
	"github.com/pevans/newsmap/notifications"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Server is the newsmap API with its stores.
type Server struct {
	cfg     *config.Config
	logger  zerolog.Logger
	router  *gin.Engine
	metrics *metrics.Metrics
	geoDB   *geoip.Database
	closers []io.Closer
}

// New opens the stores named by cfg and mounts every route.
func New(cfg *config.Config, logger zerolog.Logger) (_ *Server, err error) {
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
	}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	registry := countries.Default()
	if cfg.Registry.Path != "" {
		if registry, err = countries.LoadRegistry(cfg.Registry.Path); err != nil {
			return nil, err
		}
		logger.Info().Str("path", cfg.Registry.Path).Int("countries", registry.Len()).Msg("loaded country registry")
	}
	matcher := countries.NewMatcher(registry)

	newspaperStore, err := newspapers.NewNewspaperStore(cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create newspaper store: %w", err)
	}
	s.closers = append(s.closers, newspaperStore)

	userStore, err := auth.NewUserStore(cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create user store: %w", err)
	}
	s.closers = append(s.closers, userStore)

	notificationStore, err := notifications.NewNotificationStore(cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification store: %w", err)
	}
	s.closers = append(s.closers, notificationStore)

	settingsStore, err := config.NewSettingsStore(cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create settings store: %w", err)
	}
	s.closers = append(s.closers, settingsStore)

	var locator *geoip.Locator
	if cfg.GeoIP.Database != "" {
		db, err := geoip.OpenDatabase(cfg.GeoIP.Database)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db)
		s.geoDB = db
		locator = geoip.NewLocator(db, registry)
	}

	tokens := auth.NewTokenService(cfg.Auth.SecretKey, cfg.Auth.TokenTTL)
	requireAuth := auth.RequireAuth(tokens, logger.With().Str("component", "auth").Logger())
	notifier := notifications.NewNotifier(notificationStore, s.metrics, logger)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(logger.With().Str("component", "http").Logger()),
		s.metrics.Middleware(),
		corsMiddleware(cfg.Server.CORSOrigins),
	)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	auth.NewAuthAPIServer(userStore, tokens, auth.Credentials{
		Username: cfg.Auth.AdminUsername,
		Password: cfg.Auth.AdminPassword,
	}, logger).RegisterRoutes(api)
	newspapers.NewNewspaperAPIServer(newspaperStore, matcher, notifier, s.metrics, logger).
		RegisterRoutes(api, requireAuth)
	headlines.NewHeadlineAPIServer(newspaperStore, headlines.NewClient(), settingsStore, logger).
		RegisterRoutes(api, requireAuth)
	notifications.NewNotificationAPIServer(notificationStore, logger).
		RegisterRoutes(api, requireAuth)
	config.NewSettingsAPIServer(settingsStore).
		RegisterRoutes(api, requireAuth)
	geoip.NewLocateAPIServer(locator, logger).
		RegisterRoutes(api)

	s.router = router
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("starting newsmap API server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ReloadGeoIP reopens the configured IP2Location database, picking up a file
// replaced on disk. It does nothing when geolocation is disabled.
func (s *Server) ReloadGeoIP() error {
	if s.geoDB == nil {
		return nil
	}
	if err := s.geoDB.Load(""); err != nil {
		return err
	}
	s.logger.Info().Str("path", s.cfg.GeoIP.Database).Msg("reloaded ip2location database")
	return nil
}

// Close closes every store.
func (s *Server) Close() error {
	var errs []error
	for _, c := range slices.Backward(s.closers) {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// corsMiddleware allows the configured origins. "*" allows any. Preflight
// requests are answered here and never reach the routes.
func corsMiddleware(origins []string) gin.HandlerFunc {
	policy := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	return func(c *gin.Context) {
		policy.HandlerFunc(c.Writer, c.Request)
		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.Abort()
			return
		}
		c.Next()
	}
}
