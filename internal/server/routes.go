package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"nycexplorer/internal/activity"
	"nycexplorer/internal/auth"
	"nycexplorer/internal/broadcast"
	"nycexplorer/internal/cache"
	"nycexplorer/internal/config"
	"nycexplorer/internal/db"
	"nycexplorer/internal/engine"
	"nycexplorer/internal/events"
	"nycexplorer/internal/logging"
	"nycexplorer/internal/memstore"
	"nycexplorer/internal/metrics"
	"nycexplorer/internal/wshub"
)

func Run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register(prometheus.DefaultRegisterer)

	authMgr, err := auth.NewManager(cfg.JWTSecret)
	if err != nil {
		return err
	}

	var (
		store      activity.Store
		badgeStore engine.BadgeStore
	)

	// Optional database connection
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("database connect failed, running in memory", zap.Error(err))
		} else {
			defer database.Close()
			if err := database.Migrate(ctx); err != nil {
				return fmt.Errorf("migrating database: %w", err)
			}
			store, badgeStore = database, database
			logger.Info("database connected and migrations applied")
		}
	} else {
		logger.Info("DATABASE_URL not set, running in memory")
	}
	if store == nil {
		mem := memstore.New()
		store, badgeStore = mem, mem
	}

	if cfg.RedisURL != "" {
		client, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, business cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			store = cache.NewBusinessStore(store, client, cfg.BusinessCacheTTL, logger)
			logger.Info("business cache enabled", zap.Duration("ttl", cfg.BusinessCacheTTL))
		}
	}

	bus := events.NewBus()
	hub := wshub.NewHub()
	eng := engine.New(engine.Options{
		Store:          badgeStore,
		Source:         store,
		Bus:            bus,
		Logger:         logger,
		FactTimeout:    cfg.FactTimeout,
		PersistRetries: cfg.PersistRetries,
	})
	go broadcast.NewBroadcaster(bus, hub, cfg.NotificationTTL, logger).Run(ctx)

	srv := &Server{
		Store:          store,
		Engine:         eng,
		Hub:            hub,
		Auth:           authMgr,
		Logger:         logger,
		EventRateLimit: cfg.EventRateLimit,
	}

	httpSrv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// Router builds the HTTP surface. Everything under /api requires a bearer
// token.
func (s *Server) Router() http.Handler {
	s.Logger = logging.OrNop(s.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.Logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Monitor)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.Auth.Middleware)

		r.Get("/user/badges", s.handleGetBadges)
		r.With(s.eventLimiter()).Post("/user/badges/events", s.handleBadgeEvent)
		r.Get("/user/badges/ws", s.handleBadgeStream)

		r.Get("/user/profile", s.handleGetProfile)
		r.Put("/user/profile", s.handleUpdateProfile)
		r.Put("/user/profile-picture", s.handleProfilePicture)
		r.Get("/user/preferences", s.handleGetPreferences)
		r.Put("/user/preferences", s.handleSetPreferences)

		r.Post("/reviews", s.handleCreateReview)
		r.Get("/reviews/user", s.handleUserReviews)
		r.Delete("/reviews/{id}", s.handleDeleteReview)

		r.Get("/itineraries", s.handleListItineraries)
		r.Post("/itineraries", s.handleCreateItinerary)
		r.Delete("/itineraries/{id}", s.handleDeleteItinerary)

		r.Get("/businesses/{id}", s.handleGetBusiness)
		r.Put("/businesses/{id}", s.handlePutBusiness)
	})

	return r
}

// eventLimiter throttles explicit badge checks per user.
func (s *Server) eventLimiter() func(http.Handler) http.Handler {
	if s.EventRateLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(s.EventRateLimit, time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return auth.UserID(r.Context()), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusTooManyRequests, "too many badge checks, slow down")
		}),
	)
}
