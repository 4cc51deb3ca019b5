// @title          Fellowship API
// @version        1.0
// @description    Community forum, small groups and scripture lookup.
// @BasePath       /api/v1
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/fkhayef/fellowship/docs"
	"github.com/fkhayef/fellowship/internal/config"
	"github.com/fkhayef/fellowship/internal/database"
	"github.com/fkhayef/fellowship/internal/group"
	"github.com/fkhayef/fellowship/internal/like"
	"github.com/fkhayef/fellowship/internal/notification"
	"github.com/fkhayef/fellowship/internal/post"
	"github.com/fkhayef/fellowship/internal/profile"
	"github.com/fkhayef/fellowship/internal/scripture"
	"github.com/fkhayef/fellowship/internal/topic"
	"github.com/fkhayef/fellowship/pkg/metrics"
	mw "github.com/fkhayef/fellowship/pkg/middleware"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Info("no .env file found, using environment variables")
	}

	// Initialize database connection
	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database")

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			logger.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
		logger.Info("schema up to date")
	}

	recorder := metrics.NewRecorder()

	// Profile feature
	profileRepo := profile.NewRepository(db)
	profileService := profile.NewService(profileRepo)
	profileHandler := profile.NewHandler(profileService)

	// Notification feature: best-effort activity inbox fed by posts, likes and groups
	notificationRepo := notification.NewRepository(db)
	notificationService := notification.NewService(notificationRepo, profileService, logger, recorder)
	notificationHandler := notification.NewHandler(notificationService)

	// Forum features: topics list their posts, posts check their topic
	topicRepo := topic.NewRepository(db)
	postRepo := post.NewRepository(db)
	postService := post.NewService(postRepo, topicRepo, profileService, notificationService)
	postHandler := post.NewHandler(postService)

	topicService := topic.NewService(topicRepo, postService, profileService, logger, recorder)
	topicHandler := topic.NewHandler(topicService)

	// Like feature
	likeRepo := like.NewRepository(db)
	likeService := like.NewService(likeRepo, notificationService)
	likeHandler := like.NewHandler(likeService)

	// Group feature
	groupRepo := group.NewRepository(db)
	groupService := group.NewService(groupRepo, profileService, notificationService)
	groupHandler := group.NewHandler(groupService)

	// Scripture feature
	scriptureClient := scripture.NewClient(scripture.ClientConfig{
		BaseURL: cfg.ScriptureAPIURL,
		APIKey:  cfg.ScriptureAPIKey,
		Timeout: cfg.ScriptureTimeout,
	}, scripture.NewCache())
	scriptureHandler := scripture.NewHandler(scriptureClient)

	sessions := mw.NewSessions(mw.SessionConfig{
		Secret:      cfg.SessionSecret,
		CookieName:  cfg.SessionCookie,
		TTL:         cfg.SessionTTL,
		RefreshLead: cfg.SessionRefreshLead,
		Secure:      cfg.SecureCookies,
	})
	limiter := mw.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Drop rate-limit buckets of callers idle for 10 minutes
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go limiter.Run(sweepCtx, time.Minute, 10*time.Minute)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.MetricsEnabled {
		r.Use(recorder.Middleware)
	}
	r.Use(mw.CORS(mw.DefaultCORSConfig(cfg.AllowedOrigins)))
	r.Use(sessions.Authenticate)
	if cfg.DevAuthHeader {
		logger.Warn("X-Test-User-ID header authentication is enabled")
		r.Use(mw.DevUserMiddleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsEnabled {
		r.Handle("/metrics", recorder.Handler())
	}
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limiter.Limit)

		// Mount feature routers
		r.Mount("/profiles", profileHandler.Routes())
		r.Mount("/topics", topicHandler.Routes())
		r.Mount("/posts", postHandler.Routes())
		r.Mount("/likes", likeHandler.Routes())
		r.Mount("/groups", groupHandler.Routes())
		r.Mount("/scripture", scriptureHandler.Routes())
		r.Mount("/notifications", notificationHandler.Routes())
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	logger.Info("shutting down server")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.TimeOnly,
	}))
}
