package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aphro-backend/internal/config"
	"aphro-backend/internal/handlers"
	"aphro-backend/internal/metrics"
	"aphro-backend/internal/middleware"
	"aphro-backend/internal/repository"
	"aphro-backend/internal/scheduler"
	"aphro-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	// Initialize services
	authService := services.NewAuthService(
		userRepo,
		tokenRepo,
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWT.RefreshTTLDays)*24*time.Hour,
	)
	geoService := services.NewGeoService(userRepo, cfg.Crossing.RadiusMeters)
	matchService := services.NewMatchService(likeRepo)
	pushService := services.NewPushService(deviceRepo, cfg.APNS)
	hub := services.NewHub(cfg.Presence.CloseReplaced)
	chatService := services.NewChatService(messageRepo, matchService, hub, pushService)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(authService)
	deviceHandler := handlers.NewDeviceHandler(pushService)
	geoHandler := handlers.NewGeoHandler(geoService)
	likeHandler := handlers.NewLikeHandler(matchService, pushService)
	messageHandler := handlers.NewMessageHandler(chatService)
	wsHandler := handlers.NewWebSocketHandler(hub, chatService, authService)

	// Start background loops
	sched := scheduler.New(context.Background())
	sched.Every("crossing-detector", cfg.Crossing.Interval(), func(ctx context.Context) error {
		detected, err := geoService.DetectCrossings(ctx)
		if err != nil {
			return err
		}
		if len(detected) > 0 {
			metrics.CrossingsDetected.Add(float64(len(detected)))
			log.Info().Int("count", len(detected)).Msg("Crossings detected")
		}
		return nil
	})
	sched.Every("token-sweep", cfg.TokenSweep.Interval(), func(ctx context.Context) error {
		return authService.SweepExpired(ctx)
	})

	// Rate limiter in front of all request handling
	limiter := middleware.NewLimiter(
		middleware.NewMemoryStore(),
		cfg.RateLimit.Window(),
		cfg.RateLimit.MaxRequests,
	)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(metrics.Middleware)
	r.Use(middleware.RateLimit(limiter))

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", userHandler.CreateUser)
		r.Post("/login", userHandler.Login)
		r.Post("/refresh", userHandler.Refresh)
		r.Post("/logout", userHandler.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authService))
			r.Post("/register-device", deviceHandler.RegisterDevice)
			r.Post("/update-location", geoHandler.UpdateLocation)
			r.Post("/like", likeHandler.Like)
			r.Get("/matches", likeHandler.Matches)
			r.Get("/likes-history", likeHandler.LikesHistory)
			r.Get("/matches-history", likeHandler.MatchesHistory)
			r.Get("/nearby-users", geoHandler.NearbyUsers)
			r.Get("/messages/{other_user_id}", messageHandler.GetMessages)
		})
	})

	// Manual crossing detection and metrics
	r.Get("/detect-crossings", geoHandler.DetectCrossings)
	r.Handle("/metrics", promhttp.Handler())

	// WebSocket route
	r.Get("/ws/{user_id}", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Shutdown HTTP server, then stop background loops and wait for them
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	sched.Stop()

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-User-Id")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
