// Package main is the entry point for the ResQNET incident server.
// It provides a REST API for geo-tagged incident reports, drives each
// report through the administrative review workflow, and pushes
// proximity and status-change notifications to affected users over
// websockets.
//
// Architecture:
//   - Reports and users persist in PostgreSQL (pgx)
//   - User locations mirror into a Redis GEO set for proximity queries
//   - Notification fan-out goes through a websocket hub with per-user queues
//   - All workflow rules live in the services layer behind store interfaces
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/resqnet/incident-server/internal/config"
	"github.com/resqnet/incident-server/internal/database"
	"github.com/resqnet/incident-server/internal/geo"
	"github.com/resqnet/incident-server/internal/handlers"
	"github.com/resqnet/incident-server/internal/mailer"
	"github.com/resqnet/incident-server/internal/media"
	"github.com/resqnet/incident-server/internal/middleware"
	"github.com/resqnet/incident-server/internal/notify"
	"github.com/resqnet/incident-server/internal/services"
	"github.com/resqnet/incident-server/internal/store"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("Failed to load config: %v", err)
	}

	sugar.Infow("Starting ResQNET Incident Server",
		"port", cfg.Port,
		"env", cfg.Environment,
	)

	// Initialize database connection pool
	db, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize the Redis-backed spatial index
	geoIndex, err := geo.NewRedisIndex(cfg.RedisURL)
	if err != nil {
		sugar.Fatalf("Failed to connect to spatial index: %v", err)
	}
	defer geoIndex.Close()

	// Stores
	reportStore := store.NewPostgresReportStore(db)
	userDirectory := store.NewPostgresUserDirectory(db, geoIndex)
	categoryCatalog := store.NewPostgresCategoryCatalog(db)
	commentStore := store.NewPostgresCommentStore(db)

	// Media store for report images
	mediaStore, err := media.NewDiskStore(cfg.MediaDir, cfg.MediaBaseURL)
	if err != nil {
		sugar.Fatalf("Failed to prepare media store: %v", err)
	}

	// Outbound mail; the memory mailer stands in when SMTP is not configured
	var mail mailer.Mailer = mailer.NewMemoryMailer()
	if cfg.SMTPAddr != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPassword)
	}

	// Notification hub and services
	hub := notify.NewHub(sugar)
	notificationSvc := services.NewNotificationService(userDirectory, hub, mail, sugar)
	reportSvc := services.NewReportService(reportStore, userDirectory, categoryCatalog, mediaStore, notificationSvc, sugar)
	importanceSvc := services.NewImportanceService(reportStore, userDirectory, sugar)
	userSvc := services.NewUserService(userDirectory, reportStore, sugar)
	categorySvc := services.NewCategoryService(categoryCatalog, sugar)
	commentSvc := services.NewCommentService(commentStore, reportStore, userDirectory, notificationSvc, sugar)

	// Initialize handlers
	reportHandler := handlers.NewReportHandler(reportSvc, importanceSvc, sugar)
	userHandler := handlers.NewUserHandler(userSvc, importanceSvc, sugar)
	categoryHandler := handlers.NewCategoryHandler(categorySvc, sugar)
	commentHandler := handlers.NewCommentHandler(commentSvc, sugar)
	notificationHandler := handlers.NewNotificationHandler(hub, sugar)
	healthHandler := handlers.NewHealthHandler(db, geoIndex, sugar)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(middleware.RateLimit(cfg.RateLimitRPM))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", healthHandler.Check)
		r.Get("/health/ready", healthHandler.Ready)

		// Public endpoints
		r.Post("/users", userHandler.Register)
		r.Get("/categories", categoryHandler.List)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.JWTSecret))

			r.Route("/reports", func(r chi.Router) {
				r.Post("/", reportHandler.Create)
				r.Get("/mine", reportHandler.Mine)
				r.Post("/filter", reportHandler.Filter) // admin
				r.Route("/{reportID}", func(r chi.Router) {
					r.Get("/", reportHandler.Get)
					r.Put("/", reportHandler.Update)
					r.Delete("/", reportHandler.Delete)
					r.Patch("/status", reportHandler.ChangeStatus)
					r.Post("/reject", reportHandler.Reject) // admin
					r.Post("/resubmit", reportHandler.Resubmit)
					r.Post("/importance", reportHandler.ToggleImportance)
					r.Get("/liked-by", reportHandler.LikedBy)
					r.Post("/comments", commentHandler.Create)
					r.Get("/comments", commentHandler.ListForReport)
				})
			})

			r.Put("/users/me/location", userHandler.UpdateLocation)
			r.Get("/users/{userID}", userHandler.Get)
			r.Delete("/users/{userID}", userHandler.Deactivate)
			r.Get("/users/{userID}/liked-reports", userHandler.LikedReports)
			r.Get("/users/{userID}/comments", commentHandler.ListForUser)

			r.Post("/categories", categoryHandler.Create)                 // admin
			r.Delete("/categories/{categoryID}", categoryHandler.Deactivate) // admin

			r.Get("/notifications/ws", notificationHandler.Subscribe)
		})
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Serve uploaded report images
	r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.MediaDir))))

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Fatalf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}
