package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/crecheapp/creche-backend/internal/config"
	"github.com/crecheapp/creche-backend/internal/database"
	"github.com/crecheapp/creche-backend/internal/handler"
	"github.com/crecheapp/creche-backend/internal/logger"
	"github.com/crecheapp/creche-backend/internal/middleware"
	"github.com/crecheapp/creche-backend/internal/repository"
	"github.com/crecheapp/creche-backend/internal/router"
	"github.com/crecheapp/creche-backend/internal/service"
	"github.com/crecheapp/creche-backend/internal/validator"
	"github.com/crecheapp/creche-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("timezone", cfg.Location.String()).
		Msg("Starting Creche Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Apply Migrations ──────────────────────────────────────────────
	if cfg.AutoMigrate {
		if err := database.MigrateUp(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		log.Info().Str("dir", cfg.MigrationsDir).Msg("Migrations applied")
	}

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("Failed to create upload directory")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	tx := repository.NewTransactor(pool)
	institutionRepo := repository.NewInstitutionRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	classRepo := repository.NewClassRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	dailyLogRepo := repository.NewDailyLogRepository(pool, cfg.Location)
	medicationRepo := repository.NewMedicationRepository(pool)
	incidentRepo := repository.NewIncidentRepository(pool)
	vaccinationRepo := repository.NewVaccinationRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	photoRepo := repository.NewPhotoRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool, cfg.Location)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, profileRepo, log)
	notificationService := service.NewNotificationService(rdb, notificationRepo, profileRepo, studentRepo, classRepo, log)
	institutionService := service.NewInstitutionService(institutionRepo)
	settingService := service.NewSettingService(tx, settingRepo, log)
	profileService := service.NewProfileService(tx, profileRepo, studentRepo, authService, log)
	classService := service.NewClassService(classRepo, profileRepo)
	studentService := service.NewStudentService(tx, studentRepo, classRepo, profileRepo, authService, log)
	rosterService := service.NewRosterService(tx, studentRepo, classRepo, log)
	dailyLogService := service.NewDailyLogService(dailyLogRepo, studentRepo, notificationService, log)
	healthService := service.NewHealthService(medicationRepo, incidentRepo, vaccinationRepo, studentRepo, notificationService, cfg.Location, log)
	eventService := service.NewEventService(eventRepo, classRepo, studentRepo, profileRepo, notificationService, log)
	photoService := service.NewPhotoService(cfg, photoRepo, classRepo, eventRepo, studentRepo, log)
	dashboardService := service.NewDashboardService(dashboardRepo, eventRepo, cfg.Location)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(authService, log),
		Setting:      handler.NewSettingHandler(institutionService, settingService, log),
		Profile:      handler.NewProfileHandler(profileService, log),
		Class:        handler.NewClassHandler(classService, log),
		Student:      handler.NewStudentHandler(studentService, rosterService, cfg.MaxUploadBytes, log),
		DailyLog:     handler.NewDailyLogHandler(dailyLogService, log),
		Health:       handler.NewHealthHandler(healthService, log),
		Event:        handler.NewEventHandler(eventService, cfg.Location, log),
		Photo:        handler.NewPhotoHandler(photoService, log),
		Notification: handler.NewNotificationHandler(notificationService, log),
		Dashboard:    handler.NewDashboardHandler(dashboardService, log),
		WS:           handler.NewWSHandler(authService, notificationService, log, cfg.AllowedOrigins),
		System:       handler.NewSystemHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	notificationWorker := worker.NewNotificationWorker(rdb, notificationRepo, notificationService, log)
	reminderScheduler := worker.NewReminderScheduler(cfg, rdb, institutionRepo, healthService, notificationService, log)

	workers.Add(2)
	go func() {
		defer workers.Done()
		notificationWorker.Start(workerCtx)
	}()
	go func() {
		defer workers.Done()
		reminderScheduler.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	loginLimiter := middleware.NewRateLimiter(rdb, cfg.LoginRateLimit, log)
	r := router.SetupRouter(authService, loginLimiter, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the notification buffer to drain.
	workerCancel()
	drained := make(chan struct{})
	go func() {
		workers.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Workers did not stop in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
