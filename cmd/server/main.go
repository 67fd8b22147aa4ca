// Command server runs the classroom gamification HTTP API and its
// background scheduler.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davinwzy/growth-lab/internal/api/classroom"
	"github.com/davinwzy/growth-lab/internal/cache"
	"github.com/davinwzy/growth-lab/internal/config"
	"github.com/davinwzy/growth-lab/internal/notifier"
	"github.com/davinwzy/growth-lab/internal/repository"
	"github.com/davinwzy/growth-lab/internal/service/aggregator"
	svcattendance "github.com/davinwzy/growth-lab/internal/service/attendance"
	"github.com/davinwzy/growth-lab/internal/service/leaderboard"
	"github.com/davinwzy/growth-lab/internal/service/scheduler"
	"github.com/davinwzy/growth-lab/internal/service/scoring"
	"github.com/davinwzy/growth-lab/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log.Info().
		Str("environment", cfg.Server.Environment).
		Int("port", cfg.Server.Port).
		Msg("Starting growth-lab server")

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	if err := db.AutoMigrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	redisCache, err := cache.NewRedisCache(&cfg.Database.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer func() {
		if err := redisCache.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Redis connection")
		}
	}()

	// Repositories
	studentRepo := repository.NewStudentRepository(db)
	gamRepo := repository.NewGamificationRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	if cfg.Gamification.SeedDefaultBadges {
		if err := badgeRepo.SeedDefaults(); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed default badges")
		}
	}

	notifierClient := notifier.NewClient(&cfg.Notifier, log)

	// Services
	aggregatorSvc := aggregator.NewService(studentRepo, gamRepo, historyRepo, attendanceRepo, log)
	scoringSvc := scoring.NewService(studentRepo, gamRepo, historyRepo, badgeRepo, catalogRepo,
		attendanceRepo, notifierClient, aggregatorSvc, &cfg.Gamification, log)
	attendanceSvc := svcattendance.NewService(studentRepo, gamRepo, attendanceRepo, badgeRepo,
		notifierClient, aggregatorSvc, &cfg.Gamification, log)
	leaderboardSvc := leaderboard.NewService(studentRepo, gamRepo, badgeRepo, redisCache,
		&cfg.Gamification, log)

	schedulerSvc := scheduler.NewService(cfg, studentRepo, aggregatorSvc, attendanceSvc,
		leaderboardSvc, notifierClient, log)
	if err := schedulerSvc.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer schedulerSvc.Stop()

	// HTTP server
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	handler := classroom.NewHandler(scoringSvc, attendanceSvc, leaderboardSvc,
		historyRepo, badgeRepo, catalogRepo, &cfg.Gamification, log)
	classroom.RegisterRoutes(router, handler, &cfg.Metrics)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()
	log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Forced server shutdown")
	}

	log.Info().Msg("Server stopped")
}
