package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/canchalibre/booking-system/config"
	"github.com/canchalibre/booking-system/db"
	"github.com/canchalibre/booking-system/handlers"
	"github.com/canchalibre/booking-system/middleware"
	"github.com/canchalibre/booking-system/realtime"
	"github.com/canchalibre/booking-system/repositories"
	"github.com/canchalibre/booking-system/routes"
	"github.com/canchalibre/booking-system/services"
	"github.com/canchalibre/booking-system/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

// schedulerInterval задаёт период зачистки матчевых приглашений,
// чьи брони уже прошли или отменены.
const schedulerInterval = time.Minute

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Инициализация загрузчика файлов (Cloudflare R2)
	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	// Инициализация WebSocket Hub
	wsHub := realtime.NewHub(logger)
	go wsHub.Run()
	defer wsHub.Close()
	logger.Info("WebSocket hub started")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	rosterRepo := repositories.NewPostgresRosterRepository(dbConn)
	complexRepo := repositories.NewPostgresComplexRepository(dbConn)
	courtRepo := repositories.NewPostgresCourtRepository(dbConn)
	reservationRepo := repositories.NewPostgresReservationRepository(dbConn)
	reservationTeamRepo := repositories.NewPostgresReservationTeamRepository(dbConn)
	proposalRepo := repositories.NewPostgresProposalRepository(dbConn)
	invitationRepo := repositories.NewPostgresMatchInvitationRepository(dbConn)
	notificationRepo := repositories.NewPostgresNotificationRepository(dbConn)
	logger.Info("repositories initialized")

	// Инициализация сервисов
	var emailSender services.EmailSender
	if cfg.SMTPHost != "" {
		emailSender = services.NewEmailService(cfg)
		logger.Info("SMTP email sender initialized", slog.String("host", cfg.SMTPHost))
	} else {
		logger.Warn("SMTP is not configured, email notifications disabled")
	}

	notificationService := services.NewNotificationService(notificationRepo, userRepo, wsHub, emailSender, logger)
	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo, uploader)
	teamService := services.NewTeamService(dbConn, teamRepo, rosterRepo, uploader)
	rosterService := services.NewRosterService(rosterRepo, teamRepo)
	complexService := services.NewComplexService(complexRepo, courtRepo, uploader)
	courtService := services.NewCourtService(courtRepo, complexRepo)
	availabilityService := services.NewAvailabilityService(reservationRepo)
	reservationService := services.NewReservationService(
		reservationRepo, courtRepo, teamRepo, availabilityService, notificationService)
	proposalService := services.NewProposalService(
		dbConn, proposalRepo, teamRepo, userRepo, rosterService, notificationService)
	matchInvitationService := services.NewMatchInvitationService(
		dbConn, invitationRepo, reservationRepo, reservationTeamRepo, teamRepo, notificationService)
	dashboardService := services.NewDashboardService(
		userRepo, teamRepo, complexRepo, courtRepo, reservationRepo, proposalRepo)
	logger.Info("services initialized")

	// Планировщик: протухшие матчевые приглашения переводятся в rejected.
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("match invitation expiry scheduler started",
			slog.Duration("interval", schedulerInterval))

		run := func() {
			expired, err := matchInvitationService.ExpirePastInvitations(context.Background())
			if err != nil {
				logger.Error("scheduler: failed to expire match invitations", slog.Any("error", err))
				return
			}
			if expired > 0 {
				logger.Info("scheduler: expired match invitations", slog.Int64("count", expired))
			}
		}

		run()
		for range ticker.C {
			run()
		}
	}()

	// Инициализация обработчиков HTTP
	auth := middleware.NewAuthenticator(cfg.JWTSecretKey)
	allHandlers := routes.Handlers{
		Auth:            handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		User:            handlers.NewUserHandler(userService),
		Team:            handlers.NewTeamHandler(teamService, rosterService),
		Complex:         handlers.NewComplexHandler(complexService),
		Court:           handlers.NewCourtHandler(courtService),
		Reservation:     handlers.NewReservationHandler(reservationService, availabilityService),
		Proposal:        handlers.NewProposalHandler(proposalService),
		MatchInvitation: handlers.NewMatchInvitationHandler(matchInvitationService),
		Notification:    handlers.NewNotificationHandler(notificationService),
		Dashboard:       handlers.NewDashboardHandler(dashboardService),
		WebSocket:       handlers.NewWebSocketHandler(wsHub, auth),
	}
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	routes.SetupRoutes(router, allHandlers, auth)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
