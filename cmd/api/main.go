package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatherly/config"
	_ "gatherly/docs"
	"gatherly/internal/adapters/auth"
	"gatherly/internal/adapters/email"
	"gatherly/internal/adapters/eventlock"
	httpdelivery "gatherly/internal/delivery/http"
	"gatherly/internal/delivery/http/controllers"
	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/repository/postgres"
	"gatherly/internal/services"
)

// @title Gatherly API
// @version 1.0
// @description Event management backend: events, invitations, registrations, and waitlists.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		logger.Error("run migrations", "err", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	categoryRepo := postgres.NewEventCategoryRepository(db)
	contactRepo := postgres.NewExternalContactRepository(db)
	invitationRepo := postgres.NewEventInvitationRepository(db)
	registrationRepo := postgres.NewEventRegistrationRepository(db)
	tx := postgres.NewTxManager(db)

	// Adapters
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	tokenIssuer := auth.NewJWTIssuer(cfg.JWTSecret)
	tokenVerifier := auth.NewJWTVerifier(cfg.JWTSecret)
	locker := eventlock.New()

	mailer, err := email.NewMailer(cfg.Mailer, logger)
	if err != nil {
		logger.Error("create mailer", "err", err)
		os.Exit(1)
	}
	renderer := email.NewTemplateRenderer()

	// Services
	emailSvc := services.NewEmailService(mailer, renderer, logger)
	userSvc := services.NewUserService(userRepo, hasher, tokenIssuer, cfg.TokenExpiry, logger, cfg.ContextTimeout)
	categorySvc := services.NewCategoryService(categoryRepo, cfg.ContextTimeout)
	contactSvc := services.NewContactService(contactRepo, cfg.ContextTimeout)
	eventSvc := services.NewEventService(eventRepo, categoryRepo, registrationRepo, userRepo, contactRepo, emailSvc, locker, tx, logger, cfg.ContextTimeout)
	invitationSvc := services.NewInvitationService(eventRepo, invitationRepo, userRepo, contactRepo, emailSvc, cfg.RSVPBaseURL, cfg.InvitationTTL, logger, cfg.ContextTimeout)
	registrationSvc := services.NewRegistrationService(eventRepo, registrationRepo, invitationRepo, locker, tx, cfg.AllowEarlyCheckIn, cfg.NoShowGrace, logger, cfg.ContextTimeout)

	mux := httpdelivery.NewRouter(httpdelivery.Controllers{
		Auth:         controllers.NewAuthController(logger, userSvc),
		Event:        controllers.NewEventController(logger, eventSvc),
		Category:     controllers.NewCategoryController(logger, categorySvc, userSvc),
		Contact:      controllers.NewContactController(logger, contactSvc),
		Invitation:   controllers.NewInvitationController(logger, invitationSvc),
		Registration: controllers.NewRegistrationController(logger, registrationSvc),
	}, tokenVerifier)

	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.CORSAllowedOrigins, mux))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	logger.Info("server stopped")
}
