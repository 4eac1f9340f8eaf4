package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"clinic-api/internal/config"
	"clinic-api/internal/db"
	"clinic-api/internal/email"
	apihttp "clinic-api/internal/http"
	"clinic-api/internal/repository"
	"clinic-api/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()
	if err := db.Ping(ctx, pool); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}
	if err := db.ApplyMigrations(ctx, pool, "db/migrations/001_init.sql"); err != nil {
		logger.Warn("apply migrations", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	bookingRepo := repository.NewPgBookingRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	tokenServ := service.NewTokenService(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	userSvc := service.NewUserService(logger, userRepo, emailSender)
	bookingSvc := service.NewBookingService(logger, bookingRepo, emailSender, cfg.DoctorEmail)

	userHandler := apihttp.NewUserHandler(logger, userSvc, tokenServ)
	bookingHandler := apihttp.NewBookingHandler(logger, bookingSvc)
	healthHandler := apihttp.NewHealthHandler(pool)
	router := apihttp.NewRouter(logger, userHandler, bookingHandler, healthHandler, tokenServ)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
