package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/resumine/resumine/internal/api"
	"github.com/resumine/resumine/internal/assistant"
	"github.com/resumine/resumine/internal/auth"
	"github.com/resumine/resumine/internal/database"
	"github.com/resumine/resumine/internal/handlers"
	"github.com/resumine/resumine/internal/maintenance"
	"github.com/resumine/resumine/internal/services"
	"github.com/resumine/resumine/pkg/logger"
	"github.com/resumine/resumine/pkg/mail"
)

// Version is stamped at build time.
var Version = "dev"

// App owns the wired application and its lifecycle.
type App struct {
	cfg     *Config
	router  *gin.Engine
	cleaner *maintenance.Cleaner
	log     *zap.Logger
}

// New loads configuration, connects the database and wires every component.
func New(configPath string) (*App, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if err := logger.Init(logger.Options{
		Level:  cfg.Monitoring.LogLevel,
		Format: cfg.Monitoring.LogFormat,
	}); err != nil {
		return nil, fmt.Errorf("app: init logger: %w", err)
	}
	log := logger.WithModule("app")

	db, err := database.Open(cfg.DatabaseSettings())
	if err != nil {
		return nil, fmt.Errorf("app: open database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("app: migrate database: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg.SMTPSettings())
	if err != nil {
		return nil, fmt.Errorf("app: build mailer: %w", err)
	}

	aiClient, err := assistant.New(cfg.AssistantSettings())
	if err != nil {
		return nil, fmt.Errorf("app: build assistant client: %w", err)
	}

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:         cfg.Auth.JWTSecret,
		Issuer:         cfg.Auth.Issuer,
		AccessTokenTTL: cfg.Auth.AccessTokenTTL,
	})
	if err != nil {
		return nil, err
	}

	sessions, err := auth.NewSessionService(db, jwtService, auth.SessionConfig{
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	})
	if err != nil {
		return nil, err
	}

	local, err := auth.NewLocalAuthenticator(db, auth.LocalConfig{
		LockoutThreshold: cfg.Auth.LockoutThreshold,
		LockoutDuration:  cfg.Auth.LockoutDuration,
	})
	if err != nil {
		return nil, err
	}

	google, err := auth.NewGoogleAuthenticator(context.Background(), db, cfg.GoogleSettings())
	if err != nil {
		return nil, err
	}

	users, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}

	profiles, err := services.NewProfileService(db)
	if err != nil {
		return nil, err
	}

	resumes, err := services.NewResumeService(db)
	if err != nil {
		return nil, err
	}

	enhance, err := services.NewEnhanceService(db, aiClient, resumes, cfg.Assistant.Model)
	if err != nil {
		return nil, err
	}

	resets, err := services.NewPasswordResetService(db, mailer, services.ResetConfig{
		CodeTTL:      cfg.Auth.Reset.CodeTTL,
		ResendWindow: cfg.Auth.Reset.ResendWindow,
		EmailFrom:    cfg.Email.From,
	})
	if err != nil {
		return nil, err
	}

	cleaner, err := maintenance.NewCleaner(sessions, cfg.Maintenance.SessionSweepSchedule)
	if err != nil {
		return nil, err
	}

	router := api.NewRouter(api.Deps{
		JWT:            jwtService,
		Auth:           handlers.NewAuthHandler(local, google, sessions, users),
		Reset:          handlers.NewPasswordResetHandler(resets, sessions),
		Profile:        handlers.NewProfileHandler(profiles),
		Resumes:        handlers.NewResumeHandler(resumes, enhance),
		Assistant:      handlers.NewAssistantHandler(aiClient, cfg.Server.AllowedOrigins),
		Health:         handlers.NewHealthHandler(db, Version),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MetricsEnabled: cfg.Monitoring.MetricsEnabled,
	})

	return &App{
		cfg:     cfg,
		router:  router,
		cleaner: cleaner,
		log:     log,
	}, nil
}

// Run serves HTTP until SIGINT or SIGTERM, then shuts down gracefully.
func (a *App) Run() error {
	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      a.router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	if err := a.cleaner.Start(); err != nil {
		return fmt.Errorf("app: start maintenance: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server listening", zap.String("addr", addr), zap.String("version", Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.cleaner.Stop()
		return err
	case sig := <-quit:
		a.log.Info("shutting down", zap.String("signal", sig.String()))
	}

	a.cleaner.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("app: shutdown: %w", err)
	}

	_ = logger.Sync()
	return nil
}
