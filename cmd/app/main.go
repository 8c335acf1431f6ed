package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"referral_app/internal/api"
	"referral_app/internal/hub"
	"referral_app/internal/middleware"
	"referral_app/internal/repository"
	"referral_app/internal/service"
	"referral_app/pkg/auth"
	"referral_app/pkg/logger"
	"referral_app/pkg/mail"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := repository.New(ctx, cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	var mailer service.Mailer = mail.Nop{}
	if cfg.Mail.Enabled {
		mailer = mail.New(cfg.Mail)
	}

	ledgerHub := hub.New()
	links := service.NewLinkBuilder(cfg.Server.AppBaseURL)
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	accountService := service.NewAccountService(repo, hasher, tokens, mailer, ledgerHub, links)
	formService := service.NewFormService(repo, hasher, ledgerHub)
	dashboardService := service.NewDashboardService(repo, ledgerHub, links)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.NewRequestIDMiddleware())
	router.Use(ginzap.GinzapWithConfig(zapLogger, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		Skipper: func(c *gin.Context) bool {
			return c.Request.Method == http.MethodHead
		},
		Context: func(c *gin.Context) []zapcore.Field {
			fields := []zapcore.Field{}

			if v := c.GetString(middleware.RequestIDKey); v != "" {
				fields = append(fields, zap.String("request_id", v))
			}
			if id, ok := middleware.AccountID(c); ok {
				fields = append(fields, zap.String("account_id", id.String()))
			}

			return fields
		},
	}))

	config := cors.DefaultConfig()
	config.AllowOrigins = cfg.Server.AllowOrigins
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodOptions,
	}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader}
	config.ExposeHeaders = []string{middleware.RequestIDHeader}
	config.MaxAge = 12 * time.Hour
	if len(config.AllowOrigins) == 0 || config.AllowOrigins[0] == "*" {
		config.AllowOrigins = nil
		config.AllowAllOrigins = true
	}

	router.Use(cors.New(config))
	router.Use(middleware.BodySizeLimiter(middleware.DefaultMaxBodyBytes))

	limiter := middleware.NewRateLimiter(ctx, cfg.RateLimit)
	authz := middleware.NewAuthorization(accountService, tokens)

	a := router.Group("/api")
	api.NewAccountRoutes(a, accountService, authz, limiter.Handler())
	api.NewFormRoutes(a, formService, dashboardService, cfg.Server.LiveRefresh, limiter.Handler())
	api.NewRootRoutes(router, a, repo)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shut down server gracefully", zap.Error(err))
	}
}
