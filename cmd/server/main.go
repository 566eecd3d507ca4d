package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/studyhub-auth/internal/config"
	"github.com/ignatzorin/studyhub-auth/internal/db"
	"github.com/ignatzorin/studyhub-auth/internal/goroutine"
	httpHandlers "github.com/ignatzorin/studyhub-auth/internal/http/handlers"
	httpRouter "github.com/ignatzorin/studyhub-auth/internal/http/router"
	"github.com/ignatzorin/studyhub-auth/internal/logger"
	"github.com/ignatzorin/studyhub-auth/internal/mail"
	"github.com/ignatzorin/studyhub-auth/internal/repository"
	"github.com/ignatzorin/studyhub-auth/internal/service"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.Env)

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		logger.Log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Канал доставки кодов.
	var mailer mail.Mailer = mail.Disabled{}
	if cfg.SMTPHost != "" {
		smtpMailer, err := mail.NewSMTP(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
		if err != nil {
			logger.Log.Fatalf("main: ошибка настройки SMTP: %v", err)
		}
		mailer = smtpMailer
	} else {
		logger.Log.Warn("main: SMTP_HOST не задан, письма с кодами отправляться не будут")
	}

	// Репозитории и сервисы.
	accountRepo := repository.NewAccountRepository(dbConn)
	tokenManager := service.NewTokenManager(cfg.SessionSecret, cfg.PendingSecret, cfg.SessionTTL, cfg.PendingTTL)
	issuer := service.NewOTPIssuer(accountRepo, service.RandomCodeGenerator{}, mailer, service.IssuerOptions{
		AppName:  cfg.AppName,
		From:     cfg.MailFrom,
		DebugLog: cfg.OTPDebugLog,
	})
	verifier := service.NewOTPVerifier(accountRepo)
	authService := service.NewAuthService(accountRepo, tokenManager, issuer, verifier)

	janitor := service.NewSessionJanitor(accountRepo, cfg.SessionCleanup)
	goroutine.SafeGoWithContext(ctx, janitor.Run)

	// HTTP хэндлеры.
	opts := httpHandlers.Options{
		AppName:      cfg.AppName,
		CookieSecure: cfg.CookieSecure,
		SessionTTL:   cfg.SessionTTL,
		PendingTTL:   cfg.PendingTTL,
	}
	authHandler := httpHandlers.NewAuthHandler(authService, opts)
	pagesHandler := httpHandlers.NewPagesHandler(opts)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, pagesHandler, healthHandler, authService)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Errorf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	logger.Log.Infof("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Log.Errorf("main: ошибка закрытия базы: %v", err)
	}
}
