package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"recibo/internal/amqp"
	"recibo/internal/config"
	apphttp "recibo/internal/http"
	"recibo/internal/ledger"
	ledgermem "recibo/internal/ledger/memory"
	applog "recibo/internal/log"
	"recibo/internal/ocr/tesseract"
	"recibo/internal/services"
	"recibo/internal/storage"
)

func main() {
	// Load .env for local development; production sets real env vars.
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: "recibo",
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var (
		entries       ledger.EntryStore
		goals         ledger.GoalStore
		notifications ledger.NotificationStore
		closeStore    func() error
	)
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		entries, goals, notifications = repo, repo, repo
		closeStore = repo.Close
		logger.Info("Initialized sqlite backend", "path", cfg.SQLiteDBPath)
	default:
		store := ledgermem.New()
		entries, goals, notifications = store, store, store
		closeStore = func() error { return nil }
		logger.Info("Initialized memory backend")
	}
	defer closeStore()

	engine, err := tesseract.New(cfg.OCRLanguages...)
	if err != nil {
		logger.Error("Failed to initialize OCR engine", "error", err, "languages", cfg.OCRLanguages)
		os.Exit(1)
	}
	defer engine.Close()
	logger.Info("OCR engine ready", "languages", cfg.OCRLanguages)

	// AMQP is optional: without a URL, entries are exported only by the
	// worker's reconciliation scan.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	evaluator := services.NewGoalEvaluator(entries, goals, notifications)
	receipts := services.NewReceiptService(engine, entries, evaluator, publisher)

	srv := apphttp.NewServer(":"+cfg.Port, receipts, entries, goals, notifications, cfg.MaxUploadBytes)
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting recibo server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
