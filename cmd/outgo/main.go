package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"outgo/internal/amqp"
	"outgo/internal/config"
	"outgo/internal/currency"
	apphttp "outgo/internal/http"
	"outgo/internal/log"
	"outgo/internal/services"
	"outgo/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.New(log.Config{}).Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	logger := log.New(log.Config{Level: cfg.SlogLevel(), Component: log.ComponentApp})
	log.SetDefault(logger)

	store, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	cur, err := currency.NewService(context.Background(), store, currency.Options{
		RatesURL:        cfg.RatesURL,
		DefaultCurrency: cfg.DefaultCurrency,
		HTTPClient:      &http.Client{Timeout: cfg.RatesTimeout},
	})
	if err != nil {
		logger.Error("Failed to initialize currency service", "error", err)
		os.Exit(1)
	}

	// AMQP is optional: without a broker the API runs standalone.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		publisher = amqpClient
		cur.Subscribe(func(ev currency.Event) {
			if ev.Kind != currency.RatesUpdated {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := amqpClient.PublishChange(ctx, amqp.NewChangeMessage(amqp.EventRatesRefreshed, "")); err != nil {
				logger.Warn("failed to publish rates event", "error", err)
			}
		})
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled, change events will not be published")
	}

	expenses := services.NewExpenseService(store, cur, publisher, logger)
	defer expenses.Close()

	srv := apphttp.NewServer(":"+cfg.Port, expenses, cur, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Warm the rate table in the background.
	cur.RefreshAsync(context.Background())

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

	logger.Info("Starting outgo server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
