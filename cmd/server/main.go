package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Goldbar97/Account/internal/config"
	"github.com/Goldbar97/Account/internal/db"
	"github.com/Goldbar97/Account/internal/domain"
	"github.com/Goldbar97/Account/internal/events"
	"github.com/Goldbar97/Account/internal/handlers"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()

	// Initialize database connection pool
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to create database pool: %v", err)
	}
	defer pool.Close()
	log.Println("database connection pool initialized")

	// Create repositories
	userRepo := db.NewUserRepository(pool.Pool)
	accountRepo := db.NewAccountRepository(pool.Pool)
	txRepo := db.NewTransactionRepository(pool.Pool)
	txManager := db.NewTransactionManager(pool.Pool)

	// The event publisher is a best-effort side channel; a missing broker
	// should not keep the service from starting.
	var publisher domain.EventPublisher
	rabbitPublisher, err := events.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
	if err != nil {
		log.Printf("warning: rabbitmq publisher unavailable, events disabled: %v", err)
	} else {
		publisher = rabbitPublisher
		defer rabbitPublisher.Close()
	}

	// Create domain service
	balanceService := domain.NewBalanceService(userRepo, accountRepo, txRepo, txManager, publisher)
	log.Println("domain services initialized")

	// Create HTTP server
	handler := handlers.NewTransactionHandler(balanceService)
	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: handler.Routes(),
	}

	go func() {
		log.Printf("account service HTTP server starting on :%s", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Println("HTTP server stopped")
}
