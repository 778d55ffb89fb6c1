package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kayak-backend/config"
	"kayak-backend/middleware"
	"kayak-backend/routes"
	"kayak-backend/services"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env not found or couldn't load it; continuing with environment variables")
	}

	settings := config.Load()

	db, err := config.ConnectDatabase(settings)
	if err != nil {
		log.Fatalf("❌ Database connect failed: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	log.Printf("✅ Database ready (%s), migrations applied.", settings.DBDriver)

	var events services.EventPublisher = services.NopPublisher{}
	var queue *services.AsyncPublisher
	if settings.AMQPURL != "" {
		broker := services.NewAMQPPublisher(settings.AMQPURL, settings.EventsExchange)
		defer broker.Close()
		queue = services.NewAsyncPublisher(broker, 256, 10*time.Second)
		events = queue
		log.Printf("✅ Publishing events to exchange %q", settings.EventsExchange)
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	if rdb == nil || !settings.RateLimit.Enabled {
		log.Println("⚠️  Rate limiting disabled")
	}

	handlers := routes.NewHandlers(db, settings.CascadeMode, events)
	router := routes.SetupRouter(handlers, settings.CORSOrigins,
		middleware.Logger(),
		middleware.RateLimit(settings.RateLimit, rdb),
	)
	log.Printf("✅ Cascade mode: %s", settings.CascadeMode)

	addr := ":" + settings.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("⚠️  Shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
		return
	}
	if queue != nil {
		if err := queue.Close(ctx); err != nil {
			log.Printf("⚠️  Pending events not delivered: %v", err)
		}
	}

	log.Println("✅ Server stopped gracefully")
}
