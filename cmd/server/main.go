package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // godotenv loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/ricardoazt/kennel-gestor-sub001/internal/config"     // Internal config loader
	"github.com/ricardoazt/kennel-gestor-sub001/internal/database"   // Database connection and schema
	"github.com/ricardoazt/kennel-gestor-sub001/internal/handler"    // HTTP handlers
	"github.com/ricardoazt/kennel-gestor-sub001/internal/middleware" // Rate limiting middleware
	"github.com/ricardoazt/kennel-gestor-sub001/internal/queue"      // RabbitMQ consumer
	"github.com/ricardoazt/kennel-gestor-sub001/internal/repository" // Data access layer
	"github.com/ricardoazt/kennel-gestor-sub001/internal/router"     // Route registration
	"github.com/ricardoazt/kennel-gestor-sub001/internal/service"    // Reservation lifecycle service
)

func main() {
	// Load a .env file if present; real deployments set variables directly.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(db); err != nil {
		log.Fatalf("schema setup failed: %v", err)
	}

	// Redis backs rate limiting and availability snapshot caching.  A nil
	// client disables both without taking the API down.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting and caching disabled")
	}

	animalRepo := repository.NewAnimalRepo(db)
	clientRepo := repository.NewClientRepo(db)
	litterRepo := repository.NewLitterRepo(db)
	puppyRepo := repository.NewPuppyRepo(db)
	reservationRepo := repository.NewReservationRepo(db)

	lifecycle := service.NewLifecycle(db, reservationRepo, litterRepo, clientRepo, puppyRepo, rdb, cfg.HoldTTL)

	api := &router.API{
		Animals:      handler.NewAnimalHandler(animalRepo),
		Clients:      handler.NewClientHandler(clientRepo),
		Litters:      handler.NewLitterHandler(litterRepo, animalRepo, puppyRepo),
		Puppies:      handler.NewPuppyHandler(puppyRepo, litterRepo),
		Reservations: handler.NewReservationHandler(lifecycle, reservationRepo, litterRepo, rdb, cfg.AvailabilityTTL),
	}

	e := echo.New() // Create Echo instance
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	lineageCache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	router.RegisterRoutes(e, api, lineageCache) // Register application routes

	// The confirmation consumer reconnects on its own; a startup failure
	// only disables the notification log, not the API.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
