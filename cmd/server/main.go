package main // Entry point package

import (
	"log"  // Logging library
	"time" // Durations for the field cache window

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/pitchside/pitchside/internal/cache"      // Field mirror and cache policy
	"github.com/pitchside/pitchside/internal/config"     // Internal config loader
	"github.com/pitchside/pitchside/internal/database"   // MySQL connection helper
	"github.com/pitchside/pitchside/internal/handler"    // HTTP handlers
	"github.com/pitchside/pitchside/internal/queue"      // Notification consumer
	"github.com/pitchside/pitchside/internal/repository" // Data access layer
	"github.com/pitchside/pitchside/internal/router"     // Route registration
)

func main() {
	// Load a local .env file when present; missing files are fine in
	// containerized deployments where the environment is injected.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	// Open the primary MySQL database. Every repository receives this
	// handle explicitly; there is no package-level connection.
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional. A nil client disables the response cache and
	// rate limiter and switches the field mirror to its in-memory form.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; field mirror falls back to in-memory store")
	}

	// Repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	fields := repository.NewFieldRepo(db)
	events := repository.NewEventRepo(db)
	groups := repository.NewGroupRepo(db)
	notifications := repository.NewNotificationRepo(db)

	// Field mirror: Redis-backed when available, in-memory otherwise.
	var mirror cache.Mirror
	if rdb != nil {
		mirror = cache.NewRedisMirror(rdb)
	} else {
		mirror = cache.NewMemoryMirror()
	}
	fieldCache := cache.NewFieldCache(mirror, fields, time.Duration(cfg.FieldCacheTTLHours)*time.Hour)

	// Handlers
	authH := handler.NewAuthHandler(cfg, users, tokens)
	fieldH := handler.NewFieldHandler(fieldCache, fields)
	eventH := handler.NewEventHandler(events, fieldCache, groups)
	groupH := handler.NewGroupHandler(groups, users)
	notifH := handler.NewNotificationHandler(notifications)

	// Background consumer persisting notification rows from the broker.
	go func() {
		if err := queue.StartNotificationConsumer(notifications); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance

	router.RegisterRoutes(e)                                        // Health check
	router.RegisterAuth(e, authH, cfg.JWTSecret)                    // Auth endpoints
	router.RegisterPublic(e, fieldH, eventH, rdb)                   // Public browse endpoints
	router.RegisterPlayer(e, eventH, groupH, notifH, cfg.JWTSecret) // Player endpoints
	router.RegisterAdmin(e, fieldH, cfg.JWTSecret)                  // Field administration

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
