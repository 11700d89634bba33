package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/dropmind/backend/internal/config"
	"github.com/dropmind/backend/internal/domain"
	"github.com/dropmind/backend/internal/repository/postgres"
	"github.com/dropmind/backend/internal/repository/redis"
	"github.com/dropmind/backend/internal/service/bot"
	"github.com/dropmind/backend/internal/service/game"
	transportHttp "github.com/dropmind/backend/internal/transport/http"
	"github.com/dropmind/backend/internal/transport/http/middleware"
	"github.com/dropmind/backend/internal/transport/websocket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			log.Println("No .env file found")
		}
	}

	cfg := config.LoadConfig()

	// Persistence is optional: without a database the service still plays,
	// it just keeps no history.
	var db *sql.DB
	var gameRepo *postgres.GameRepo
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.InitDB(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetimeMin)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		log.Println("Running database migrations...")
		if err := postgres.RunMigrations(db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}

		gameRepo = postgres.NewGameRepo(db)
	} else {
		log.Println("DATABASE_URL not set, game history disabled")
	}

	if err := redis.InitRedis(); err != nil {
		log.Printf("Failed to initialize Redis: %v", err)
	}
	defer redis.CloseRedis()

	var redisCache *redis.RedisCache
	if redis.IsRedisEnabled() && redis.RedisClient != nil {
		redisCache = redis.NewRedisCache(redis.RedisClient)
	}

	var cache bot.CacheRepository
	if redisCache != nil {
		cache = redisCache
	}

	botCfg := bot.Config{
		Strategy:       cfg.EngineStrategy,
		Simulations:    cfg.Simulations,
		TimeLimit:      cfg.TimeLimit(),
		QTablePath:     cfg.QTablePath,
		Cache:          cache,
		AdvisorBaseURL: cfg.AdvisorBaseURL,
		AdvisorAPIKey:  cfg.AdvisorAPIKey,
		AdvisorModel:   cfg.AdvisorModel,
		AdvisorTimeout: cfg.AdvisorTimeout(),
	}
	// Fail early on a misconfigured default strategy rather than on the
	// first connection.
	if _, err := bot.New(botCfg); err != nil {
		log.Fatalf("Invalid engine configuration: %v", err)
	}

	connManager := websocket.NewConnectionManager()

	// With redis available the history reads go cache-aside and every
	// finished game invalidates the cached window.
	var repo game.GameRepository
	var history transportHttp.GameHistory
	if gameRepo != nil {
		if redisCache != nil {
			cached := postgres.NewCachedGameRepo(gameRepo, redisCache)
			repo = cached
			history = cached
		} else {
			repo = gameRepo
			history = gameRepo
		}
	}
	sessionManager := game.NewSessionManager(repo, connManager)

	wsHandler := websocket.NewHandler(connManager, sessionManager, botCfg, domain.PlayerID(cfg.EngineSide))
	historyHandler := transportHttp.NewHistoryHandler(history)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.CORSMiddleware())

	router.GET("/healthz", transportHttp.Health)
	router.GET("/api/history", historyHandler.GetHistory)

	// WebSocket route (guest identity handled inside the handler)
	router.GET("/ws", gin.WrapF(wsHandler.HandleWebSocket))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully")
}
