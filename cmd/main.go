package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"hamsterverse/internal/auth"
	"hamsterverse/internal/bot"
	"hamsterverse/internal/config"
	"hamsterverse/internal/database"
	"hamsterverse/internal/handlers"
	"hamsterverse/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Connect to Redis (leaderboard cache; the service degrades to
	// database-only reads when unavailable)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("Warning: Redis unavailable, leaderboard cache disabled: %v", err)
		rdb = nil
	}

	// Session codec
	codec := auth.NewSessionCodec(cfg.App.JWTSecret, cfg.App.SessionDuration)

	// Initialize services
	authService := services.NewAuthService(database.GetDB(), cfg.App.ReferralBonus, cfg.App.DefaultEarnPerSec)
	miningService := services.NewMiningService(database.GetDB(), cfg.App.MiningDuration, cfg.App.DefaultEarnPerSec)
	leaderboardService := services.NewLeaderboardService(database.GetDB(), rdb, 50)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, miningService, codec, cfg)
	miningHandler := handlers.NewMiningHandler(miningService, authService)
	referralHandler := handlers.NewReferralHandler(authService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)

	// Set up Gin router
	router := gin.Default()

	// CORS middleware; credentials must be allowed for the session cookie
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.Telegram.WebAppURL != "" {
		corsConfig.AllowOrigins = []string{cfg.Telegram.WebAppURL}
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "🚀 HamsterVerse Server Running")
	})

	// Public routes
	router.POST("/api/auth/telegram", authHandler.TelegramLogin)
	router.POST("/api/logout", authHandler.Logout)
	router.GET("/api/leaderboard", leaderboardHandler.GetLeaderboard)

	// Protected routes
	api := router.Group("/api")
	api.Use(auth.SessionGate(codec))
	{
		api.GET("/me", authHandler.GetMe)
		api.GET("/referrals", referralHandler.GetReferralInfo)
		api.POST("/mining/start", miningHandler.Start)
		api.POST("/mining/claim", miningHandler.Claim)
		api.GET("/mining/status", miningHandler.Status)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Telegram bot
	tgBot, err := bot.New(cfg.Telegram.BotToken, cfg.Telegram.WebAppURL)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	go tgBot.Start(ctx)

	// HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("🚀 Server running on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
