package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/nakulchoubisa/option-sell-bot/internal/auth"
	"github.com/nakulchoubisa/option-sell-bot/internal/broker"
	"github.com/nakulchoubisa/option-sell-bot/internal/config"
	"github.com/nakulchoubisa/option-sell-bot/internal/database"
	"github.com/nakulchoubisa/option-sell-bot/internal/trading"
	"github.com/nakulchoubisa/option-sell-bot/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the trading gateway with graceful shutdown
// support. It wires the configuration, database, broker backend, and API
// routes together.
func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	db, err := database.NewDatabase(cfg.Storage.SQLitePath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	brokerHandle, err := broker.NewFromConfig(cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize broker backend")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	authService := auth.NewService(cfg.Auth.JWTSecret)
	authService.RegisterAPICredentials(cfg.Auth.APIKey, cfg.Auth.APISecret)
	authHandlers := auth.NewGinHandlers(authService)

	tradingService := trading.NewService(db, brokerHandle)
	tradingHandlers := trading.NewGinHandlers(tradingService)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, cfg, authHandlers, tradingHandlers)

	// Create server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	zlog.Info().
		Str("port", cfg.Server.Port).
		Str("broker", brokerHandle.Name()).
		Msg("trading gateway started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// Auth routes are public; broker routes require a valid JWT
func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authHandlers *auth.GinHandlers,
	tradingHandlers *trading.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Broker routes
		brokerGroup := v1.Group("/broker")
		brokerGroup.Use(middleware.JWTAuth([]byte(cfg.Auth.JWTSecret)))
		{
			brokerGroup.GET("/mode", tradingHandlers.ModeHandler())
			brokerGroup.GET("/ltp", tradingHandlers.LTPHandler())
			brokerGroup.POST("/order", tradingHandlers.PlaceOrderHandler())
			brokerGroup.POST("/orders/:order_id/cancel", tradingHandlers.CancelOrderHandler())
			brokerGroup.GET("/orders", tradingHandlers.ListOrdersHandler())
			brokerGroup.GET("/positions", tradingHandlers.ListPositionsHandler())
			brokerGroup.POST("/positions/:id/close", tradingHandlers.ClosePositionHandler())
			brokerGroup.GET("/pnl", tradingHandlers.DailyPnLHandler())
			brokerGroup.POST("/pricer", tradingHandlers.SwapPricerHandler())
		}
	}
}
