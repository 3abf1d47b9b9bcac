package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/zombar/optimizer"
	"github.com/zombar/optimizer/api"
	"github.com/zombar/optimizer/db"
)

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	// Setup structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("optimizer service initializing", "version", "1.0.0")

	// Load .env if present; real deployments use the environment directly
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file loaded", "error", err)
	}

	// Default values
	defaultPort := getEnv("PORT", "8080")
	defaultReportsPath := getEnv("REPORTS_BASE_PATH", "./reports")
	defaultDailyCount := getEnv("DAILY_COUNT", "3")

	dailyCount, err := strconv.Atoi(defaultDailyCount)
	if err != nil || dailyCount < 1 {
		logger.Warn("invalid DAILY_COUNT value, using default",
			"provided", defaultDailyCount,
			"default", 3,
		)
		dailyCount = 3
	}

	// Command-line flags (override environment variables)
	port := flag.String("port", defaultPort, "Server port")
	reportsPath := flag.String("reports-path", defaultReportsPath, "Base path for exported upgrade plan reports")
	count := flag.Int("daily-count", dailyCount, "Number of pages selected per daily generation run")
	disableCORS := flag.Bool("disable-cors", false, "Disable CORS")
	flag.Parse()

	// PostgreSQL database configuration (required)
	dbHost := getEnv("DB_HOST", "")
	if dbHost == "" {
		logger.Error("DB_HOST environment variable is required")
		os.Exit(1)
	}

	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "optimizer")
	dbPassword := getEnv("DB_PASSWORD", "optimizer_dev_pass")
	dbName := getEnv("DB_NAME", "optimizer")

	dbConfig := db.Config{
		DSN: fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort, dbUser, dbPassword, dbName),
	}
	logger.Info("using PostgreSQL database", "host", dbHost, "port", dbPort, "database", dbName)

	engineConfig := optimizer.DefaultConfig()
	engineConfig.DailyCount = *count

	config := api.Config{
		Addr:         ":" + *port,
		DBConfig:     dbConfig,
		EngineConfig: engineConfig,
		StoragePath:  *reportsPath,
		CORSEnabled:  !*disableCORS,
	}

	// Create server
	server, err := api.NewServer(config)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Start server in a goroutine
	go func() {
		logger.Info("optimizer service starting",
			"port", *port,
			"database_host", dbHost,
			"database_name", dbName,
			"reports_path", *reportsPath,
			"daily_count", *count,
		)

		if err := server.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
