package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/zombar/optimizer"
	"github.com/zombar/optimizer/db"
	"github.com/zombar/optimizer/storage"
)

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// One-shot batch runner for the daily generation pass. Meant to be
// invoked from cron or CI rather than kept running.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file loaded", "error", err)
	}

	count := flag.Int("count", 0, "Number of pages to select (0 uses the configured default)")
	reportsPath := flag.String("reports-path", getEnv("REPORTS_BASE_PATH", "./reports"), "Base path for exported upgrade plan reports")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall run timeout")
	flag.Parse()

	dbHost := getEnv("DB_HOST", "")
	if dbHost == "" {
		logger.Error("DB_HOST environment variable is required")
		os.Exit(1)
	}

	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "optimizer")
	dbPassword := getEnv("DB_PASSWORD", "optimizer_dev_pass")
	dbName := getEnv("DB_NAME", "optimizer")

	database, err := db.New(db.Config{
		DSN: fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort, dbUser, dbPassword, dbName),
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	store, err := storage.New(storage.Config{BasePath: *reportsPath})
	if err != nil {
		logger.Error("failed to initialize report storage", "error", err)
		os.Exit(1)
	}

	engine := optimizer.New(optimizer.DefaultConfig(), database, store)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	recs, err := engine.RunDailyGeneration(ctx, *count)
	if err != nil {
		logger.Error("generation run failed", "error", err)
		os.Exit(1)
	}

	for _, rec := range recs {
		logger.Info("recommendation created",
			"page_id", rec.PageID,
			"path", rec.PagePath,
			"impact", rec.Impact,
			"reasons", rec.Reasons,
		)
	}

	logger.Info("generation run complete",
		"selected", len(recs),
		"duration", time.Since(start).String(),
	)
}
