package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config contains storage configuration
type Config struct {
	BasePath string // Base directory for all exported reports
}

// DefaultConfig returns default storage configuration
func DefaultConfig() Config {
	return Config{
		BasePath: "./reports",
	}
}

// Storage writes generated upgrade-plan reports to the filesystem
type Storage struct {
	config Config
}

// New creates a new Storage instance
func New(config Config) (*Storage, error) {
	// Create base directory if it doesn't exist
	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory: %w", err)
	}

	return &Storage{
		config: config,
	}, nil
}

// SaveReport saves an upgrade-plan report as JSON.
// Reports are sharded by date: reports/YYYY/MM/name.json. Returns the
// relative file path from the base storage directory.
func (s *Storage) SaveReport(data []byte, name string) (string, error) {
	now := time.Now()
	year := fmt.Sprintf("%04d", now.Year())
	month := fmt.Sprintf("%02d", int(now.Month()))

	dirPath := filepath.Join(s.config.BasePath, year, month)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	// Generate filename: name.json, numbered if it already exists
	filename := name + ".json"
	filePath := filepath.Join(dirPath, filename)
	counter := 1
	for fileExists(filePath) {
		filename = fmt.Sprintf("%s-%d.json", name, counter)
		filePath = filepath.Join(dirPath, filename)
		counter++
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	relPath, err := filepath.Rel(s.config.BasePath, filePath)
	if err != nil {
		return "", fmt.Errorf("failed to get relative path: %w", err)
	}

	return relPath, nil
}

// ReadReport reads a report back by its relative path
func (s *Storage) ReadReport(relPath string) ([]byte, error) {
	filePath := filepath.Join(s.config.BasePath, relPath)

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	return data, nil
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
