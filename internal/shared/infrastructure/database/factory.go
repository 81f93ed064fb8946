package database

import (
	"os"
	"path/filepath"
)

// Config holds storage connection settings.
type Config struct {
	Driver Driver

	// URL is the Postgres connection string.
	URL string

	// SQLitePath defaults to ~/.taskmate/tasks.db.
	SQLitePath string

	// MaxConns is the maximum number of connections (PostgreSQL only).
	MaxConns int
}

// DefaultSQLitePath returns the default SQLite database path.
func DefaultSQLitePath() string {
	return filepath.Join(dataDir(), "tasks.db")
}

// DefaultFilePath returns the default JSON file path.
func DefaultFilePath() string {
	return filepath.Join(dataDir(), "tasks.json")
}

func dataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".taskmate")
}

// EnsureDirectory creates the parent directory for a file path if it doesn't exist.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
