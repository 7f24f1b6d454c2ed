package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// dsnParams makes every transaction take the write lock up front so two
// concurrent writers serialize instead of failing mid-transaction.
const dsnParams = "_txlock=immediate&_busy_timeout=5000&_foreign_keys=on"

// Open opens the database at path, applies connection pragmas and brings the
// schema up to date.
func Open(path string) (*sql.DB, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	database, err := sql.Open("sqlite3", path+"?"+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; one connection also keeps an in-memory
	// database alive and shared.
	database.SetMaxOpenConns(1)

	if path != MemoryPath {
		if _, err := database.Exec("PRAGMA journal_mode = WAL"); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to enable WAL: %w", err)
		}
	}

	if err := InitSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// DefaultPath returns the database path used when none is configured.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".rota", "rota.db"), nil
}
