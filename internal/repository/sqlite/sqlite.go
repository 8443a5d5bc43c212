package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection with thread-safe access.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New creates and initializes a new SQLite database connection.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// migrate creates the necessary tables if they don't exist.
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS spatial_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		object_name TEXT NOT NULL,
		x_coord REAL NOT NULL DEFAULT 0,
		y_coord REAL NOT NULL DEFAULT 0,
		w_coord REAL NOT NULL DEFAULT 0,
		h_coord REAL NOT NULL DEFAULT 0,
		confidence REAL NOT NULL DEFAULT 0,
		timestamp DATETIME NOT NULL,
		image_filename TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_spatial_logs_timestamp ON spatial_logs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_spatial_logs_object_name ON spatial_logs(object_name);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Ping checks that the database is reachable.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection for use by repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Lock acquires a write lock.
func (db *DB) Lock() {
	db.mu.Lock()
}

// Unlock releases the write lock.
func (db *DB) Unlock() {
	db.mu.Unlock()
}

// RLock acquires a read lock.
func (db *DB) RLock() {
	db.mu.RLock()
}

// RUnlock releases the read lock.
func (db *DB) RUnlock() {
	db.mu.RUnlock()
}
