// Package database implements the tenant metadata store over database/sql.
// Deployments pick the driver: rqlite for clustered setups, sqlite3 for a
// single node. Both speak the SQLite dialect, so the schema and queries are
// shared.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/matchid-dev/appgate/pkg/errors"
	"github.com/matchid-dev/appgate/pkg/logging"
	"github.com/matchid-dev/appgate/pkg/namespace"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/rqlite/gorqlite/stdlib"
)

// Config holds store settings.
type Config struct {
	// Driver is "rqlite" or "sqlite3".
	Driver string

	// DSN is driver-specific: an http(s) URL for rqlite, a file path (or
	// ":memory:") for sqlite3.
	DSN string
}

// Store is the tenant metadata store shared by all requests.
type Store struct {
	db     *sql.DB
	logger *logging.ColoredLogger
}

// Open connects the store and configures the connection pool.
func Open(cfg Config, logger *logging.ColoredLogger) (*Store, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Driver, err)
	}

	// Pool limits keep a chatty gateway from exhausting the backend.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	logger.ComponentInfo(logging.ComponentDatabase, "store opened",
		zap.String("driver", cfg.Driver),
		zap.String("dsn", cfg.DSN),
	)

	return &Store{db: db, logger: logger}, nil
}

// Migrate applies the schema. Idempotent; runs at startup.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS namespaces (\n\t id INTEGER PRIMARY KEY AUTOINCREMENT,\n\t name TEXT NOT NULL UNIQUE,\n\t created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,\n\t last_seen_at TIMESTAMP\n)",
		"CREATE TABLE IF NOT EXISTS request_logs (\n\t id INTEGER PRIMARY KEY AUTOINCREMENT,\n\t namespace TEXT NOT NULL,\n\t method TEXT NOT NULL,\n\t path TEXT NOT NULL,\n\t status_code INTEGER NOT NULL,\n\t bytes_out INTEGER NOT NULL DEFAULT 0,\n\t duration_ms INTEGER NOT NULL DEFAULT 0,\n\t ip TEXT,\n\t trace_id TEXT,\n\t created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP\n)",
		"CREATE INDEX IF NOT EXISTS idx_request_logs_namespace ON request_logs(namespace)",
		"CREATE INDEX IF NOT EXISTS idx_request_logs_created_at ON request_logs(created_at)",
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.NewDatabaseError("migrate", err)
		}
	}
	return nil
}

// EnsureNamespace records the namespace and stamps its last activity.
func (s *Store) EnsureNamespace(ctx context.Context, ns namespace.Namespace) error {
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO namespaces(name) VALUES (?)", ns.String()); err != nil {
		return errors.NewDatabaseError("ensure_namespace", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE namespaces SET last_seen_at = CURRENT_TIMESTAMP WHERE name = ?", ns.String()); err != nil {
		return errors.NewDatabaseError("ensure_namespace", err)
	}
	return nil
}

// RequestRecord is one served request, persisted off the hot path.
type RequestRecord struct {
	Namespace  namespace.Namespace
	Method     string
	Path       string
	StatusCode int
	BytesOut   int
	Duration   time.Duration
	IP         string
	TraceID    string
}

// RecordRequest inserts one request log row.
func (s *Store) RecordRequest(ctx context.Context, rec RequestRecord) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO request_logs (namespace, method, path, status_code, bytes_out, duration_ms, ip, trace_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		rec.Namespace.String(),
		rec.Method,
		rec.Path,
		rec.StatusCode,
		rec.BytesOut,
		rec.Duration.Milliseconds(),
		rec.IP,
		rec.TraceID,
	)
	if err != nil {
		return errors.NewDatabaseError("record_request", err)
	}
	return nil
}

// UsageSummary aggregates a tenant's request activity.
type UsageSummary struct {
	Namespace     namespace.Namespace `json:"namespace"`
	RequestCount  int64               `json:"request_count"`
	BytesOut      int64               `json:"bytes_out"`
	LastRequestAt string              `json:"last_request_at,omitempty"`
}

// Usage returns the aggregate request counters for one namespace.
func (s *Store) Usage(ctx context.Context, ns namespace.Namespace) (UsageSummary, error) {
	summary := UsageSummary{Namespace: ns}

	row := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(bytes_out), 0), COALESCE(MAX(created_at), '') FROM request_logs WHERE namespace = ?",
		ns.String())
	if err := row.Scan(&summary.RequestCount, &summary.BytesOut, &summary.LastRequestAt); err != nil {
		return summary, errors.NewDatabaseError("usage", err)
	}
	return summary, nil
}

// Ping verifies store connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.NewDatabaseError("ping", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
