package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/example/progress/internal/errs"
	"github.com/example/progress/internal/filelock"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// advisoryLockKey identifies the session lock on a shared postgres server.
const advisoryLockKey = 0x70726f67

// Store is a SQL-backed engine store.
type Store struct {
	db     *sqlx.DB
	driver string
	dsn    string
	logger *zap.Logger

	fileLock *filelock.Lock
	pgConn   *sqlx.Conn
}

// Connect opens the database, takes the session lock and creates the schema.
func Connect(ctx context.Context, driver, dsn string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{driver: driver, dsn: dsn, logger: logger}

	switch driver {
	case DriverSQLite:
		path := sqlitePath(dsn)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errs.Wrap(errs.StoreIO, "dsn", dsn, fmt.Errorf("create data directory: %w", err))
		}
		lock, err := filelock.Acquire(path + ".lock")
		if errors.Is(err, filelock.ErrBusy) {
			return nil, errs.Wrap(errs.StoreBusy, "dsn", dsn, err)
		}
		if err != nil {
			return nil, errs.Wrap(errs.StoreIO, "dsn", dsn, err)
		}
		s.fileLock = lock
	case DriverPostgres:
	default:
		return nil, errs.New(errs.StoreIO, "driver", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		_ = s.fileLock.Unlock()
		return nil, errs.Wrap(errs.StoreIO, "dsn", dsn, fmt.Errorf("failed to connect to database: %w", err))
	}
	s.db = db

	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = s.Close()
			return nil, errs.Wrap(errs.StoreIO, "dsn", dsn, fmt.Errorf("failed to enable foreign keys: %w", err))
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else if err := s.lockPostgres(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	if err := s.initializeSchema(ctx); err != nil {
		_ = s.Close()
		return nil, errs.Wrap(errs.StoreIO, "dsn", dsn, err)
	}
	return s, nil
}

// lockPostgres holds a session-level advisory lock on a dedicated connection.
func (s *Store) lockPostgres(ctx context.Context) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return errs.Wrap(errs.StoreIO, "dsn", s.dsn, err)
	}
	var ok bool
	if err := conn.GetContext(ctx, &ok, "SELECT pg_try_advisory_lock($1)", advisoryLockKey); err != nil {
		_ = conn.Close()
		return errs.Wrap(errs.StoreIO, "dsn", s.dsn, err)
	}
	if !ok {
		_ = conn.Close()
		return errs.New(errs.StoreBusy, "dsn", s.dsn)
	}
	s.pgConn = conn
	return nil
}

// Close releases the session lock and closes the database.
func (s *Store) Close() error {
	var err error
	if s.pgConn != nil {
		_, _ = s.pgConn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", advisoryLockKey)
		err = s.pgConn.Close()
		s.pgConn = nil
	}
	if s.db != nil {
		if cerr := s.db.Close(); err == nil {
			err = cerr
		}
		s.db = nil
	}
	if uerr := s.fileLock.Unlock(); err == nil {
		err = uerr
	}
	return err
}

// sqlitePath extracts the file path from a go-sqlite3 DSN.
func sqlitePath(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p
}

// initializeSchema creates necessary tables if they don't exist
func (s *Store) initializeSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			id INTEGER PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			milestone_thresholds TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS habits (
			name TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS check_ins (
			habit TEXT NOT NULL REFERENCES habits(name) ON DELETE CASCADE,
			day TEXT NOT NULL,
			PRIMARY KEY (habit, day)
		)`,
		`CREATE TABLE IF NOT EXISTS milestones (
			habit TEXT NOT NULL REFERENCES habits(name) ON DELETE CASCADE,
			threshold INTEGER NOT NULL,
			PRIMARY KEY (habit, threshold)
		)`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id TEXT PRIMARY KEY,
			interval_days INTEGER NOT NULL,
			ease DOUBLE PRECISION NOT NULL,
			last_reviewed TEXT,
			due_date TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS review_history (
			item TEXT NOT NULL REFERENCES reviews(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			day TEXT NOT NULL,
			quality INTEGER NOT NULL,
			PRIMARY KEY (item, seq)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
