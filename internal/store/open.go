package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/progress/internal/database"
	"github.com/example/progress/internal/errs"
)

// Backends accepted by Open.
const (
	BackendJSON     = "json"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Options selects and locates a backend.
type Options struct {
	Backend string
	// Location is a file path for json and sqlite, a connection string for postgres.
	Location string
	Logger   *zap.Logger
}

// Open starts a session on the configured backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendJSON, "":
		return OpenFile(opts.Location, opts.Logger)
	case BackendSQLite:
		return database.Connect(ctx, database.DriverSQLite, opts.Location, opts.Logger)
	case BackendPostgres:
		return database.Connect(ctx, database.DriverPostgres, opts.Location, opts.Logger)
	default:
		return nil, errs.New(errs.StoreIO, "backend", opts.Backend)
	}
}
