// Package store persists the engine state.
//
// A Store is owned by one process for the duration of a session. Commit is
// atomic with respect to crashes: a reader either sees the previous state or
// the new one, never a partial write.
package store

import (
	"context"

	"github.com/example/progress/pkg/models"
)

// Store loads and commits the whole engine state.
type Store interface {
	// Load returns the last committed state, or an empty state when nothing
	// has been committed yet. Undecodable data yields errs.CorruptStore.
	Load(ctx context.Context) (*models.State, error)

	// Commit durably replaces the persisted state.
	Commit(ctx context.Context, st *models.State) error

	// Close ends the session and releases the session lock.
	Close() error
}

// Resetter is implemented by stores that can move corrupt data aside and
// start over. It is never invoked automatically.
type Resetter interface {
	BackupAndReset(ctx context.Context) (backupPath string, err error)
}
