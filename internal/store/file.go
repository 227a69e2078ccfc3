package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/example/progress/internal/errs"
	"github.com/example/progress/internal/filelock"
	"github.com/example/progress/pkg/models"
)

// FileStore keeps the state in a single JSON document.
type FileStore struct {
	path   string
	lock   *filelock.Lock
	logger *zap.Logger
}

// OpenFile starts a session on the JSON document at path. The session holds
// an exclusive lock on path+".lock" until Close; a concurrent session fails
// with errs.StoreBusy.
func OpenFile(path string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	lock, err := filelock.Acquire(path + ".lock")
	if errors.Is(err, filelock.ErrBusy) {
		return nil, errs.Wrap(errs.StoreBusy, "path", path, err)
	}
	if err != nil {
		return nil, errs.Wrap(errs.StoreIO, "path", path, err)
	}
	return &FileStore{path: path, lock: lock, logger: logger}, nil
}

// Path returns the document location.
func (s *FileStore) Path() string {
	return s.path
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context) (*models.State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Debug("no state file, starting empty", zap.String("path", s.path))
		return models.NewState(nil), nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.StoreIO, "path", s.path, err)
	}

	st := &models.State{}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, errs.Wrap(errs.CorruptStore, "path", s.path, err)
	}
	if err := st.Validate(); err != nil {
		return nil, errs.Wrap(errs.CorruptStore, "path", s.path, err)
	}
	if st.Habits == nil {
		st.Habits = make(map[string]models.HabitRecord)
	}
	if st.Reviews == nil {
		st.Reviews = make(map[string]models.ReviewRecord)
	}
	s.logger.Debug("state loaded",
		zap.String("path", s.path),
		zap.Int("habits", len(st.Habits)),
		zap.Int("reviews", len(st.Reviews)))
	return st, nil
}

// Commit implements Store: write a temp sibling, fsync it, then rename it
// over the document.
func (s *FileStore) Commit(ctx context.Context, st *models.State) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(errs.StoreIO, "path", s.path, err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return errs.Wrap(errs.StoreIO, "path", s.path, fmt.Errorf("encode state: %w", err))
	}
	if err := writeAtomic(s.path, data); err != nil {
		return errs.Wrap(errs.StoreIO, "path", s.path, err)
	}
	s.logger.Debug("state committed", zap.String("path", s.path), zap.Int("bytes", len(data)))
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("rename temp file: %w", err)
	}

	// Persist the rename itself. Not every platform can open a directory.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// BackupAndReset moves the current document to the first free
// <path>.bak, <path>.bak.1, ... and leaves the store empty.
func (s *FileStore) BackupAndReset(ctx context.Context) (string, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	backup := s.path + ".bak"
	for i := 1; ; i++ {
		if _, err := os.Stat(backup); errors.Is(err, os.ErrNotExist) {
			break
		}
		backup = s.path + ".bak." + strconv.Itoa(i)
	}
	if err := os.Rename(s.path, backup); err != nil {
		return "", errs.Wrap(errs.StoreIO, "path", s.path, err)
	}
	s.logger.Info("state backed up and reset", zap.String("path", s.path), zap.String("backup", backup))
	return backup, nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	return s.lock.Unlock()
}
