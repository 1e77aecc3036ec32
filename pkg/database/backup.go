package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
)

// ErrBackupUnsupported is returned for drivers without file-level backups.
var ErrBackupUnsupported = errors.New("database backups require the sqlite driver")

// Backup writes a consistent copy of a SQLite database to destination. The
// destination must not exist yet. A failed copy leaves no file behind.
func Backup(ctx context.Context, db *sqlx.DB, destination string) error {
	if db.DriverName() != "sqlite" {
		return ErrBackupUnsupported
	}
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return fmt.Errorf("prepare backup directory: %w", err)
	}
	if _, err := os.Stat(destination); err == nil {
		return fmt.Errorf("backup destination %s already exists", destination)
	}
	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", destination); err != nil {
		if rmErr := os.Remove(destination); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return errors.Join(fmt.Errorf("vacuum into %s: %w", destination, err), rmErr)
		}
		return fmt.Errorf("vacuum into %s: %w", destination, err)
	}
	return nil
}
