package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// Backup errors.
var (
	ErrBackupNotFound  = errors.New("backup not found")
	ErrBackupExists    = errors.New("backup already exists")
	ErrBackupCorrupted = errors.New("backup integrity check failed")
)

const maxAutoBackups = 5

// BackupManager takes and restores point-in-time copies of the ledger database.
type BackupManager struct {
	db         *sql.DB
	dbPath     string
	backupsDir string
}

// BackupInfo describes one stored backup.
type BackupInfo struct {
	CreatedAt     time.Time `json:"created_at"`
	ID            string    `json:"id"`
	Description   string    `json:"description"`
	FileSize      int64     `json:"file_size"`
	Categories    int       `json:"categories"`
	Expenses      int       `json:"expenses"`
	SchemaVersion int       `json:"schema_version"`
	IsAuto        bool      `json:"is_auto"`
}

// NewBackupManager creates a manager storing backups next to dbPath.
func NewBackupManager(db *sql.DB, dbPath string) (*BackupManager, error) {
	if dbPath == ":memory:" {
		return nil, common.Validationf("in-memory databases cannot be backed up")
	}

	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, common.StorageErr("resolve database path", err)
	}

	backupsDir := filepath.Join(filepath.Dir(absPath), "backups")
	if err := os.MkdirAll(backupsDir, 0750); err != nil {
		return nil, common.StorageErr("create backups directory", err)
	}

	return &BackupManager{
		db:         db,
		dbPath:     absPath,
		backupsDir: backupsDir,
	}, nil
}

func validateBackupID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\'";`) || strings.Contains(id, "..") {
		return common.Validationf("invalid backup id %q", id)
	}
	return nil
}

// Create snapshots the database under the given tag. An empty tag gets a
// timestamped name.
func (bm *BackupManager) Create(ctx context.Context, tag, description string) (*BackupInfo, error) {
	if tag == "" {
		tag = fmt.Sprintf("backup-%s", time.Now().Format("2006-01-02-150405"))
	}
	if err := validateBackupID(tag); err != nil {
		return nil, err
	}

	backupPath := filepath.Join(bm.backupsDir, tag+".db")
	if _, err := os.Stat(backupPath); err == nil {
		return nil, fmt.Errorf("%w: %w: %s", common.ErrValidation, ErrBackupExists, tag)
	}

	var schemaVersion int
	if err := bm.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&schemaVersion); err != nil {
		return nil, common.StorageErr("read schema version", err)
	}
	categories, err := countRows(ctx, bm.db, "categories")
	if err != nil {
		return nil, err
	}
	expenses, err := countRows(ctx, bm.db, "expenses")
	if err != nil {
		return nil, err
	}

	if _, err := bm.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return nil, common.StorageErr("checkpoint WAL", err)
	}
	// #nosec G201 - backupPath is built from a validated id
	if _, err := bm.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", backupPath)); err != nil {
		return nil, common.StorageErr("vacuum into backup", err)
	}

	stat, err := os.Stat(backupPath)
	if err != nil {
		return nil, common.StorageErr("stat backup", err)
	}

	info := &BackupInfo{
		ID:            tag,
		CreatedAt:     time.Now(),
		Description:   description,
		FileSize:      stat.Size(),
		Categories:    categories,
		Expenses:      expenses,
		SchemaVersion: schemaVersion,
	}

	if err := bm.saveMetadata(info); err != nil {
		if rmErr := os.Remove(backupPath); rmErr != nil {
			slog.Error("failed to remove backup file after metadata save failure", "error", rmErr)
		}
		return nil, err
	}

	slog.Info("created backup", "id", info.ID, "expenses", info.Expenses)
	return info, nil
}

// AutoBackup takes a backup before a bulk operation and prunes old automatic ones.
func (bm *BackupManager) AutoBackup(ctx context.Context, prefix string) (*BackupInfo, error) {
	tag := fmt.Sprintf("auto-%s-%s", prefix, time.Now().Format("2006-01-02-150405"))
	info, err := bm.Create(ctx, tag, fmt.Sprintf("Automatic backup before %s", prefix))
	if err != nil {
		return nil, err
	}

	info.IsAuto = true
	if err := bm.saveMetadata(info); err != nil {
		slog.Warn("failed to mark backup as automatic", "id", info.ID, "error", err)
	}

	if err := bm.pruneAuto(); err != nil {
		slog.Warn("failed to prune automatic backups", "error", err)
	}
	return info, nil
}

// List returns all backups, newest first.
func (bm *BackupManager) List() ([]BackupInfo, error) {
	entries, err := os.ReadDir(bm.backupsDir)
	if err != nil {
		return nil, common.StorageErr("read backups directory", err)
	}

	backups := make([]BackupInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		info, err := bm.loadMetadata(strings.TrimSuffix(entry.Name(), ".meta.json"))
		if err != nil {
			slog.Debug("skipping unreadable backup metadata", "file", entry.Name(), "error", err)
			continue
		}
		backups = append(backups, *info)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Restore replaces the live database with a backup. The manager's
// connection is closed, so the owning storage must be reopened afterwards.
func (bm *BackupManager) Restore(id string) error {
	if err := validateBackupID(id); err != nil {
		return err
	}

	backupPath := filepath.Join(bm.backupsDir, id+".db")
	if _, err := os.Stat(backupPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %w: %s", common.ErrNotFound, ErrBackupNotFound, id)
		}
		return common.StorageErr("access backup", err)
	}

	if err := verifyIntegrity(backupPath); err != nil {
		return fmt.Errorf("%w: %w: %w", common.ErrStorage, ErrBackupCorrupted, err)
	}

	if err := bm.db.Close(); err != nil {
		return common.StorageErr("close database", err)
	}

	safety := bm.dbPath + ".restore-backup"
	if err := copyFile(bm.dbPath, safety); err != nil {
		return common.StorageErr("save current database", err)
	}

	// Stale WAL files would be replayed over the restored copy.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(bm.dbPath + suffix); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove sqlite sidecar file", "suffix", suffix, "error", err)
		}
	}

	if err := copyFile(backupPath, bm.dbPath); err != nil {
		if restoreErr := copyFile(safety, bm.dbPath); restoreErr != nil {
			slog.Error("failed to put back original database after restore failure", "error", restoreErr)
		}
		return common.StorageErr("restore backup", err)
	}

	if err := os.Remove(safety); err != nil {
		slog.Warn("failed to remove pre-restore copy", "error", err)
	}

	slog.Info("restored backup", "id", id)
	return nil
}

// Delete removes a backup and its metadata.
func (bm *BackupManager) Delete(id string) error {
	if err := validateBackupID(id); err != nil {
		return err
	}

	backupPath := filepath.Join(bm.backupsDir, id+".db")
	if err := os.Remove(backupPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %w: %s", common.ErrNotFound, ErrBackupNotFound, id)
		}
		return common.StorageErr("remove backup", err)
	}
	if err := os.Remove(bm.metadataPath(id)); err != nil && !os.IsNotExist(err) {
		slog.Debug("failed to remove backup metadata", "id", id, "error", err)
	}
	return nil
}

func (bm *BackupManager) pruneAuto() error {
	backups, err := bm.List()
	if err != nil {
		return err
	}

	autoCount := 0
	for _, b := range backups {
		if !b.IsAuto {
			continue
		}
		autoCount++
		if autoCount > maxAutoBackups {
			if err := bm.Delete(b.ID); err != nil {
				slog.Debug("failed to delete old automatic backup", "id", b.ID, "error", err)
			}
		}
	}
	return nil
}

func (bm *BackupManager) metadataPath(id string) string {
	return filepath.Join(bm.backupsDir, id+".meta.json")
}

func (bm *BackupManager) saveMetadata(info *BackupInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return common.StorageErr("encode backup metadata", err)
	}

	path := bm.metadataPath(info.ID)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return common.StorageErr("write backup metadata", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return common.StorageErr("write backup metadata", err)
	}
	return nil
}

func (bm *BackupManager) loadMetadata(id string) (*BackupInfo, error) {
	// #nosec G304 - id is a file name listed from the backups directory
	data, err := os.ReadFile(bm.metadataPath(id))
	if err != nil {
		return nil, err
	}

	var info BackupInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func verifyIntegrity(path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}
	return nil
}

func copyFile(src, dst string) error {
	// #nosec G304 - paths are derived from the configured database location
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	tmpDst := dst + ".tmp"
	// #nosec G304 - see above
	destination, err := os.Create(tmpDst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destination, source); err != nil {
		_ = destination.Close()
		_ = os.Remove(tmpDst)
		return err
	}
	if err := destination.Close(); err != nil {
		_ = os.Remove(tmpDst)
		return err
	}
	return os.Rename(tmpDst, dst)
}
