// Package sqlite provides a SQLite-backed snapshot store.
//
// The adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO. Registry snapshots (status, progress columns,
// structured sync results) survive a client restart and are reconciled
// against the backend on the next refresh.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nethopper2/datasync/internal/core/domain"
	"github.com/nethopper2/datasync/internal/core/ports/driven"
)

// Ensure SnapshotStore implements the interface.
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore persists registry snapshots in a local SQLite database.
type SnapshotStore struct {
	db   *sql.DB
	path string
}

// NewSnapshotStore creates a store at the specified data directory.
// If dataDir is empty, defaults to ~/.datasync/data.
func NewSnapshotStore(dataDir string) (*SnapshotStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".datasync", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "snapshots.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SnapshotStore{db: db, path: dbPath}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SnapshotStore) Path() string {
	return s.path
}

// ensureSchema creates the snapshot table when missing.
func (s *SnapshotStore) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS source_snapshots (
			id                   TEXT PRIMARY KEY,
			action               TEXT NOT NULL,
			layer                TEXT NOT NULL,
			name                 TEXT NOT NULL DEFAULT '',
			context              TEXT NOT NULL DEFAULT '',
			icon                 TEXT NOT NULL DEFAULT '',
			sync_status          TEXT NOT NULL,
			last_sync            INTEGER NOT NULL DEFAULT 0,
			sync_start_time      INTEGER NOT NULL DEFAULT 0,
			files_processed      INTEGER NOT NULL DEFAULT 0,
			files_total          INTEGER NOT NULL DEFAULT 0,
			mb_processed         REAL NOT NULL DEFAULT 0,
			mb_total             REAL NOT NULL DEFAULT 0,
			sync_results         TEXT NOT NULL DEFAULT 'null',
			timeout_acknowledged INTEGER NOT NULL DEFAULT 0,
			UNIQUE(action, layer)
		)
	`)
	if err != nil {
		return fmt.Errorf("creating source_snapshots table: %w", err)
	}
	return nil
}

// Save stores or updates a source snapshot.
func (s *SnapshotStore) Save(ctx context.Context, source domain.DataSource) error {
	if source.ID == "" {
		return domain.ErrInvalidInput
	}

	results, err := json.Marshal(source.SyncResults)
	if err != nil {
		return fmt.Errorf("marshal sync results: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO source_snapshots (
			id, action, layer, name, context, icon, sync_status,
			last_sync, sync_start_time, files_processed, files_total,
			mb_processed, mb_total, sync_results, timeout_acknowledged
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			action = excluded.action,
			layer = excluded.layer,
			name = excluded.name,
			context = excluded.context,
			icon = excluded.icon,
			sync_status = excluded.sync_status,
			last_sync = excluded.last_sync,
			sync_start_time = excluded.sync_start_time,
			files_processed = excluded.files_processed,
			files_total = excluded.files_total,
			mb_processed = excluded.mb_processed,
			mb_total = excluded.mb_total,
			sync_results = excluded.sync_results,
			timeout_acknowledged = excluded.timeout_acknowledged
	`,
		source.ID, source.Action, source.Layer, source.Name, source.Context,
		source.Icon, string(source.SyncStatus), source.LastSync,
		source.SyncStartTime, source.FilesProcessed, source.FilesTotal,
		source.MBProcessed, source.MBTotal, string(results),
		boolToInt(source.TimeoutAcknowledged),
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", source.ID, err)
	}
	return nil
}

// Get retrieves a source snapshot by ID.
func (s *SnapshotStore) Get(ctx context.Context, id string) (*domain.DataSource, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, action, layer, name, context, icon, sync_status,
		       last_sync, sync_start_time, files_processed, files_total,
		       mb_processed, mb_total, sync_results, timeout_acknowledged
		FROM source_snapshots WHERE id = ?
	`, id)

	source, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", id, err)
	}
	return source, nil
}

// List returns all cached source snapshots.
func (s *SnapshotStore) List(ctx context.Context) ([]domain.DataSource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, layer, name, context, icon, sync_status,
		       last_sync, sync_start_time, files_processed, files_total,
		       mb_processed, mb_total, sync_results, timeout_acknowledged
		FROM source_snapshots ORDER BY action, layer
	`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var sources []domain.DataSource
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		sources = append(sources, *source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return sources, nil
}

// Delete removes a source snapshot.
func (s *SnapshotStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM source_snapshots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	return nil
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanSource reads one snapshot row.
func scanSource(row scanner) (*domain.DataSource, error) {
	var (
		source  domain.DataSource
		status  string
		results string
		acked   int
	)
	err := row.Scan(
		&source.ID, &source.Action, &source.Layer, &source.Name,
		&source.Context, &source.Icon, &status, &source.LastSync,
		&source.SyncStartTime, &source.FilesProcessed, &source.FilesTotal,
		&source.MBProcessed, &source.MBTotal, &results, &acked,
	)
	if err != nil {
		return nil, err
	}

	source.SyncStatus = domain.SyncStatus(status)
	source.TimeoutAcknowledged = acked != 0
	if results != "" && results != "null" {
		if err := json.Unmarshal([]byte(results), &source.SyncResults); err != nil {
			return nil, fmt.Errorf("unmarshal sync results: %w", err)
		}
	}
	return &source, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
