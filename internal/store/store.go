package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SnapshotRecord represents a stored inventory snapshot.
type SnapshotRecord struct {
	ID            string
	Hostname      string
	Family        string
	OSName        string
	OSVersion     string
	SystemUUID    string
	CollectedAt   time.Time
	StoredAt      time.Time
	InventoryJSON string
}

// ListFilter holds optional query parameters for listing snapshots.
type ListFilter struct {
	Hostname        string
	Family          string
	SystemUUID      string
	CollectedAfter  *time.Time
	CollectedBefore *time.Time
	PageSize        int
	Page            int
}

const defaultPageSize = 50

// window converts the 1-based page into LIMIT and OFFSET.
func (f ListFilter) window() (limit, offset int) {
	limit = f.PageSize
	if limit <= 0 {
		limit = defaultPageSize
	}
	page := max(f.Page, 1)
	return limit, (page - 1) * limit
}

// rowid breaks ties between snapshots stored within the same second.
const newestFirst = ` ORDER BY collected_at DESC, stored_at DESC, rowid DESC`

const selectColumns = `SELECT id, hostname, family, os_name, os_version, system_uuid, collected_at, stored_at`

// Store provides CRUD operations for snapshot records.
type Store struct {
	db *sql.DB
}

// New opens the SQLite database at path in WAL mode and creates the schema.
// The pool holds one connection, so writes never contend.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	if _, err = db.Exec(createTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores a snapshot under a new random ID and returns the ID and
// stored_at time.
func (s *Store) Insert(ctx context.Context, rec *SnapshotRecord) (string, time.Time, error) {
	id := uuid.NewString()
	storedAt := time.Now().UTC().Truncate(time.Second)

	const insert = `INSERT INTO snapshots
		(id, hostname, family, os_name, os_version, system_uuid, collected_at, stored_at, inventory_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, insert, id, rec.Hostname, rec.Family, rec.OSName, rec.OSVersion,
		rec.SystemUUID, formatTime(rec.CollectedAt), formatTime(storedAt), rec.InventoryJSON); err != nil {
		return "", time.Time{}, fmt.Errorf("insert snapshot: %w", err)
	}

	return id, storedAt, nil
}

// Get retrieves a snapshot by ID. It returns sql.ErrNoRows when absent.
func (s *Store) Get(ctx context.Context, id string) (*SnapshotRecord, error) {
	row := s.db.QueryRowContext(ctx,
		selectColumns+`, inventory_json FROM snapshots WHERE id = ?`, id)

	return scanRecord(row)
}

// GetLatestByHostname retrieves the most recent snapshot for a hostname.
func (s *Store) GetLatestByHostname(ctx context.Context, hostname string) (*SnapshotRecord, error) {
	row := s.db.QueryRowContext(ctx,
		selectColumns+`, inventory_json FROM snapshots WHERE hostname = ?
		`+newestFirst+` LIMIT 1`, hostname)

	return scanRecord(row)
}

// Delete removes a snapshot by ID. It returns sql.ErrNoRows when absent.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}

	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	} else if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns snapshot summaries matching the filter, newest first, and
// the total number of matches. Summaries carry no inventory JSON.
func (s *Store) List(ctx context.Context, f ListFilter) ([]SnapshotRecord, int, error) {
	where, args := buildWhere(f)

	var total int
	countQuery := "SELECT COUNT(*) FROM snapshots" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count snapshots: %w", err)
	}

	limit, offset := f.window()
	query := selectColumns + `, '' FROM snapshots` + where +
		newestFirst + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	records := []SnapshotRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, *rec)
	}

	return records, total, rows.Err()
}

// Purge deletes snapshots collected before now minus olderThan.
func (s *Store) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().Add(-olderThan))
	result, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE collected_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge snapshots: %w", err)
	}
	return result.RowsAffected()
}

// where accumulates AND-ed conditions. Empty values add nothing.
type where struct {
	conds []string
	args  []any
}

func (w *where) eq(column, v string) {
	if v != "" {
		w.conds = append(w.conds, column+" = ?")
		w.args = append(w.args, v)
	}
}

func (w *where) at(cond string, t *time.Time) {
	if t != nil {
		w.conds = append(w.conds, cond)
		w.args = append(w.args, formatTime(*t))
	}
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func buildWhere(f ListFilter) (string, []any) {
	var w where
	w.eq("hostname", f.Hostname)
	w.eq("family", f.Family)
	w.eq("system_uuid", f.SystemUUID)
	w.at("collected_at >= ?", f.CollectedAfter)
	w.at("collected_at <= ?", f.CollectedBefore)
	return w.String(), w.args
}

// Timestamps are stored as RFC 3339 UTC text so they sort lexically.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*SnapshotRecord, error) {
	var rec SnapshotRecord
	var collectedAt, storedAt string
	err := row.Scan(&rec.ID, &rec.Hostname, &rec.Family, &rec.OSName, &rec.OSVersion, &rec.SystemUUID,
		&collectedAt, &storedAt, &rec.InventoryJSON)
	if err != nil {
		return nil, err
	}

	if rec.CollectedAt, err = time.Parse(time.RFC3339, collectedAt); err != nil {
		return nil, fmt.Errorf("snapshot %s: collected_at: %w", rec.ID, err)
	}
	if rec.StoredAt, err = time.Parse(time.RFC3339, storedAt); err != nil {
		return nil, fmt.Errorf("snapshot %s: stored_at: %w", rec.ID, err)
	}
	return &rec, nil
}
