package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/taskdot/taskdot/internal/task"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// schemaVersion is stored in the config table so future migrations can
// detect what they are upgrading from.
const schemaVersion = "1"

// SQLiteStore is the embedded SQLite implementation of Storage.
// WAL mode allows concurrent readers; writes assume a single writer.
type SQLiteStore struct {
	conn *sql.DB
	path string
}

// Open creates or opens the task database at path.
//
// The caller MUST call Close() when done.
func Open(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, task.WrapErr(task.KindDatabase, err, "failed to create database directory")
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, task.WrapErr(task.KindDatabase, err, "failed to open database")
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, task.WrapErr(task.KindDatabase, err, "failed to ping database")
	}

	conn.SetMaxOpenConns(1) // single implicit writer
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &SQLiteStore{conn: conn, path: path}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := s.conn.Exec(pragma); err != nil {
			_ = s.Close()
			return nil, task.WrapErr(task.KindDatabase, err, "failed to apply %s", pragma)
		}
	}

	if err := s.initSchema(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close checkpoints the WAL and closes the connection.
func (s *SQLiteStore) Close() error {
	if s.conn == nil {
		return nil
	}
	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return task.WrapErr(task.KindDatabase, err, "failed to close database")
	}
	return nil
}

// initSchema creates tables and indexes. Idempotent.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,  -- insertion order, stable across renames
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'todo',
		readiness TEXT NOT NULL DEFAULT 'draft',
		tags TEXT NOT NULL DEFAULT '[]',      -- JSON array
		parent_id TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT '{}',  -- JSON object
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_tasks_readiness ON tasks(readiness);

	CREATE TABLE IF NOT EXISTS config (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return task.WrapErr(task.KindDatabase, err, "failed to initialize schema")
	}
	if _, err := s.conn.ExecContext(ctx,
		"INSERT INTO config (key, value) VALUES ('schema_version', ?) ON CONFLICT(key) DO NOTHING",
		schemaVersion); err != nil {
		return task.WrapErr(task.KindDatabase, err, "failed to record schema version")
	}
	return nil
}

// GetConfig reads a config row, "" when absent.
func (s *SQLiteStore) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.conn.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", task.WrapErr(task.KindDatabase, err, "failed to read config %s", key)
	}
	return value, nil
}

// querier abstracts *sql.DB and *sql.Tx so the CRUD helpers serve both the
// live store and open transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const taskColumns = "id, title, description, body, status, readiness, tags, parent_id, metadata, created_at, updated_at"

func getTask(ctx context.Context, q querier, id string) (*task.Task, error) {
	row := q.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	t, err := scanTask(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, task.Errorf(task.KindNotFound, "task %s not found", id)
	}
	if err != nil {
		return nil, task.WrapErr(task.KindDatabase, err, "failed to get task %s", id)
	}
	return t, nil
}

func getAllTasks(ctx context.Context, q querier) ([]*task.Task, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY seq ASC")
	if err != nil {
		return nil, task.WrapErr(task.KindDatabase, err, "failed to list tasks")
	}
	defer rows.Close()
	return scanTasks(rows)
}

func getChildTasks(ctx context.Context, q querier, parentID string) ([]*task.Task, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE parent_id = ? ORDER BY seq ASC", parentID)
	if err != nil {
		return nil, task.WrapErr(task.KindDatabase, err, "failed to list children of %q", parentID)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func createTask(ctx context.Context, q querier, t *task.Task) error {
	if err := t.Validate(); err != nil {
		return task.WrapErr(task.KindValidation, err, "invalid task")
	}
	tagsJSON, metaJSON, err := encodeTaskBlobs(t)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO tasks (id, seq, title, description, body, status, readiness,
		                   tags, parent_id, metadata, created_at, updated_at)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM tasks), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.Body, string(t.Status), string(t.Readiness),
		tagsJSON, t.ParentID, metaJSON,
		t.CreatedAt.Format(time.RFC3339Nano), t.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return task.WrapErr(task.KindDatabase, err, "failed to create task %s", t.ID)
	}
	return nil
}

func updateTask(ctx context.Context, q querier, t *task.Task) error {
	if err := t.Validate(); err != nil {
		return task.WrapErr(task.KindValidation, err, "invalid task")
	}
	tagsJSON, metaJSON, err := encodeTaskBlobs(t)
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, body = ?, status = ?, readiness = ?,
		                 tags = ?, parent_id = ?, metadata = ?, updated_at = ?
		WHERE id = ?`,
		t.Title, t.Description, t.Body, string(t.Status), string(t.Readiness),
		tagsJSON, t.ParentID, metaJSON, t.UpdatedAt.Format(time.RFC3339Nano),
		t.ID,
	)
	if err != nil {
		return task.WrapErr(task.KindDatabase, err, "failed to update task %s", t.ID)
	}
	return requireOneRow(res, t.ID)
}

func removeTask(ctx context.Context, q querier, id string) error {
	res, err := q.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return task.WrapErr(task.KindDatabase, err, "failed to remove task %s", id)
	}
	return requireOneRow(res, id)
}

func renameTask(ctx context.Context, q querier, oldID, newID, newParentID string) error {
	res, err := q.ExecContext(ctx,
		"UPDATE tasks SET id = ?, parent_id = ? WHERE id = ?", newID, newParentID, oldID)
	if err != nil {
		return task.WrapErr(task.KindDatabase, err, "failed to rename task %s to %s", oldID, newID)
	}
	return requireOneRow(res, oldID)
}

func requireOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return task.WrapErr(task.KindDatabase, err, "failed to check affected rows for %s", id)
	}
	if n == 0 {
		return task.Errorf(task.KindNotFound, "task %s not found", id)
	}
	return nil
}

// encodeTaskBlobs serializes tags and metadata once, at the boundary.
// The transient similarityScore annotation is stripped: it must never be
// part of a task's canonical record.
func encodeTaskBlobs(t *task.Task) (tagsJSON, metaJSON string, err error) {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	tb, err := json.Marshal(tags)
	if err != nil {
		return "", "", task.WrapErr(task.KindDatabase, err, "failed to marshal tags for %s", t.ID)
	}

	meta := t.Metadata.Clone()
	delete(meta, task.MetaSimilarityScore)
	mb, err := json.Marshal(meta)
	if err != nil {
		return "", "", task.WrapErr(task.KindDatabase, err, "failed to marshal metadata for %s", t.ID)
	}
	return string(tb), string(mb), nil
}

func scanTask(scan func(dest ...interface{}) error) (*task.Task, error) {
	var t task.Task
	var status, readiness, tagsJSON, metaJSON, createdAt, updatedAt string

	err := scan(&t.ID, &t.Title, &t.Description, &t.Body, &status, &readiness,
		&tagsJSON, &t.ParentID, &metaJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	t.Status = task.Status(status)
	t.Readiness = task.Readiness(readiness)

	if err := json.Unmarshal([]byte(tagsJSON), &t.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags for %s: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(metaJSON), &t.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", t.ID, err)
	}
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		t.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		t.UpdatedAt = ts
	}
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]*task.Task, error) {
	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, task.WrapErr(task.KindDatabase, err, "failed to scan task")
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, task.WrapErr(task.KindDatabase, err, "error iterating tasks")
	}
	return tasks, nil
}

// ---- Storage interface ----

func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*task.Task, error) {
	return getTask(ctx, s.conn, id)
}

func (s *SQLiteStore) GetAllTasks(ctx context.Context) ([]*task.Task, error) {
	return getAllTasks(ctx, s.conn)
}

func (s *SQLiteStore) GetChildTasks(ctx context.Context, parentID string) ([]*task.Task, error) {
	return getChildTasks(ctx, s.conn, parentID)
}

func (s *SQLiteStore) CreateTask(ctx context.Context, t *task.Task) error {
	return createTask(ctx, s.conn, t)
}

func (s *SQLiteStore) UpdateTask(ctx context.Context, t *task.Task) error {
	return updateTask(ctx, s.conn, t)
}

func (s *SQLiteStore) RemoveTask(ctx context.Context, id string) error {
	return removeTask(ctx, s.conn, id)
}

func (s *SQLiteStore) RenameTask(ctx context.Context, oldID, newID, newParentID string) error {
	return renameTask(ctx, s.conn, oldID, newID, newParentID)
}

// sqliteTx adapts *sql.Tx to the Transaction interface.
type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) GetTask(ctx context.Context, id string) (*task.Task, error) {
	return getTask(ctx, t.tx, id)
}

func (t *sqliteTx) GetAllTasks(ctx context.Context) ([]*task.Task, error) {
	return getAllTasks(ctx, t.tx)
}

func (t *sqliteTx) GetChildTasks(ctx context.Context, parentID string) ([]*task.Task, error) {
	return getChildTasks(ctx, t.tx, parentID)
}

func (t *sqliteTx) CreateTask(ctx context.Context, tk *task.Task) error {
	return createTask(ctx, t.tx, tk)
}

func (t *sqliteTx) UpdateTask(ctx context.Context, tk *task.Task) error {
	return updateTask(ctx, t.tx, tk)
}

func (t *sqliteTx) RemoveTask(ctx context.Context, id string) error {
	return removeTask(ctx, t.tx, id)
}

func (t *sqliteTx) RenameTask(ctx context.Context, oldID, newID, newParentID string) error {
	return renameTask(ctx, t.tx, oldID, newID, newParentID)
}

// RunInTransaction executes fn atomically. Any error from fn rolls back
// every change made through the transaction.
func (s *SQLiteStore) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return task.WrapErr(task.KindDatabase, err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := fn(&sqliteTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return task.WrapErr(task.KindDatabase, err, "failed to commit transaction")
	}
	return nil
}
