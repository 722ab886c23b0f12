package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/ghnotify/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Every connection to ":memory:" is its own database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SaveNotifications upserts a batch of notifications. Existing rows keep
// their insert time; a thread that turns unread again loses its read time.
func (s *SQLiteStore) SaveNotifications(ctx context.Context, ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO notifications (
			id, reason, unread,
			subject_title, subject_url, subject_type,
			repository_name, repository_full_name, repository_html_url,
			updated_at, insert_time
		) VALUES (
			?, ?, ?,
			?, ?, ?,
			?, ?, ?,
			?, ?
		)
		ON CONFLICT(id) DO UPDATE SET
			reason        = excluded.reason,
			unread        = excluded.unread,
			subject_title = excluded.subject_title,
			updated_at    = excluded.updated_at,
			read_time     = CASE WHEN excluded.unread = 1 THEN NULL ELSE read_time END`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	insertedAt := s.now().UTC()
	for _, n := range ns {
		_, err = stmt.ExecContext(ctx,
			n.ID, n.Reason, boolToInt(n.Unread),
			n.Subject.Title, n.Subject.URL, n.Subject.Type,
			n.Repository.Name, n.Repository.FullName, n.Repository.HTMLURL,
			n.UpdatedAt.UTC(), insertedAt,
		)
		if err != nil {
			return fmt.Errorf("upserting notification %s: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

// MarkRead clears the unread flag and stamps the read time. Unknown ids are
// not an error.
func (s *SQLiteStore) MarkRead(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET unread = 0, read_time = ? WHERE id = ? AND unread = 1",
		s.now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s as read: %w", id, err)
	}
	return nil
}

// GetNotifications retrieves archived notifications matching the filter,
// most recently updated first.
func (s *SQLiteStore) GetNotifications(
	ctx context.Context,
	filter NotificationFilter,
) ([]Record, error) {
	var conditions []string
	var args []interface{}

	if filter.Reason != nil {
		conditions = append(conditions, "reason = ?")
		args = append(args, *filter.Reason)
	}
	if filter.UnreadOnly {
		conditions = append(conditions, "unread = 1")
	}
	if filter.Repository != nil {
		conditions = append(conditions, "repository_full_name = ?")
		args = append(args, *filter.Repository)
	}

	query := `SELECT id, reason, unread,
		subject_title, subject_url, subject_type,
		repository_name, repository_full_name, repository_html_url,
		updated_at, insert_time, read_time
		FROM notifications`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY updated_at DESC, id"

	switch {
	case filter.Limit > 0:
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, max(filter.Offset, 0))
	case filter.Offset > 0:
		// SQLite only accepts OFFSET after a LIMIT; -1 means no limit.
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// UnreadCount returns the number of archived notifications still unread.
func (s *SQLiteStore) UnreadCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM notifications WHERE unread = 1"); err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return n, nil
}

// RecordBatch stores a batch summary, assigning an id and receive time when
// they are missing.
func (s *SQLiteStore) RecordBatch(ctx context.Context, b BatchRecord) (BatchRecord, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.ReceivedAt.IsZero() {
		b.ReceivedAt = s.now()
	}
	b.ReceivedAt = b.ReceivedAt.UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO batches (id, received_at, size, added) VALUES (?, ?, ?, ?)",
		b.ID, b.ReceivedAt, b.Size, b.Added,
	)
	if err != nil {
		return BatchRecord{}, fmt.Errorf("recording batch: %w", err)
	}
	return b, nil
}

// RecentBatches returns up to limit batch summaries, newest first.
func (s *SQLiteStore) RecentBatches(ctx context.Context, limit int) ([]BatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, received_at, size, added FROM batches ORDER BY received_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying batches: %w", err)
	}
	defer rows.Close()

	var batches []BatchRecord
	for rows.Next() {
		var b BatchRecord
		if err := rows.Scan(&b.ID, &b.ReceivedAt, &b.Size, &b.Added); err != nil {
			return nil, fmt.Errorf("scanning batch row: %w", err)
		}
		batches = append(batches, b)
	}

	return batches, rows.Err()
}

// scanRecord scans a notification row from a sqlx.Rows result set.
func scanRecord(rows *sqlx.Rows) (Record, error) {
	var (
		r        Record
		unread   int
		readTime sql.NullTime
	)

	err := rows.Scan(
		&r.ID, &r.Reason, &unread,
		&r.Subject.Title, &r.Subject.URL, &r.Subject.Type,
		&r.Repository.Name, &r.Repository.FullName, &r.Repository.HTMLURL,
		&r.UpdatedAt, &r.InsertTime, &readTime,
	)
	if err != nil {
		return Record{}, fmt.Errorf("scanning notification row: %w", err)
	}

	r.Unread = unread != 0
	if readTime.Valid {
		t := readTime.Time
		r.ReadTime = &t
	}

	return r, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
