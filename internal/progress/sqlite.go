package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const schema = `
CREATE TABLE IF NOT EXISTS bulk_progress (
    user_id TEXT PRIMARY KEY,
    questions TEXT NOT NULL,
    total INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bulk_progress_updated_at ON bulk_progress(updated_at);
`

// SQLStore keeps records in SQLite, one row per user. Every operation is a
// single statement, so concurrent writers never lose each other's rows.
type SQLStore struct {
	db    *sql.DB
	owned bool
}

// OpenSQL opens (or creates) the database at path.
func OpenSQL(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	s, err := NewSQLStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	s.owned = true
	return s, nil
}

// NewSQLStore uses an existing connection. The caller keeps ownership of db.
func NewSQLStore(db *sql.DB) (*SQLStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate progress schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Load(ctx context.Context, userID string) (Record, bool, error) {
	var (
		raw       string
		total     int
		updatedAt int64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT questions, total, updated_at FROM bulk_progress WHERE user_id = ?`,
		userID).Scan(&raw, &total, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("load progress for %s: %w", userID, err)
	}

	var questions []string
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return Record{}, false, fmt.Errorf("%w: row %s: %v", ErrCorrupt, userID, err)
	}

	return Record{
		BulkQuestions: questions,
		BulkTotal:     total,
		UpdatedAt:     time.Unix(updatedAt, 0).UTC(),
	}, true, nil
}

func (s *SQLStore) Save(ctx context.Context, userID string, questions []string, total int) error {
	rec := newRecord(questions, total)

	raw, err := json.Marshal(rec.BulkQuestions)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bulk_progress (user_id, questions, total, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			questions = excluded.questions,
			total = excluded.total,
			updated_at = excluded.updated_at`,
		userID, string(raw), rec.BulkTotal, rec.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("save progress for %s: %w", userID, err)
	}

	return nil
}

func (s *SQLStore) Clear(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM bulk_progress WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear progress for %s: %w", userID, err)
	}
	return nil
}

func (s *SQLStore) Prune(ctx context.Context, before time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM bulk_progress WHERE updated_at < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune progress: %w", err)
	}

	n, _ := result.RowsAffected()
	return int(n), nil
}

func (s *SQLStore) Close() error {
	if s.owned && s.db != nil {
		return s.db.Close()
	}
	return nil
}
