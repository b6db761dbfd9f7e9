// Package sqlite stores the saga log in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"

	// Pure-Go driver, no CGO.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS saga_logs (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    saga_id         TEXT        NOT NULL,
    status          TEXT        NOT NULL,
    current_step    TEXT        NOT NULL DEFAULT '',
    payload         TEXT,
    error_messages  TEXT        NOT NULL DEFAULT '[]',
    trace_id        TEXT        NOT NULL DEFAULT '',
    span_id         TEXT        NOT NULL DEFAULT '',
    updated_at      TEXT        NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_saga_logs_saga_id ON saga_logs(saga_id, updated_at);
CREATE INDEX IF NOT EXISTS idx_saga_logs_trace_id ON saga_logs(trace_id);
`

const timeLayout = "2006-01-02T15:04:05.999999999Z"

var _ sagalog.Repository = (*Repository)(nil)

type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path in WAL mode and applies the
// schema.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Save appends entry. It is safe to call concurrently.
func (r *Repository) Save(ctx context.Context, entry *sagalog.SagaLog) error {
	const q = `
		INSERT INTO saga_logs
			(saga_id, status, current_step, payload, error_messages, trace_id, span_id, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.SagaID,
		string(entry.Status),
		entry.CurrentStep,
		nullableString(entry.Payload),
		entry.ErrorMessages,
		entry.TraceID,
		entry.SpanID,
		entry.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save saga log for %q: %w", entry.SagaID, err)
	}
	return nil
}

const selectColumns = `
	SELECT saga_id, status, current_step, COALESCE(payload,''), error_messages,
	       trace_id, span_id, updated_at
	FROM   saga_logs`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (sagalog.SagaLog, error) {
	var entry sagalog.SagaLog
	var updatedAt string
	if err := row.Scan(
		&entry.SagaID,
		&entry.Status,
		&entry.CurrentStep,
		&entry.Payload,
		&entry.ErrorMessages,
		&entry.TraceID,
		&entry.SpanID,
		&updatedAt,
	); err != nil {
		return sagalog.SagaLog{}, err
	}
	t, err := parseRFC3339(updatedAt)
	if err != nil {
		return sagalog.SagaLog{}, err
	}
	entry.UpdatedAt = t
	return entry, nil
}

// GetLatest returns the most recent entry for sagaID.
func (r *Repository) GetLatest(ctx context.Context, sagaID string) (*sagalog.SagaLog, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+`
		WHERE  saga_id = ?
		ORDER  BY updated_at DESC, id DESC
		LIMIT  1`, sagaID)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: saga %q not found", sagaID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get latest for %q: %w", sagaID, err)
	}
	return &entry, nil
}

// History returns every entry of sagaID in write order.
func (r *Repository) History(ctx context.Context, sagaID string) ([]sagalog.SagaLog, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+`
		WHERE  saga_id = ?
		ORDER  BY id ASC`, sagaID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: history for %q: %w", sagaID, err)
	}
	defer rows.Close()

	var out []sagalog.SagaLog
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan history for %q: %w", sagaID, err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// CountByStatus counts sagas whose latest entry has the given status.
func (r *Repository) CountByStatus(ctx context.Context, status sagalog.Status) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM   saga_logs l
		WHERE  l.status = ?
		  AND  l.id = (SELECT MAX(id) FROM saga_logs WHERE saga_id = l.saga_id)`, string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: count %s sagas: %w", status, err)
	}
	return n, nil
}

// CountUnfinished counts sagas whose latest entry is neither COMPLETED nor
// FAILED, i.e. sagas the process stopped in the middle of.
func (r *Repository) CountUnfinished(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM   saga_logs l
		WHERE  l.status NOT IN (?, ?)
		  AND  l.id = (SELECT MAX(id) FROM saga_logs WHERE saga_id = l.saga_id)`,
		string(sagalog.StatusCompleted), string(sagalog.StatusFailed)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: count unfinished sagas: %w", err)
	}
	return n, nil
}

// nullableString stores empty payloads as NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}
