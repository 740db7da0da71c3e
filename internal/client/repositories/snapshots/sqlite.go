package snapshots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/apiarist/hivekeep/internal/common"
	"github.com/apiarist/hivekeep/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get returns the stored snapshot for key, or common.ErrNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var records []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT records FROM snapshots WHERE key = ?`, key).Scan(&records)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot[%s]: %w", key, err)
	}
	return records, nil
}

// Set overwrites the snapshot stored under key.
func (r *SQLiteRepository) Set(ctx context.Context, key string, records []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, records, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT(key) DO UPDATE SET
			records = excluded.records,
			updated_at = excluded.updated_at
	`, key, records)
	if err != nil {
		return fmt.Errorf("failed to write snapshot[%s]: %w", key, err)
	}
	return nil
}

// Delete removes the snapshot stored under key. Deleting an absent key is
// not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot[%s]: %w", key, err)
	}
	return nil
}

// ListKeys returns all snapshot keys starting with prefix, in key order.
// An empty prefix lists every key.
func (r *SQLiteRepository) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	pattern := strings.ReplaceAll(strings.ReplaceAll(prefix, `\`, `\\`), "_", `\_`) + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT key FROM snapshots WHERE key LIKE ? ESCAPE '\' ORDER BY key`, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
