// Package localdb opens the client's sqlite database and wires up the
// repositories that live in it.
package localdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/apiarist/hivekeep/internal/client/migrations"
	"github.com/apiarist/hivekeep/internal/client/repositories/metadata"
	"github.com/apiarist/hivekeep/internal/client/repositories/snapshots"
)

type Repositories struct {
	Snapshots snapshots.Repository
	Metadata  metadata.Repository
	DB        *sql.DB
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the database at dsn, applies pending
// migrations and returns the repositories bound to it.
func Open(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Repositories{
		Snapshots: snapshots.NewSQLiteRepository(db),
		Metadata:  metadata.NewSQLiteRepository(db),
		DB:        db,
	}, nil
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}
