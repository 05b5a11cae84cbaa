// Package journal records content that was stored but never registered, so
// operators can find and complete it later. The content store is
// append-only; the journal is the only trace of an interrupted create
// besides the error returned to the caller.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shackstack/shackstack/internal/common"
	"github.com/shackstack/shackstack/internal/dbx"
	"github.com/shackstack/shackstack/internal/journal/migrations"
)

// Orphan is a stored-but-unregistered resource.
type Orphan struct {
	CID       string
	Owner     string
	Encrypted bool
	Reason    string
	CreatedAt time.Time
}

// PostgresJournal keeps orphans in the orphans table.
type PostgresJournal struct {
	db dbx.DBTX
}

func NewPostgresJournal(db dbx.DBTX) *PostgresJournal {
	return &PostgresJournal{db: db}
}

// Open connects to dsn with the pgx driver and applies migrations.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return db, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// RecordOrphan stores o. Recording the same CID again refreshes the reason
// and reopens it if it had been resolved.
func (j *PostgresJournal) RecordOrphan(ctx context.Context, o Orphan) error {
	query := `
		INSERT INTO orphans (cid, owner, encrypted, reason)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cid)
		DO UPDATE SET reason = EXCLUDED.reason, resolved_at = NULL;
	`
	if _, err := j.db.ExecContext(ctx, query, o.CID, o.Owner, o.Encrypted, o.Reason); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ResolveOrphan marks cid as registered. Returns common.ErrNotFound if there
// was no open entry for it.
func (j *PostgresJournal) ResolveOrphan(ctx context.Context, cid string) error {
	query := `UPDATE orphans SET resolved_at = now() WHERE cid = $1 AND resolved_at IS NULL`

	res, err := j.db.ExecContext(ctx, query, cid)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// ListOrphans returns open entries, oldest first.
func (j *PostgresJournal) ListOrphans(ctx context.Context) ([]Orphan, error) {
	query := `SELECT cid, owner, encrypted, reason, created_at FROM orphans
		WHERE resolved_at IS NULL ORDER BY created_at`

	rows, err := j.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select orphans: %w", err)
	}
	defer rows.Close()

	var result []Orphan
	for rows.Next() {
		var o Orphan
		if err := rows.Scan(&o.CID, &o.Owner, &o.Encrypted, &o.Reason, &o.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
