package journal

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/shackstack/shackstack/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJournalWithMock(t *testing.T) (*PostgresJournal, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresJournal(db), mock, db
}

var (
	insertRe  = regexp.MustCompile(`INSERT INTO orphans .* ON CONFLICT \(cid\)\s+DO UPDATE SET reason = EXCLUDED\.reason, resolved_at = NULL;`)
	resolveRe = regexp.MustCompile(`UPDATE orphans SET resolved_at = now\(\) WHERE cid = \$1 AND resolved_at IS NULL`)
	selectRe  = regexp.MustCompile(`SELECT cid, owner, encrypted, reason, created_at FROM orphans\s+WHERE resolved_at IS NULL ORDER BY created_at`)
)

func TestRecordOrphan_Success(t *testing.T) {
	j, mock, _ := newJournalWithMock(t)

	mock.ExpectExec(insertRe.String()).
		WithArgs("Qm123", "0xabc", true, "confirmation timed out").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := j.RecordOrphan(context.Background(), Orphan{
		CID: "Qm123", Owner: "0xabc", Encrypted: true, Reason: "confirmation timed out",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordOrphan_DBError(t *testing.T) {
	j, mock, _ := newJournalWithMock(t)

	mock.ExpectExec(insertRe.String()).
		WillReturnError(errors.New("db is down"))

	err := j.RecordOrphan(context.Background(), Orphan{CID: "Qm123"})
	if err == nil || !regexp.MustCompile(`db error: .*db is down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestResolveOrphan(t *testing.T) {
	t.Run("resolved", func(t *testing.T) {
		j, mock, _ := newJournalWithMock(t)
		mock.ExpectExec(resolveRe.String()).WithArgs("Qm123").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, j.ResolveOrphan(context.Background(), "Qm123"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing open", func(t *testing.T) {
		j, mock, _ := newJournalWithMock(t)
		mock.ExpectExec(resolveRe.String()).WithArgs("Qm404").WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, j.ResolveOrphan(context.Background(), "Qm404"), common.ErrNotFound)
	})

	t.Run("rows affected error", func(t *testing.T) {
		j, mock, _ := newJournalWithMock(t)
		mock.ExpectExec(resolveRe.String()).WithArgs("Qm1").
			WillReturnResult(sqlmock.NewErrorResult(errors.New("rows-err")))

		err := j.ResolveOrphan(context.Background(), "Qm1")
		assert.ErrorContains(t, err, "rows affected error")
	})
}

func TestListOrphans(t *testing.T) {
	j, mock, _ := newJournalWithMock(t)
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"cid", "owner", "encrypted", "reason", "created_at"}).
		AddRow("Qm1", "0xa", true, "timeout", ts).
		AddRow("Qm2", "0xb", false, "reverted", ts.Add(time.Minute))
	mock.ExpectQuery(selectRe.String()).WillReturnRows(rows)

	got, err := j.ListOrphans(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Orphan{CID: "Qm1", Owner: "0xa", Encrypted: true, Reason: "timeout", CreatedAt: ts}, got[0])
	assert.Equal(t, "Qm2", got[1].CID)
}

func TestListOrphans_Errors(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		j, mock, _ := newJournalWithMock(t)
		mock.ExpectQuery(selectRe.String()).WillReturnError(errors.New("db err"))

		_, err := j.ListOrphans(context.Background())
		assert.ErrorContains(t, err, "failed to select orphans")
	})

	t.Run("rows", func(t *testing.T) {
		j, mock, _ := newJournalWithMock(t)
		rows := sqlmock.NewRows([]string{"cid", "owner", "encrypted", "reason", "created_at"}).
			AddRow("Qm1", "0xa", true, "r", time.Now()).
			RowError(0, errors.New("row-err"))
		mock.ExpectQuery(selectRe.String()).WillReturnRows(rows)

		_, err := j.ListOrphans(context.Background())
		assert.EqualError(t, err, "row-err")
	})
}

func TestRunMigrations_UsesEmbeddedSchema(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var dir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, d string, opts ...goose.OptionsFunc) error {
		dir = d
		return nil
	}

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(context.Background(), db))
	assert.Equal(t, ".", dir)

	gooseUpContext = func(ctx context.Context, db *sql.DB, d string, opts ...goose.OptionsFunc) error {
		return errors.New("migrate failed")
	}
	assert.EqualError(t, RunMigrations(context.Background(), db), "migrate failed")
}
