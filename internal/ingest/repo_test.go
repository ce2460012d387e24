package ingest

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediguru/internal/record"
)

func TestRepositoryReplaceCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM registered WHERE m_id = $1")).
		WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec("SAVEPOINT ingest_row").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registered")).
		WithArgs(int64(4), "Asha", "Nurse", "B1", "").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("RELEASE SAVEPOINT ingest_row").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (m_id) DO UPDATE SET registered_url = EXCLUDED.registered_url, created_at = NOW()")).
		WithArgs(int64(4), "registered_4_1_1.json").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewRepository(db)
	ctx := context.Background()
	err = repo.WithTx(ctx, func(tx Tx) error {
		if err := tx.DeleteRows(ctx, record.Registered, 4); err != nil {
			return err
		}
		row := Row{Registrant: &record.Registrant{Name: "Asha", Designation: "Nurse", Block: "B1"}}
		if err := tx.InsertRow(ctx, record.Registered, 4, 1, row); err != nil {
			return err
		}
		return tx.UpsertManifest(ctx, 4, record.Registered, "registered_4_1_1.json")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryRowFailureRollsBackToSavepoint(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("SAVEPOINT ingest_row").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO pretest_results")).
		WithArgs(int64(2), "Ravi", "", 12, 20, int64(9)).
		WillReturnError(errors.New("value out of range"))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT ingest_row").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	repo := NewRepository(db)
	ctx := context.Background()
	var rowErr *RowError
	err = repo.WithTx(ctx, func(tx Tx) error {
		err := tx.InsertRow(ctx, record.Pretest, 2, 9, Row{Test: &record.TestResult{Name: "Ravi", Score: 12, TotalMarks: 20}})
		if !errors.As(err, &rowErr) {
			return err
		}
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, rowErr)
	assert.Equal(t, "value out of range", rowErr.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryWithTxRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM meeting_attendance WHERE meeting_id = $1")).
		WithArgs(int64(3)).WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	repo := NewRepository(db)
	ctx := context.Background()
	err = repo.WithTx(ctx, func(tx Tx) error {
		return tx.DeleteRows(ctx, record.Attendance, 3)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock timeout")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryManifestAndCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM files WHERE m_id = $1")).
		WithArgs(int64(6)).
		WillReturnRows(sqlmock.NewRows([]string{"pre_url", "attend_url", "post_url", "registered_url", "created_at"}).
			AddRow("pretest_6_1_1.json", nil, nil, "registered_6_1_1.json", at))
	mock.ExpectQuery(regexp.QuoteMeta("FROM files WHERE m_id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"pre_url", "attend_url", "post_url", "registered_url", "created_at"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM posttest_results WHERE meeting_id = $1")).
		WithArgs(int64(6)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	repo := NewRepository(db)
	ctx := context.Background()

	m, err := repo.Manifest(ctx, 6)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "pretest_6_1_1.json", m.Artifacts[record.Pretest])
	assert.Equal(t, "", m.Artifacts[record.Attendance])
	assert.Equal(t, at, m.UpdatedAt)

	m, err = repo.Manifest(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, m)

	n, err := repo.Count(ctx, record.Posttest, 6)
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
