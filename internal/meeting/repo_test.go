package meeting

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var joinedColumns = []string{"id", "name", "date", "time", "topic", "hosters", "created_by", "name", "role", "created_at"}

func TestRepositorySlotTaken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	q := regexp.QuoteMeta("SELECT id FROM meetings WHERE date = $1::date AND time = $2::time")
	mock.ExpectQuery(q).WithArgs("2026-10-20", "10:00").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectQuery(q).WithArgs("2026-10-21", "10:00").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewRepository(db)
	taken, err := repo.SlotTaken(context.Background(), "2026-10-20", "10:00")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.SlotTaken(context.Background(), "2026-10-21", "10:00")
	require.NoError(t, err)
	assert.False(t, taken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryInsertAndGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO meetings")).
		WithArgs("Triage drill", "2026-10-20", "10:00", "Mass casualty triage", "Dr. Rao", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE m.id = $1")).
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows(joinedColumns).
			AddRow(12, "Triage drill", "2026-10-20", "10:00", "Mass casualty triage", "Dr. Rao", 1, "Dr. Admin", "admin", created))

	repo := NewRepository(db)
	id, err := repo.Insert(context.Background(), NewMeeting{
		Name: "Triage drill", Date: "2026-10-20", Time: "10:00", Topic: "Mass casualty triage", Hosters: "Dr. Rao", CreatedBy: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	m, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Admin", m.CreatedByName)
	assert.Equal(t, "10:00", m.Time)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY m.date DESC, m.time DESC")).
		WillReturnRows(sqlmock.NewRows(joinedColumns).
			AddRow(2, "B", "2026-11-01", "09:00", "topic b long", "h", 1, "Dr. Admin", "admin", created).
			AddRow(1, "A", "2026-10-01", "09:00", "topic a long", "h", 1, "Dr. Admin", "admin", created))

	list, err := NewRepository(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
