package statistics

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediguru/internal/apperr"
	"mediguru/internal/record"
)

type fakeStore struct {
	regs   []record.Registrant
	tests  map[record.Kind][]record.TestResult
	attend []record.AttendanceEntry
	err    error
	lastID int64
}

func (f *fakeStore) Registrants(_ context.Context, id int64) ([]record.Registrant, error) {
	f.lastID = id
	return f.regs, f.err
}

func (f *fakeStore) TestResults(_ context.Context, k record.Kind, id int64) ([]record.TestResult, error) {
	f.lastID = id
	return f.tests[k], f.err
}

func (f *fakeStore) Attendance(_ context.Context, id int64) ([]record.AttendanceEntry, error) {
	f.lastID = id
	return f.attend, f.err
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 80.0, Percentage(16, 20))
	assert.Equal(t, 66.7, Percentage(2, 3))
	assert.Equal(t, 33.3, Percentage(1, 3))
	assert.Equal(t, 150.0, Percentage(150, 100))
	assert.Equal(t, 0.0, Percentage(5, 0))
}

func TestSummarize(t *testing.T) {
	st := Summarize([]float64{80.0, 90.0, 70.0})
	assert.Equal(t, ScoreStats{TotalParticipants: 3, AverageScore: 80.0, HighestScore: 90.0, LowestScore: 70.0}, st)

	assert.Equal(t, ScoreStats{}, Summarize(nil))

	st = Summarize([]float64{66.7, 33.3, 50.0})
	assert.Equal(t, 50.0, st.AverageScore)
}

func TestAttendanceSummary(t *testing.T) {
	assert.Equal(t, AttendanceStats{TotalAttendees: 0, ExpectedAttendees: 1, AttendanceRate: 0}, AttendanceSummary(0))
	assert.Equal(t, AttendanceStats{TotalAttendees: 12, ExpectedAttendees: 12, AttendanceRate: 100}, AttendanceSummary(12))
}

func TestComputePretest(t *testing.T) {
	store := &fakeStore{tests: map[record.Kind][]record.TestResult{
		record.Pretest: {
			{Name: "Asha", Score: 16, TotalMarks: 20},
			{Name: "Bina", Score: 45, TotalMarks: 50},
			{Name: "Chetan", Score: 70, TotalMarks: 100},
		},
	}}

	rep, err := NewService(store).Compute(context.Background(), 5, record.Pretest)
	require.NoError(t, err)
	assert.Equal(t, int64(5), store.lastID)
	assert.Equal(t, record.Pretest, rep.Type)

	rows := rep.Data.([]ScoreRow)
	require.Len(t, rows, 3)
	assert.Equal(t, 80.0, rows[0].Percentage)
	assert.Equal(t, ScoreStats{TotalParticipants: 3, AverageScore: 80.0, HighestScore: 90.0, LowestScore: 70.0}, rep.Statistics)
}

func TestComputeEmptyPosttest(t *testing.T) {
	rep, err := NewService(&fakeStore{}).Compute(context.Background(), 5, record.Posttest)
	require.NoError(t, err)
	assert.Equal(t, []ScoreRow{}, rep.Data)
	assert.Equal(t, ScoreStats{}, rep.Statistics)
}

func TestComputeRegistered(t *testing.T) {
	store := &fakeStore{regs: []record.Registrant{{Name: "Asha", Designation: "Staff Nurse", Block: "B2", Phone: "98765"}}}

	rep, err := NewService(store).Compute(context.Background(), 2, record.Registered)
	require.NoError(t, err)
	assert.Equal(t, []RegisteredRow{{
		Name: "Asha", Department: "Staff Nurse", Designation: "Staff Nurse", Block: "B2", Phone: "98765", Status: "registered",
	}}, rep.Data)
	assert.Equal(t, RegisteredStats{TotalRegistered: 1}, rep.Statistics)
}

func TestComputeAttendance(t *testing.T) {
	store := &fakeStore{attend: []record.AttendanceEntry{
		{Name: "Asha", LoginTime: "09:58", AttendedTime: "118 min"},
		{Name: "Bina", LoginTime: "10:05", AttendedTime: "95 min"},
	}}

	rep, err := NewService(store).Compute(context.Background(), 2, record.Attendance)
	require.NoError(t, err)
	assert.Len(t, rep.Data, 2)
	assert.Equal(t, AttendanceStats{TotalAttendees: 2, ExpectedAttendees: 2, AttendanceRate: 100}, rep.Statistics)
}

func TestComputeErrors(t *testing.T) {
	_, err := NewService(&fakeStore{}).Compute(context.Background(), 2, record.Kind("survey"))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = NewService(&fakeStore{err: errors.New("timeout")}).Compute(context.Background(), 2, record.Registered)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
}

func TestRepositoryTestResults(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM posttest_results")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "department", "score", "total_marks", "recorded_at"}).
			AddRow("Asha", "ICU", 18, 20, at))

	res, err := NewRepository(db).TestResults(context.Background(), record.Posttest, 3)
	require.NoError(t, err)
	assert.Equal(t, []record.TestResult{{Name: "Asha", Department: "ICU", Score: 18, TotalMarks: 20, RecordedAt: at}}, res)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = NewRepository(db).TestResults(context.Background(), record.Registered, 3)
	assert.Error(t, err)
}

func TestRepositoryRegistrantsAndAttendance(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM registered")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "designation", "block", "phone"}).AddRow("Asha", "Nurse", "B1", "1"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM meeting_attendance")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"participant_name", "login_time", "attended_time", "recorded_at"}).AddRow("Asha", "10:00", "90", at))

	repo := NewRepository(db)
	regs, err := repo.Registrants(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, regs, 1)

	att, err := repo.Attendance(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "90", att[0].AttendedTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}
