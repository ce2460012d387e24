package statistics

import (
	"context"
	"database/sql"
	"fmt"

	"mediguru/internal/record"
)

// Repository reads detail rows from Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Registrants returns the roster for a meeting ordered by name.
func (r *Repository) Registrants(ctx context.Context, meetingID int64) ([]record.Registrant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, designation, block, phone
		FROM registered
		WHERE m_id = $1
		ORDER BY name ASC
	`, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []record.Registrant
	for rows.Next() {
		var reg record.Registrant
		if err := rows.Scan(&reg.Name, &reg.Designation, &reg.Block, &reg.Phone); err != nil {
			return nil, err
		}
		res = append(res, reg)
	}
	return res, rows.Err()
}

// TestResults returns pretest or posttest scores for a meeting ordered by name.
func (r *Repository) TestResults(ctx context.Context, kind record.Kind, meetingID int64) ([]record.TestResult, error) {
	if kind != record.Pretest && kind != record.Posttest {
		return nil, fmt.Errorf("no test results for kind %q", kind)
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, department, score, total_marks, recorded_at
		FROM `+kind.Table()+`
		WHERE meeting_id = $1
		ORDER BY name ASC
	`, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []record.TestResult
	for rows.Next() {
		var tr record.TestResult
		if err := rows.Scan(&tr.Name, &tr.Department, &tr.Score, &tr.TotalMarks, &tr.RecordedAt); err != nil {
			return nil, err
		}
		res = append(res, tr)
	}
	return res, rows.Err()
}

// Attendance returns attendance entries for a meeting ordered by participant.
func (r *Repository) Attendance(ctx context.Context, meetingID int64) ([]record.AttendanceEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT participant_name, login_time, attended_time, recorded_at
		FROM meeting_attendance
		WHERE meeting_id = $1
		ORDER BY participant_name ASC
	`, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []record.AttendanceEntry
	for rows.Next() {
		var e record.AttendanceEntry
		if err := rows.Scan(&e.Name, &e.LoginTime, &e.AttendedTime, &e.RecordedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
