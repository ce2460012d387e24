package meeting

import (
	"context"
	"database/sql"
	"errors"
)

const selectJoined = `
	SELECT m.id, m.name, to_char(m.date, 'YYYY-MM-DD'), to_char(m.time, 'HH24:MI'),
	       m.topic, m.hosters, m.created_by, u.name, u.role, m.created_at
	FROM meetings m
	JOIN users u ON m.created_by = u.id`

// Repository persists meetings in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SlotTaken reports whether a meeting already occupies the date and time.
func (r *Repository) SlotTaken(ctx context.Context, date, clock string) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM meetings WHERE date = $1::date AND time = $2::time LIMIT 1
	`, date, clock).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Insert writes a new meeting and returns its id.
func (r *Repository) Insert(ctx context.Context, m NewMeeting) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO meetings (name, date, time, topic, hosters, created_by)
		VALUES ($1, $2::date, $3::time, $4, $5, $6)
		RETURNING id
	`, m.Name, m.Date, m.Time, m.Topic, m.Hosters, m.CreatedBy).Scan(&id)
	return id, err
}

// Get returns a meeting joined with its creator, or nil when none exists.
func (r *Repository) Get(ctx context.Context, id int64) (*Meeting, error) {
	row := r.db.QueryRowContext(ctx, selectJoined+` WHERE m.id = $1`, id)
	m, err := scanMeeting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns every meeting, latest slot first.
func (r *Repository) List(ctx context.Context) ([]Meeting, error) {
	rows, err := r.db.QueryContext(ctx, selectJoined+` ORDER BY m.date DESC, m.time DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeeting(s scanner) (Meeting, error) {
	var m Meeting
	err := s.Scan(&m.ID, &m.Name, &m.Date, &m.Time, &m.Topic, &m.Hosters, &m.CreatedBy, &m.CreatedByName, &m.CreatedByRole, &m.CreatedAt)
	return m, err
}
