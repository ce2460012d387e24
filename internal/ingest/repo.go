package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mediguru/internal/record"
)

// Repository implements Store on Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// WithTx runs fn in a transaction, committing only when fn returns nil.
func (r *Repository) WithTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(&sqlTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Manifest returns the files row of a meeting, or nil when none exists.
func (r *Repository) Manifest(ctx context.Context, meetingID int64) (*Manifest, error) {
	var pre, attend, post, registered sql.NullString
	m := &Manifest{}
	err := r.db.QueryRowContext(ctx, `
		SELECT pre_url, attend_url, post_url, registered_url, created_at
		FROM files WHERE m_id = $1
	`, meetingID).Scan(&pre, &attend, &post, &registered, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.Artifacts = map[record.Kind]string{
		record.Pretest:    pre.String,
		record.Attendance: attend.String,
		record.Posttest:   post.String,
		record.Registered: registered.String,
	}
	return m, nil
}

// Count returns the number of detail rows of kind for a meeting.
func (r *Repository) Count(ctx context.Context, kind record.Kind, meetingID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+kind.Table()+` WHERE `+kind.MeetingColumn()+` = $1`, meetingID,
	).Scan(&n)
	return n, err
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) DeleteRows(ctx context.Context, kind record.Kind, meetingID int64) error {
	_, err := t.tx.ExecContext(ctx,
		`DELETE FROM `+kind.Table()+` WHERE `+kind.MeetingColumn()+` = $1`, meetingID)
	return err
}

// InsertRow inserts under a savepoint so a rejected row leaves the
// transaction usable. Such failures come back as *RowError.
func (t *sqlTx) InsertRow(ctx context.Context, kind record.Kind, meetingID, uploaderID int64, row Row) error {
	if _, err := t.tx.ExecContext(ctx, `SAVEPOINT ingest_row`); err != nil {
		return err
	}
	if err := t.insert(ctx, kind, meetingID, uploaderID, row); err != nil {
		if _, rbErr := t.tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT ingest_row`); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return &RowError{Err: err}
	}
	_, err := t.tx.ExecContext(ctx, `RELEASE SAVEPOINT ingest_row`)
	return err
}

func (t *sqlTx) insert(ctx context.Context, kind record.Kind, meetingID, uploaderID int64, row Row) error {
	switch {
	case kind == record.Registered && row.Registrant != nil:
		r := row.Registrant
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO registered (m_id, name, designation, block, phone)
			VALUES ($1, $2, $3, $4, $5)
		`, meetingID, r.Name, r.Designation, r.Block, r.Phone)
		return err
	case kind == record.Attendance && row.Attendance != nil:
		a := row.Attendance
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO meeting_attendance (meeting_id, participant_name, login_time, attended_time, uploaded_by, recorded_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
		`, meetingID, a.Name, a.LoginTime, a.AttendedTime, uploaderID)
		return err
	case (kind == record.Pretest || kind == record.Posttest) && row.Test != nil:
		tr := row.Test
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO `+kind.Table()+` (meeting_id, name, department, score, total_marks, uploaded_by, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
		`, meetingID, tr.Name, tr.Department, tr.Score, tr.TotalMarks, uploaderID)
		return err
	}
	return fmt.Errorf("row does not match type %s", kind)
}

// UpsertManifest points the kind's manifest column at artifact, leaving the
// other columns untouched.
func (t *sqlTx) UpsertManifest(ctx context.Context, meetingID int64, kind record.Kind, artifact string) error {
	col := kind.ManifestColumn()
	if col == "" {
		return fmt.Errorf("no manifest column for %s", kind)
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO files (m_id, `+col+`, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (m_id) DO UPDATE SET `+col+` = EXCLUDED.`+col+`, created_at = NOW()
	`, meetingID, artifact)
	return err
}
