// Package ingest replaces a meeting's records of one kind with an uploaded sheet.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"mediguru/internal/apperr"
	"mediguru/internal/backup"
	"mediguru/internal/metrics"
	"mediguru/internal/queue"
	"mediguru/internal/record"
)

// RowError marks an insert failure confined to one row. The transaction is
// still usable and the batch continues.
type RowError struct {
	Err error
}

func (e *RowError) Error() string { return e.Err.Error() }
func (e *RowError) Unwrap() error { return e.Err }

// Tx is the write side of one upload, all inside a single transaction.
type Tx interface {
	DeleteRows(ctx context.Context, kind record.Kind, meetingID int64) error
	InsertRow(ctx context.Context, kind record.Kind, meetingID, uploaderID int64, row Row) error
	UpsertManifest(ctx context.Context, meetingID int64, kind record.Kind, artifact string) error
}

// Store is the persistence ingestion and status reporting need.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Manifest(ctx context.Context, meetingID int64) (*Manifest, error)
	Count(ctx context.Context, kind record.Kind, meetingID int64) (int, error)
}

// Backups stores the raw submission next to the database rows.
type Backups interface {
	Save(name string, a backup.Artifact) error
	Remove(name string) error
}

// Upload is one bulk submission.
type Upload struct {
	MeetingID  int64
	Kind       record.Kind
	FileName   string
	UploaderID int64
	Rows       []map[string]any
}

// Result summarises a committed upload.
type Result struct {
	Kind      record.Kind
	FileName  string
	Processed int
	Total     int
	Errors    []string
	SavedFile string
}

// Partial reports whether some rows were rejected.
func (r Result) Partial() bool { return len(r.Errors) > 0 }

// Message is the human readable outcome.
func (r Result) Message() string {
	k := string(r.Kind)
	msg := strings.ToUpper(k[:1]) + k[1:] + " data processed successfully"
	if r.Partial() {
		msg += " with some errors"
	}
	return msg
}

const maxNameAttempts = 100

// Service runs uploads and reports their status.
type Service struct {
	store   Store
	backups Backups
	events  queue.Publisher
	now     func() time.Time
}

// NewService creates a service. events may be nil.
func NewService(store Store, backups Backups, events queue.Publisher) *Service {
	return &Service{store: store, backups: backups, events: events, now: time.Now}
}

// Ingest backs up the submission, then in one transaction deletes the
// meeting's existing rows of that kind, inserts every valid row and points
// the manifest at the new backup. Invalid rows are reported, not fatal.
func (s *Service) Ingest(ctx context.Context, up Upload) (Result, error) {
	if up.MeetingID <= 0 || up.Kind == "" || len(up.Rows) == 0 {
		return Result{}, apperr.Validation("Invalid parameters. meetingId, type, and data are required.")
	}
	if _, ok := record.ParseKind(string(up.Kind)); !ok {
		return Result{}, apperr.Validation("Invalid file type. Must be pretest, attendance, posttest, or registered.")
	}

	now := s.now()
	name, err := s.saveBackup(up, now)
	if err != nil {
		metrics.Uploads.WithLabelValues(string(up.Kind), "failed").Inc()
		return Result{}, apperr.Storage("Processing failed", err)
	}

	var res Result
	err = s.store.WithTx(ctx, func(tx Tx) error {
		res = Result{Kind: up.Kind, FileName: up.FileName, Total: len(up.Rows), Errors: []string{}, SavedFile: name}

		if err := tx.DeleteRows(ctx, up.Kind, up.MeetingID); err != nil {
			return fmt.Errorf("clear %s rows: %w", up.Kind, err)
		}
		for i, raw := range up.Rows {
			// Row numbers match the sheet: 1-based plus the header line.
			line := i + 2
			row, err := parseRow(up.Kind, raw)
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %s", line, err))
				continue
			}
			if err := tx.InsertRow(ctx, up.Kind, up.MeetingID, up.UploaderID, row); err != nil {
				var rowErr *RowError
				if !errors.As(err, &rowErr) {
					return fmt.Errorf("insert row %d: %w", line, err)
				}
				res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %s", line, rowErr))
				continue
			}
			res.Processed++
		}
		if err := tx.UpsertManifest(ctx, up.MeetingID, up.Kind, name); err != nil {
			return fmt.Errorf("update manifest: %w", err)
		}
		return nil
	})
	if err != nil {
		if rmErr := s.backups.Remove(name); rmErr != nil {
			log.Printf("remove backup %s after rollback: %v", name, rmErr)
		}
		metrics.Uploads.WithLabelValues(string(up.Kind), "failed").Inc()
		return Result{}, apperr.Storage("Processing failed", err)
	}

	outcome := "ok"
	if res.Partial() {
		outcome = "partial"
	}
	metrics.Uploads.WithLabelValues(string(up.Kind), outcome).Inc()
	metrics.UploadRows.WithLabelValues(string(up.Kind), "inserted").Add(float64(res.Processed))
	metrics.UploadRows.WithLabelValues(string(up.Kind), "rejected").Add(float64(len(res.Errors)))

	s.announce(ctx, up, name, now)
	return res, nil
}

// saveBackup writes the artifact under a name no other upload holds, so a
// rollback only ever removes its own file.
func (s *Service) saveBackup(up Upload, now time.Time) (string, error) {
	a := backup.Artifact{
		OriginalFileName: up.FileName,
		UploadedAt:       now.Format("2006-01-02 15:04:05"),
		UploadedBy:       up.UploaderID,
		MeetingID:        up.MeetingID,
		FileType:         string(up.Kind),
		Data:             up.Rows,
	}
	for seq := 0; seq < maxNameAttempts; seq++ {
		name := backup.NameSeq(string(up.Kind), up.MeetingID, up.UploaderID, now, seq)
		err := s.backups.Save(name, a)
		if errors.Is(err, backup.ErrExists) {
			continue
		}
		return name, err
	}
	return "", fmt.Errorf("no free backup name for %s after %d attempts", up.Kind, maxNameAttempts)
}

func (s *Service) announce(ctx context.Context, up Upload, artifact string, at time.Time) {
	if s.events == nil {
		return
	}
	msg, err := backup.NewUploadEvent(artifact, up.MeetingID, string(up.Kind), up.UploaderID, at).Message()
	if err != nil {
		log.Printf("encode upload event for %s: %v", artifact, err)
		return
	}
	if err := s.events.Publish(ctx, msg); err != nil {
		log.Printf("queue publish failed for %s: %v", artifact, err)
	}
}
