package backup

import (
	"context"
	"fmt"
	"log"

	"mediguru/internal/cloudinary"
	"mediguru/internal/metrics"
	"mediguru/internal/queue"
)

// Uploader pushes one artifact off-host.
type Uploader interface {
	UploadRaw(ctx context.Context, publicID string, data []byte) (*cloudinary.UploadResult, error)
}

// Reader loads a stored artifact.
type Reader interface {
	Read(name string) ([]byte, error)
}

// Mirror copies every announced artifact to the uploader.
type Mirror struct {
	files    Reader
	uploader Uploader
}

// NewMirror creates a mirror.
func NewMirror(files Reader, uploader Uploader) *Mirror {
	return &Mirror{files: files, uploader: uploader}
}

// Run consumes upload events until ctx is done or the queue closes.
// Failures are logged and counted; the loop never stops on one.
func (m *Mirror) Run(ctx context.Context, q queue.Queue) error {
	msgs, err := q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	for msg := range msgs {
		if err := m.Handle(ctx, msg); err != nil {
			metrics.Mirrored.WithLabelValues("failed").Inc()
			log.Printf("backup mirror: %v", err)
			continue
		}
		metrics.Mirrored.WithLabelValues("ok").Inc()
	}
	return ctx.Err()
}

// Handle mirrors the artifact named by one upload event.
func (m *Mirror) Handle(ctx context.Context, msg queue.Message) error {
	ev, err := DecodeUploadEvent(msg)
	if err != nil {
		return err
	}
	body, err := m.files.Read(ev.Artifact)
	if err != nil {
		return fmt.Errorf("read %s: %w", ev.Artifact, err)
	}
	res, err := m.uploader.UploadRaw(ctx, ev.Artifact, body)
	if err != nil {
		return fmt.Errorf("upload %s: %w", ev.Artifact, err)
	}
	log.Printf("backup mirror: meeting %d %s -> %s", ev.MeetingID, ev.Artifact, res.SecureURL)
	return nil
}
