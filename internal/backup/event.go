package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mediguru/internal/queue"
)

// EventUploadProcessed is the queue message type emitted after a committed upload.
const EventUploadProcessed = "upload.processed"

// UploadEvent announces a committed upload and its backup artifact.
type UploadEvent struct {
	ID         string    `json:"id"`
	Artifact   string    `json:"artifact"`
	MeetingID  int64     `json:"meeting_id"`
	FileType   string    `json:"file_type"`
	UploadedBy int64     `json:"uploaded_by"`
	At         time.Time `json:"at"`
}

// NewUploadEvent stamps a new event with a random id.
func NewUploadEvent(artifact string, meetingID int64, fileType string, uploadedBy int64, at time.Time) UploadEvent {
	return UploadEvent{
		ID:         uuid.NewString(),
		Artifact:   artifact,
		MeetingID:  meetingID,
		FileType:   fileType,
		UploadedBy: uploadedBy,
		At:         at.UTC(),
	}
}

// Message encodes the event for the queue.
func (e UploadEvent) Message() (queue.Message, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return queue.Message{}, err
	}
	return queue.Message{Type: EventUploadProcessed, Body: body}, nil
}

// DecodeUploadEvent reads an event back from a queue message.
func DecodeUploadEvent(msg queue.Message) (UploadEvent, error) {
	if msg.Type != EventUploadProcessed {
		return UploadEvent{}, fmt.Errorf("unexpected message type %q", msg.Type)
	}
	var e UploadEvent
	if err := json.Unmarshal(msg.Body, &e); err != nil {
		return UploadEvent{}, fmt.Errorf("decode upload event: %w", err)
	}
	if e.Artifact == "" {
		return UploadEvent{}, fmt.Errorf("upload event %s has no artifact", e.ID)
	}
	return e, nil
}
