package ingest

import (
	"context"
	"time"

	"mediguru/internal/apperr"
	"mediguru/internal/record"
)

// Upload status labels.
const (
	LabelUploaded    = "uploaded"
	LabelPending     = "pending"
	LabelNotRequired = "not-required"
)

// Manifest is the per-meeting record of which backup artifact currently
// represents each kind.
type Manifest struct {
	Artifacts map[record.Kind]string
	UpdatedAt time.Time
}

// UploadStatus holds one label per kind, keyed the way the dashboard expects.
type UploadStatus struct {
	RegisteredParticipants string `json:"registeredParticipants"`
	PreTest                string `json:"preTest"`
	Attendance             string `json:"attendance"`
	PostTest               string `json:"postTest"`
}

// FileInfo describes the artifact behind an uploaded kind.
type FileInfo struct {
	Filename    string    `json:"filename"`
	UploadedAt  time.Time `json:"uploaded_at"`
	RecordCount int       `json:"record_count"`
}

// Summary holds the live row count per kind.
type Summary struct {
	RegisteredCount int `json:"registered_count"`
	AttendanceCount int `json:"attendance_count"`
	PretestCount    int `json:"pretest_count"`
	PosttestCount   int `json:"posttest_count"`
}

// StatusReport is the upload roll-up for one meeting.
type StatusReport struct {
	MeetingID    int64               `json:"meeting_id"`
	UploadStatus UploadStatus        `json:"upload_status"`
	FileInfo     map[string]FileInfo `json:"file_info"`
	Summary      Summary             `json:"summary"`
}

// Label derives the status of a kind from its row count. Registration and
// attendance are expected for every meeting, the tests are optional.
func Label(kind record.Kind, count int) string {
	if count > 0 {
		return LabelUploaded
	}
	if kind == record.Registered || kind == record.Attendance {
		return LabelPending
	}
	return LabelNotRequired
}

// Status reads the manifest and live counts for a meeting.
func (s *Service) Status(ctx context.Context, meetingID int64) (StatusReport, error) {
	if meetingID <= 0 {
		return StatusReport{}, apperr.Validation("Meeting ID is required")
	}
	man, err := s.store.Manifest(ctx, meetingID)
	if err != nil {
		return StatusReport{}, apperr.Storage("Error fetching upload status", err)
	}
	counts := make(map[record.Kind]int, len(record.Kinds))
	for _, k := range record.Kinds {
		n, err := s.store.Count(ctx, k, meetingID)
		if err != nil {
			return StatusReport{}, apperr.Storage("Error fetching upload status", err)
		}
		counts[k] = n
	}

	rep := StatusReport{
		MeetingID: meetingID,
		UploadStatus: UploadStatus{
			RegisteredParticipants: Label(record.Registered, counts[record.Registered]),
			PreTest:                Label(record.Pretest, counts[record.Pretest]),
			Attendance:             Label(record.Attendance, counts[record.Attendance]),
			PostTest:               Label(record.Posttest, counts[record.Posttest]),
		},
		FileInfo: map[string]FileInfo{},
		Summary: Summary{
			RegisteredCount: counts[record.Registered],
			AttendanceCount: counts[record.Attendance],
			PretestCount:    counts[record.Pretest],
			PosttestCount:   counts[record.Posttest],
		},
	}
	if man != nil {
		for _, k := range record.Kinds {
			if a := man.Artifacts[k]; a != "" {
				rep.FileInfo[string(k)] = FileInfo{Filename: a, UploadedAt: man.UpdatedAt, RecordCount: counts[k]}
			}
		}
	}
	return rep, nil
}
