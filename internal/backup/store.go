// Package backup keeps the raw copy of every bulk upload and mirrors it off-host.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Artifact is the full original submission of one upload.
type Artifact struct {
	OriginalFileName string           `json:"originalFileName"`
	UploadedAt       string           `json:"uploadedAt"`
	UploadedBy       int64            `json:"uploadedBy"`
	MeetingID        int64            `json:"meetingId"`
	FileType         string           `json:"fileType"`
	Data             []map[string]any `json:"data"`
}

// ErrExists is returned by Save when the artifact name is already taken.
var ErrExists = errors.New("backup already exists")

// Name returns the artifact file name for an upload.
func Name(fileType string, meetingID, uploaderID int64, at time.Time) string {
	return NameSeq(fileType, meetingID, uploaderID, at, 0)
}

// NameSeq is Name with a collision counter. seq 0 gives the plain name;
// later uploads within the same second get a _<seq> suffix.
func NameSeq(fileType string, meetingID, uploaderID int64, at time.Time, seq int) string {
	if seq == 0 {
		return fmt.Sprintf("%s_%d_%d_%d.json", fileType, meetingID, uploaderID, at.Unix())
	}
	return fmt.Sprintf("%s_%d_%d_%d_%d.json", fileType, meetingID, uploaderID, at.Unix(), seq)
}

// FileStore writes artifacts as JSON files in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes a as a new file called name. An existing file is never
// replaced; Save fails with ErrExists instead.
func (s *FileStore) Save(name string, a Artifact) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(a, "", "    ")
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("write backup %s: %w", name, ErrExists)
	}
	if err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	if _, err := f.Write(body); err != nil {
		f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write backup: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// Read returns the raw bytes of a stored artifact.
func (s *FileStore) Read(name string) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Remove deletes a stored artifact. A missing file is not an error.
func (s *FileStore) Remove(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid backup name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}
