// Package record names the four per-meeting record kinds and their storage.
package record

import "time"

// Kind is one of the uploadable per-meeting record sets.
type Kind string

const (
	Registered Kind = "registered"
	Pretest    Kind = "pretest"
	Posttest   Kind = "posttest"
	Attendance Kind = "attendance"
)

// Kinds lists every kind in manifest order.
var Kinds = []Kind{Pretest, Attendance, Posttest, Registered}

// ParseKind returns the kind named s.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case Registered, Pretest, Posttest, Attendance:
		return k, true
	}
	return "", false
}

// Table is the detail table holding rows of this kind.
func (k Kind) Table() string {
	switch k {
	case Registered:
		return "registered"
	case Pretest:
		return "pretest_results"
	case Posttest:
		return "posttest_results"
	case Attendance:
		return "meeting_attendance"
	}
	return ""
}

// MeetingColumn is the detail table column referencing the meeting.
func (k Kind) MeetingColumn() string {
	if k == Registered {
		return "m_id"
	}
	return "meeting_id"
}

// ManifestColumn is the files table column tracking this kind's backup artifact.
func (k Kind) ManifestColumn() string {
	switch k {
	case Registered:
		return "registered_url"
	case Pretest:
		return "pre_url"
	case Posttest:
		return "post_url"
	case Attendance:
		return "attend_url"
	}
	return ""
}

// Registrant is a row of the registered roster.
type Registrant struct {
	Name        string
	Designation string
	Block       string
	Phone       string
}

// TestResult is a pre-test or post-test score.
type TestResult struct {
	Name       string
	Department string
	Score      int
	TotalMarks int
	RecordedAt time.Time
}

// AttendanceEntry is one attendee's login record.
type AttendanceEntry struct {
	Name         string
	LoginTime    string
	AttendedTime string
	RecordedAt   time.Time
}
