package meeting

import (
	"time"

	"mediguru/internal/validate"
)

// Status is the lifecycle label derived from a meeting's date.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
)

// Meeting is a scheduled training session joined with its creator.
type Meeting struct {
	ID            int64
	Name          string
	Date          string // YYYY-MM-DD
	Time          string // HH:MM
	Topic         string
	Hosters       string
	CreatedBy     int64
	CreatedByName string
	CreatedByRole string
	CreatedAt     time.Time
	Status        Status
}

// NewMeeting is the validated input for an insert.
type NewMeeting struct {
	Name      string
	Date      string
	Time      string
	Topic     string
	Hosters   string
	CreatedBy int64
}

// StatusOn derives the status of a meeting held on date as seen on today.
// Only the calendar day matters.
func StatusOn(date string, today time.Time) Status {
	t := today.Format(validate.DateLayout)
	switch {
	case date > t:
		return StatusUpcoming
	case date == t:
		return StatusOngoing
	default:
		return StatusCompleted
	}
}
