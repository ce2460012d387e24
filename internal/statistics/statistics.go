// Package statistics aggregates uploaded per-meeting records for reporting.
package statistics

import (
	"context"
	"math"
	"time"

	"mediguru/internal/apperr"
	"mediguru/internal/record"
)

// Store reads the detail tables.
type Store interface {
	Registrants(ctx context.Context, meetingID int64) ([]record.Registrant, error)
	TestResults(ctx context.Context, kind record.Kind, meetingID int64) ([]record.TestResult, error)
	Attendance(ctx context.Context, meetingID int64) ([]record.AttendanceEntry, error)
}

// Report is the statistics for one kind of one meeting.
type Report struct {
	Type       record.Kind `json:"type"`
	MeetingID  int64       `json:"meeting_id"`
	Data       any         `json:"data"`
	Statistics any         `json:"statistics"`
}

type RegisteredRow struct {
	Name        string `json:"name"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
	Block       string `json:"block"`
	Phone       string `json:"phone"`
	Status      string `json:"status"`
}

type RegisteredStats struct {
	TotalRegistered int `json:"total_registered"`
}

type ScoreRow struct {
	Name       string    `json:"name"`
	Department string    `json:"department"`
	Score      int       `json:"score"`
	TotalMarks int       `json:"total_marks"`
	Percentage float64   `json:"percentage"`
	RecordedAt time.Time `json:"recorded_at"`
}

type ScoreStats struct {
	TotalParticipants int     `json:"total_participants"`
	AverageScore      float64 `json:"average_score"`
	HighestScore      float64 `json:"highest_score"`
	LowestScore       float64 `json:"lowest_score"`
}

type AttendanceRow struct {
	Name         string    `json:"name"`
	LoginTime    string    `json:"login_time"`
	AttendedTime string    `json:"attended_time"`
	RecordedAt   time.Time `json:"recorded_at"`
}

type AttendanceStats struct {
	TotalAttendees    int     `json:"total_attendees"`
	ExpectedAttendees int     `json:"expected_attendees"`
	AttendanceRate    float64 `json:"attendance_rate"`
}

// Service computes per-meeting statistics.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Compute returns the rows and aggregate figures of one kind for a meeting.
func (s *Service) Compute(ctx context.Context, meetingID int64, kind record.Kind) (Report, error) {
	rep := Report{Type: kind, MeetingID: meetingID}
	switch kind {
	case record.Registered:
		regs, err := s.store.Registrants(ctx, meetingID)
		if err != nil {
			return Report{}, apperr.Storage("Error fetching statistics", err)
		}
		rows := make([]RegisteredRow, 0, len(regs))
		for _, r := range regs {
			rows = append(rows, RegisteredRow{
				Name:        r.Name,
				Department:  r.Designation,
				Designation: r.Designation,
				Block:       r.Block,
				Phone:       r.Phone,
				Status:      "registered",
			})
		}
		rep.Data, rep.Statistics = rows, RegisteredStats{TotalRegistered: len(rows)}

	case record.Pretest, record.Posttest:
		results, err := s.store.TestResults(ctx, kind, meetingID)
		if err != nil {
			return Report{}, apperr.Storage("Error fetching statistics", err)
		}
		rows := make([]ScoreRow, 0, len(results))
		pcts := make([]float64, 0, len(results))
		for _, r := range results {
			p := Percentage(r.Score, r.TotalMarks)
			pcts = append(pcts, p)
			rows = append(rows, ScoreRow{
				Name:       r.Name,
				Department: r.Department,
				Score:      r.Score,
				TotalMarks: r.TotalMarks,
				Percentage: p,
				RecordedAt: r.RecordedAt,
			})
		}
		rep.Data, rep.Statistics = rows, Summarize(pcts)

	case record.Attendance:
		entries, err := s.store.Attendance(ctx, meetingID)
		if err != nil {
			return Report{}, apperr.Storage("Error fetching statistics", err)
		}
		rows := make([]AttendanceRow, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, AttendanceRow(e))
		}
		rep.Data, rep.Statistics = rows, AttendanceSummary(len(rows))

	default:
		return Report{}, apperr.Validation("Invalid type. Must be registered, pretest, posttest, or attendance")
	}
	return rep, nil
}

// Percentage is score out of total as a percentage rounded to one decimal.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round1(float64(score) / float64(total) * 100)
}

// Summarize aggregates per-row percentages. An empty set yields zeros.
func Summarize(pcts []float64) ScoreStats {
	st := ScoreStats{TotalParticipants: len(pcts)}
	if len(pcts) == 0 {
		return st
	}
	sum := 0.0
	st.HighestScore, st.LowestScore = pcts[0], pcts[0]
	for _, p := range pcts {
		sum += p
		st.HighestScore = math.Max(st.HighestScore, p)
		st.LowestScore = math.Min(st.LowestScore, p)
	}
	st.AverageScore = round1(sum / float64(len(pcts)))
	return st
}

// AttendanceSummary derives attendance figures from the attendee count.
// There is no capacity model yet: the expected count is the observed count
// (or 1 when nobody attended), so any non-empty meeting reports 100%.
func AttendanceSummary(attendees int) AttendanceStats {
	expected := attendees
	if expected <= 0 {
		expected = 1
	}
	return AttendanceStats{
		TotalAttendees:    attendees,
		ExpectedAttendees: expected,
		AttendanceRate:    round1(float64(attendees) / float64(expected) * 100),
	}
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
