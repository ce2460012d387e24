package ingest

import (
	"errors"
	"math"
	"strconv"

	"mediguru/internal/record"
	"mediguru/internal/validate"
)

// Spreadsheet exports label the same column differently, so each logical
// field lists the headers it may arrive under, in priority order.
var (
	nameKeys         = []string{"Name", "name", "participant_name"}
	testNameKeys     = []string{"Name", "name"}
	designationKeys  = []string{"Designation", "designation", "Department", "department"}
	blockKeys        = []string{"Block", "block", "Location", "location"}
	phoneKeys        = []string{"Phone", "phone", "mobile", "Mobile"}
	loginTimeKeys    = []string{"Login Time", "login_time", "Login_Time"}
	attendedTimeKeys = []string{"Duration", "duration", "attended_time", "Attended_Time"}
	departmentKeys   = []string{"Department", "department"}
	scoreKeys        = []string{"Score", "score"}
	totalMarksKeys   = []string{"Total Marks", "total_marks", "Total"}
)

// Row is one validated input row, ready to insert. Exactly one field is set.
type Row struct {
	Registrant *record.Registrant
	Test       *record.TestResult
	Attendance *record.AttendanceEntry
}

// pick returns the first non-empty value among keys.
func pick(raw map[string]any, keys []string) string {
	for _, k := range keys {
		if v := validate.Text(raw[k]); v != "" {
			return v
		}
	}
	return ""
}

// parseRow resolves and checks one input row of the given kind.
func parseRow(kind record.Kind, raw map[string]any) (Row, error) {
	switch kind {
	case record.Registered:
		reg := record.Registrant{
			Name:        pick(raw, nameKeys),
			Designation: pick(raw, designationKeys),
			Block:       pick(raw, blockKeys),
			Phone:       pick(raw, phoneKeys),
		}
		if reg.Name == "" {
			return Row{}, errors.New("Name is required")
		}
		if reg.Designation == "" {
			return Row{}, errors.New("Designation is required")
		}
		return Row{Registrant: &reg}, nil

	case record.Attendance:
		e := record.AttendanceEntry{
			Name:         pick(raw, nameKeys),
			LoginTime:    pick(raw, loginTimeKeys),
			AttendedTime: pick(raw, attendedTimeKeys),
		}
		if e.Name == "" {
			return Row{}, errors.New("Name is required")
		}
		if e.LoginTime == "" {
			return Row{}, errors.New("Login Time is required")
		}
		if e.AttendedTime == "" {
			return Row{}, errors.New("Duration is required")
		}
		return Row{Attendance: &e}, nil

	case record.Pretest, record.Posttest:
		score, scoreErr := toInt(pick(raw, scoreKeys))
		total, totalErr := toInt(pick(raw, totalMarksKeys))
		tr := record.TestResult{
			Name:       pick(raw, testNameKeys),
			Department: pick(raw, departmentKeys),
			Score:      score,
			TotalMarks: total,
		}
		if tr.Name == "" {
			return Row{}, errors.New("Name is required")
		}
		if scoreErr != nil {
			return Row{}, errors.New("Score is out of range")
		}
		if tr.Score < 0 {
			return Row{}, errors.New("Score cannot be negative")
		}
		if totalErr != nil {
			return Row{}, errors.New("Total Marks is out of range")
		}
		if tr.TotalMarks == 0 {
			tr.TotalMarks = inferTotalMarks(tr.Score)
		}
		return Row{Test: &tr}, nil
	}
	return Row{}, errors.New("unsupported type " + string(kind))
}

// inferTotalMarks guesses the maximum marks of a test whose sheet has no
// total column. The thresholds are a placeholder carried over unchanged so
// reported percentages stay stable; a score above 100 is its own total.
func inferTotalMarks(score int) int {
	switch {
	case score <= 20:
		return 20
	case score <= 50:
		return 50
	case score <= 100:
		return 100
	default:
		return score
	}
}

var errOutOfRange = errors.New("value out of range")

// toInt reads a cell as an integer the way a spreadsheet cast would:
// fractions are truncated, a leading integer prefix is honoured and
// anything else is 0. Values that do not fit an INTEGER column fail.
func toInt(s string) (int, error) {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
			return 0, errOutOfRange
		}
		return int(f), nil
	}
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, nil
	}
	n, err := strconv.ParseInt(s[:i], 10, 32)
	if err != nil {
		return 0, errOutOfRange
	}
	return int(n), nil
}
