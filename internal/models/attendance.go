package models

import (
	"strings"
	"time"
)

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "Present"
	AttendanceStatusAbsent  AttendanceStatus = "Absent"
	AttendanceStatusLate    AttendanceStatus = "Late"
	AttendanceStatusExcused AttendanceStatus = "Excused"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusExcused:
		return true
	default:
		return false
	}
}

// Is compares statuses case-insensitively, matching the lenient comparison
// used by the grade engine.
func (s AttendanceStatus) Is(other AttendanceStatus) bool {
	return strings.EqualFold(string(s), string(other))
}

// Attendance records presence for one period of one course day.
// (student_id, course_id, date, period_number) is unique.
type Attendance struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	CourseID     string           `db:"course_id" json:"course_id"`
	Date         time.Time        `db:"date" json:"date"`
	PeriodNumber int              `db:"period_number" json:"period_number"`
	Status       AttendanceStatus `db:"status" json:"status"`
	Notes        *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
	DeletedAt    *time.Time       `db:"deleted_at" json:"deleted_at,omitempty"`
}
