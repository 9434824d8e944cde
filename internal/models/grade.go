package models

import "time"

// Grade represents a scored assignment for a student in a course.
// (student_id, course_id, assignment_name) is the import reconciliation key.
type Grade struct {
	ID             string     `db:"id" json:"id"`
	StudentID      string     `db:"student_id" json:"student_id"`
	CourseID       string     `db:"course_id" json:"course_id"`
	AssignmentName string     `db:"assignment_name" json:"assignment_name"`
	Category       string     `db:"category" json:"category"`
	Grade          float64    `db:"grade" json:"grade"`
	MaxGrade       float64    `db:"max_grade" json:"max_grade"`
	Weight         float64    `db:"weight" json:"weight"`
	DateAssigned   *time.Time `db:"date_assigned" json:"date_assigned,omitempty"`
	DateSubmitted  *time.Time `db:"date_submitted" json:"date_submitted,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Percentage converts the raw score to a 0-100 scale. Returns 0 when
// max_grade is not positive.
func (g Grade) Percentage() float64 {
	if g.MaxGrade <= 0 {
		return 0
	}
	return g.Grade / g.MaxGrade * 100
}
