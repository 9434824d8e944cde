package models

import "time"

// CourseEnrollment links a student to a course. (student_id, course_id) is
// unique among live rows.
type CourseEnrollment struct {
	ID         string     `db:"id" json:"id"`
	StudentID  string     `db:"student_id" json:"student_id"`
	CourseID   string     `db:"course_id" json:"course_id"`
	EnrolledAt time.Time  `db:"enrolled_at" json:"enrolled_at"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}
