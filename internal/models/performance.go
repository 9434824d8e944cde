package models

import "time"

// DailyPerformance is an in-class performance note with an optional score.
// (student_id, course_id, date, category) is unique.
type DailyPerformance struct {
	ID        string     `db:"id" json:"id"`
	StudentID string     `db:"student_id" json:"student_id"`
	CourseID  string     `db:"course_id" json:"course_id"`
	Date      time.Time  `db:"date" json:"date"`
	Category  string     `db:"category" json:"category"`
	Score     float64    `db:"score" json:"score"`
	MaxScore  float64    `db:"max_score" json:"max_score"`
	Notes     *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}
