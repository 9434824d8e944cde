package models

import "time"

// Highlight is a notable observation about a student within a semester.
type Highlight struct {
	ID         string     `db:"id" json:"id"`
	StudentID  string     `db:"student_id" json:"student_id"`
	Semester   string     `db:"semester" json:"semester"`
	Category   string     `db:"category" json:"category"`
	Text       string     `db:"text" json:"text"`
	Rating     int        `db:"rating" json:"rating"`
	IsPositive bool       `db:"is_positive" json:"is_positive"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}
