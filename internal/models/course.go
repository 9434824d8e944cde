package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EvaluationRule is a weighted category definition that drives final-grade
// computation. IncludeDailyPerformance defaults to true and
// DailyPerformanceMultiplier to 1.0 when absent from the stored JSON.
type EvaluationRule struct {
	Category                   string   `json:"category"`
	Weight                     float64  `json:"weight"`
	IncludeDailyPerformance    *bool    `json:"includeDailyPerformance,omitempty"`
	DailyPerformanceMultiplier *float64 `json:"dailyPerformanceMultiplier,omitempty"`
}

// IncludeDaily reports whether daily performance rows feed this rule.
func (r EvaluationRule) IncludeDaily() bool {
	if r.IncludeDailyPerformance == nil {
		return true
	}
	return *r.IncludeDailyPerformance
}

// Multiplier returns the daily performance multiplier, defaulting to 1.0.
func (r EvaluationRule) Multiplier() float64 {
	if r.DailyPerformanceMultiplier == nil {
		return 1.0
	}
	return *r.DailyPerformanceMultiplier
}

// EvaluationRules is the ordered rule list stored as a JSONB column.
type EvaluationRules []EvaluationRule

// Value implements driver.Valuer.
func (r EvaluationRules) Value() (driver.Value, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner.
func (r *EvaluationRules) Scan(src interface{}) error {
	if src == nil {
		*r = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported evaluation_rules type %T", src)
	}
	if len(raw) == 0 {
		*r = nil
		return nil
	}
	return json.Unmarshal(raw, r)
}

// ScheduleSlot is one recurring teaching slot.
type ScheduleSlot struct {
	Day    string `json:"day"`
	Period int    `json:"period"`
	Room   string `json:"room,omitempty"`
}

// TeachingSchedule is the weekly slot list stored as a JSONB column.
type TeachingSchedule []ScheduleSlot

// Value implements driver.Valuer.
func (s TeachingSchedule) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *TeachingSchedule) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported teaching_schedule type %T", src)
	}
	if len(raw) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(raw, s)
}

// Course represents a taught course with its grading configuration.
type Course struct {
	ID               string           `db:"id" json:"id"`
	CourseCode       string           `db:"course_code" json:"course_code"`
	CourseName       string           `db:"course_name" json:"course_name"`
	Semester         string           `db:"semester" json:"semester"`
	Credits          int              `db:"credits" json:"credits"`
	HoursPerWeek     int              `db:"hours_per_week" json:"hours_per_week"`
	PeriodsPerWeek   int              `db:"periods_per_week" json:"periods_per_week"`
	EvaluationRules  EvaluationRules  `db:"evaluation_rules" json:"evaluation_rules"`
	AbsencePenalty   float64          `db:"absence_penalty" json:"absence_penalty"`
	TeachingSchedule TeachingSchedule `db:"teaching_schedule" json:"teaching_schedule"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
	DeletedAt        *time.Time       `db:"deleted_at" json:"deleted_at,omitempty"`
}

// CourseFilter encapsulates allowed search parameters for listing courses.
type CourseFilter struct {
	Semester string
	Search   string
	Page     int
	PageSize int
}
