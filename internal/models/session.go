package models

import "time"

// SessionPackageVersion is the wire version stamped on exported packages.
const SessionPackageVersion = "1.0"

// SessionMetadata describes one exported semester package.
type SessionMetadata struct {
	Semester   string         `json:"semester"`
	ExportedAt time.Time      `json:"exported_at"`
	Version    string         `json:"version"`
	Counts     map[string]int `json:"counts"`
}

// SessionCourse is a course serialized for transport. Cross-references use
// natural keys so packages stay portable across installations.
type SessionCourse struct {
	CourseCode       string           `json:"course_code"`
	CourseName       string           `json:"course_name"`
	Semester         string           `json:"semester"`
	Credits          int              `json:"credits"`
	HoursPerWeek     int              `json:"hours_per_week"`
	PeriodsPerWeek   int              `json:"periods_per_week"`
	EvaluationRules  EvaluationRules  `json:"evaluation_rules"`
	AbsencePenalty   float64          `json:"absence_penalty"`
	TeachingSchedule TeachingSchedule `json:"teaching_schedule"`
}

// SessionStudent is a student serialized for transport.
type SessionStudent struct {
	StudentID      string `json:"student_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	EnrollmentDate *Date  `json:"enrollment_date"`
	StudyYear      int    `json:"study_year"`
	Active         bool   `json:"is_active"`
}

// SessionEnrollment links package entities by natural key.
type SessionEnrollment struct {
	StudentIDRef  string `json:"student_id_ref"`
	CourseCodeRef string `json:"course_code_ref"`
	EnrolledAt    *Date  `json:"enrolled_at"`
}

// SessionGrade is a grade serialized for transport.
type SessionGrade struct {
	StudentIDRef   string  `json:"student_id_ref"`
	CourseCodeRef  string  `json:"course_code_ref"`
	AssignmentName string  `json:"assignment_name"`
	Category       string  `json:"category"`
	Grade          float64 `json:"grade"`
	MaxGrade       float64 `json:"max_grade"`
	Weight         float64 `json:"weight"`
	DateAssigned   *Date   `json:"date_assigned"`
	DateSubmitted  *Date   `json:"date_submitted"`
}

// SessionAttendance is an attendance row serialized for transport.
type SessionAttendance struct {
	StudentIDRef  string  `json:"student_id_ref"`
	CourseCodeRef string  `json:"course_code_ref"`
	Date          Date    `json:"date"`
	PeriodNumber  int     `json:"period_number"`
	Status        string  `json:"status"`
	Notes         *string `json:"notes"`
}

// SessionDailyPerformance is a daily performance row serialized for
// transport.
type SessionDailyPerformance struct {
	StudentIDRef  string  `json:"student_id_ref"`
	CourseCodeRef string  `json:"course_code_ref"`
	Date          Date    `json:"date"`
	Category      string  `json:"category"`
	Score         float64 `json:"score"`
	MaxScore      float64 `json:"max_score"`
	Notes         *string `json:"notes"`
}

// SessionHighlight is a highlight serialized for transport.
type SessionHighlight struct {
	StudentIDRef string `json:"student_id_ref"`
	Semester     string `json:"semester"`
	Category     string `json:"category"`
	Text         string `json:"text"`
	Rating       int    `json:"rating"`
	IsPositive   bool   `json:"is_positive"`
}

// SessionPackage is the JSON artifact produced by Export and consumed by
// Import, containing one semester's worth of data.
type SessionPackage struct {
	Metadata         SessionMetadata           `json:"metadata"`
	Courses          []SessionCourse           `json:"courses"`
	Students         []SessionStudent          `json:"students"`
	Enrollments      []SessionEnrollment       `json:"enrollments"`
	Grades           []SessionGrade            `json:"grades"`
	Attendance       []SessionAttendance       `json:"attendance"`
	DailyPerformance []SessionDailyPerformance `json:"daily_performance"`
	Highlights       []SessionHighlight        `json:"highlights"`
}

// EntityCounts tallies package contents per entity group.
func (p *SessionPackage) EntityCounts() map[string]int {
	return map[string]int{
		"courses":           len(p.Courses),
		"students":          len(p.Students),
		"enrollments":       len(p.Enrollments),
		"grades":            len(p.Grades),
		"attendance":        len(p.Attendance),
		"daily_performance": len(p.DailyPerformance),
		"highlights":        len(p.Highlights),
	}
}

// Merge strategies supported by Import.
const (
	MergeStrategyUpdate = "update"
	MergeStrategySkip   = "skip"
)

// ImportOptions selects import behaviour.
type ImportOptions struct {
	MergeStrategy string `json:"merge_strategy"`
	DryRun        bool   `json:"dry_run"`
}

// ImportGroupSummary counts the outcome for one entity group.
type ImportGroupSummary struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// ImportResult is the response payload of the import pipeline.
type ImportResult struct {
	Success           bool                           `json:"success"`
	DryRun            bool                           `json:"dry_run,omitempty"`
	ValidationPassed  bool                           `json:"validation_passed"`
	ValidationErrors  []string                       `json:"validation_errors,omitempty"`
	CriticalErrors    []string                       `json:"critical_errors,omitempty"`
	Counts            map[string]int                 `json:"counts,omitempty"`
	Summary           map[string]*ImportGroupSummary `json:"summary,omitempty"`
	BackupCreated     bool                           `json:"backup_created"`
	BackupPath        string                         `json:"backup_path,omitempty"`
	RollbackAvailable bool                           `json:"rollback_available"`
}
