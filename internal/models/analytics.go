package models

import "time"

// SystemMetrics is a lightweight instrumentation snapshot for operational
// endpoints.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// CategoryBreakdown shows how one evaluation rule contributed to the final
// grade.
type CategoryBreakdown struct {
	Average      float64 `json:"average"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
	TotalItems   int     `json:"total_items"`
}

// FinalGradeResult is the full output of the weighted final-grade
// computation for one student in one course.
type FinalGradeResult struct {
	FinalGrade        float64                      `json:"final_grade"`
	Percentage        float64                      `json:"percentage"`
	LetterGrade       string                       `json:"letter_grade"`
	GPA               float64                      `json:"gpa"`
	GreekGrade        float64                      `json:"greek_grade"`
	TotalWeightUsed   float64                      `json:"total_weight_used"`
	CategoryBreakdown map[string]CategoryBreakdown `json:"category_breakdown"`
	AbsencePenalty    float64                      `json:"absence_penalty"`
	UnexcusedAbsences int                          `json:"unexcused_absences"`
	AbsenceDeduction  float64                      `json:"absence_deduction"`
}

// StudentCourseSummary is one course line of a student transcript.
type StudentCourseSummary struct {
	CourseCode  string  `json:"course_code"`
	CourseName  string  `json:"course_name"`
	Credits     int     `json:"credits"`
	FinalGrade  float64 `json:"final_grade"`
	GPA         float64 `json:"gpa"`
	LetterGrade string  `json:"letter_grade"`
}

// StudentSummary is the credit-weighted roll-up across all of a student's
// courses.
type StudentSummary struct {
	Student      StudentRef             `json:"student"`
	OverallGPA   float64                `json:"overall_gpa"`
	TotalCredits int                    `json:"total_credits"`
	Courses      []StudentCourseSummary `json:"courses"`
}

// CoursePerformance is a per-course average within a lookback window.
type CoursePerformance struct {
	CourseID   string  `json:"course_id"`
	CourseCode string  `json:"course_code"`
	CourseName string  `json:"course_name"`
	Average    float64 `json:"average"`
	GradeCount int     `json:"grade_count"`
}

// PerformanceReport groups recent grades per course.
type PerformanceReport struct {
	StudentID      string              `json:"student_id"`
	DaysBack       int                 `json:"days_back"`
	Courses        []CoursePerformance `json:"courses"`
	OverallAverage float64             `json:"overall_average"`
}

// TrendPoint is one grade in chronological trend order.
type TrendPoint struct {
	AssignmentName string  `json:"assignment_name"`
	Category       string  `json:"category"`
	Percentage     float64 `json:"percentage"`
	DateSubmitted  *Date   `json:"date_submitted"`
}

// Trend direction labels.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// TrendReport carries the recent grade series with its moving average and
// direction label.
type TrendReport struct {
	StudentID     string       `json:"student_id"`
	Points        []TrendPoint `json:"points"`
	MovingAverage float64      `json:"moving_average"`
	Direction     string       `json:"direction"`
}

// ComparisonRow ranks one student within a course.
type ComparisonRow struct {
	StudentID         string  `json:"student_id"`
	Name              string  `json:"name"`
	AveragePercentage float64 `json:"average_percentage"`
	GradeCount        int     `json:"grade_count"`
	LetterGrade       string  `json:"letter_grade"`
}

// ClassStats summarises the course-average distribution.
type ClassStats struct {
	Average      float64 `json:"average"`
	Median       float64 `json:"median"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	StudentCount int     `json:"student_count"`
}

// ComparisonReport is the class ranking for one course.
type ComparisonReport struct {
	CourseID   string          `json:"course_id"`
	CourseCode string          `json:"course_code"`
	Students   []ComparisonRow `json:"students"`
	ClassStats ClassStats      `json:"class_stats"`
}

// DistributionBucket is one histogram bucket of the grade distribution.
type DistributionBucket struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DistributionReport buckets every grade percentage of a course.
type DistributionReport struct {
	CourseID          string                        `json:"course_id"`
	CourseCode        string                        `json:"course_code"`
	Buckets           map[string]DistributionBucket `json:"buckets"`
	AveragePercentage float64                       `json:"average_percentage"`
	TotalGrades       int                           `json:"total_grades"`
}
