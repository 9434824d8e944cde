package models

import "time"

// StoreDumpVersion is stamped on backup artifacts so restores can detect
// incompatible dumps.
const StoreDumpVersion = "1.0"

// StoreDump is a complete snapshot of every persisted row, including
// soft-deleted ones, serialized into a backup artifact before destructive
// operations.
type StoreDump struct {
	Version          string             `json:"version"`
	CreatedAt        time.Time          `json:"created_at"`
	Students         []Student          `json:"students"`
	Courses          []Course           `json:"courses"`
	Enrollments      []CourseEnrollment `json:"enrollments"`
	Grades           []Grade            `json:"grades"`
	Attendance       []Attendance       `json:"attendance"`
	DailyPerformance []DailyPerformance `json:"daily_performance"`
	Highlights       []Highlight        `json:"highlights"`
}

// RowCounts tallies dump contents per entity group.
func (d *StoreDump) RowCounts() map[string]int {
	return map[string]int{
		"students":          len(d.Students),
		"courses":           len(d.Courses),
		"enrollments":       len(d.Enrollments),
		"grades":            len(d.Grades),
		"attendance":        len(d.Attendance),
		"daily_performance": len(d.DailyPerformance),
		"highlights":        len(d.Highlights),
	}
}

// RollbackResult is the response payload of a backup restore.
type RollbackResult struct {
	Success        bool           `json:"success"`
	BackupFile     string         `json:"backup_file"`
	SafetyBackup   string         `json:"safety_backup,omitempty"`
	RestoredCounts map[string]int `json:"restored_counts,omitempty"`
	RestoredAt     time.Time      `json:"restored_at"`
}
