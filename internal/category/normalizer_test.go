package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSynonyms(t *testing.T) {
	cases := map[string]string{
		"Midterm":             Midterm,
		"midterm exam":        Midterm,
		"Intermediate":        Midterm,
		"Ενδιάμεση":           Midterm,
		"Final":               Final,
		"FINAL EXAM":          Final,
		"Τελική":              Final,
		"τελικη":              Final,
		"Homework":            Homework,
		"Assignments":         Homework,
		"Εργασία":             Homework,
		"Άσκηση":              Homework,
		"Project":             Project,
		"Πρότζεκτ":            Project,
		"Lab":                 Lab,
		"Lab Work":            Lab,
		"Εργαστήριο":          Lab,
		"Quiz":                Quiz,
		"Κουίζ":               Quiz,
		"Τεστ":                Quiz,
		"Participation":       Participation,
		"Class Participation": Participation,
		"Συμμετοχή":           Participation,
		"Attendance":          Attendance,
		"Παρουσία":            Attendance,
	}
	for raw, want := range cases {
		assert.Equal(t, want, Normalize(raw), "label %q", raw)
	}
}

func TestNormalizePunctuationAndWhitespace(t *testing.T) {
	assert.Equal(t, Final, Normalize("  Final.Exam  "))
	assert.Equal(t, Midterm, Normalize("midterm-exam"))
	assert.Equal(t, Homework, Normalize("home_work homework"))
	assert.Equal(t, Quiz, Normalize("quiz:"))
}

func TestNormalizeSubstrings(t *testing.T) {
	assert.Equal(t, Midterm, Normalize("2nd midterm retake"))
	assert.Equal(t, Final, Normalize("grand final retake"))
	assert.Equal(t, Homework, Normalize("weekly assignment 3"))
	assert.Equal(t, Homework, Normalize("εργασιες εβδομαδας"))
	// The Greek lab stem contains the homework stem; the lab entry is
	// ordered first and must win.
	assert.Equal(t, Lab, Normalize("εργαστηριο 2"))
}

func TestNormalizeFallsBackToCleanedInput(t *testing.T) {
	assert.Equal(t, "presentation", Normalize("Presentation"))
	assert.Equal(t, "oral exam", Normalize("  Oral---Exam "))
	assert.Equal(t, "", Normalize("   "))
}

func TestNormalizeIsDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, Normalize("Midterm Exam"), Normalize("Midterm Exam"))
	}
}

func TestIsAttendanceLabel(t *testing.T) {
	assert.True(t, IsAttendanceLabel("Attendance"))
	assert.True(t, IsAttendanceLabel(" attendance "))
	assert.True(t, IsAttendanceLabel("Παρουσία"))
	assert.False(t, IsAttendanceLabel("Homework"))
	// Only literal attendance labels opt into the attendance-rate rule,
	// not every label that normalizes to the attendance token.
	assert.False(t, IsAttendanceLabel("attendance rate"))
}
