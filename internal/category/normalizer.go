// Package category canonicalizes free-text grade category labels to a closed
// token set. Labels arrive in English or Greek from imports, CRUD payloads
// and evaluation rules; the canonical token is the only key used to match
// rules to records. The synonym and substring tables are data so new locales
// can be added without touching the grade engine.
package category

import "strings"

// Canonical category tokens.
const (
	Midterm       = "midterm"
	Final         = "final"
	Homework      = "homework"
	Project       = "project"
	Lab           = "lab"
	Quiz          = "quiz"
	Participation = "participation"
	Attendance    = "attendance"
)

var punctuationReplacer = strings.NewReplacer(
	":", " ", ";", " ", ",", " ", ".", " ",
	"-", " ", "_", " ", "(", " ", ")", " ",
)

// synonyms maps fully-normalized labels to canonical tokens, EN and EL.
var synonyms = map[string]string{
	"midterm":      Midterm,
	"midterm exam": Midterm,
	"intermediate": Midterm,
	"ενδιάμεση":    Midterm,

	"final":      Final,
	"final exam": Final,
	"τελική":     Final,
	"τελικη":     Final,

	"homework":    Homework,
	"assignment":  Homework,
	"assignments": Homework,
	"εργασία":     Homework,
	"άσκηση":      Homework,

	"project":   Project,
	"πρότζεκτ":  Project,

	"lab":        Lab,
	"lab work":   Lab,
	"εργαστήριο": Lab,

	"quiz":  Quiz,
	"κουίζ": Quiz,
	"τεστ":  Quiz,

	"participation":       Participation,
	"class participation": Participation,
	"συμμετοχή":           Participation,

	"attendance": Attendance,
	"παρουσία":   Attendance,
}

// contains is an ordered substring table checked after the synonym lookup.
// Order matters: "final" must win over generic matches, and the Greek lab
// stem must be tested before the shorter homework stem it contains.
var contains = []struct {
	substr string
	token  string
}{
	{"final", Final},
	{"midterm", Midterm},
	{"ενδιαμεση", Midterm},
	{"εργαστηρ", Lab},
	{"homework", Homework},
	{"assignment", Homework},
	{"εργασ", Homework},
	{"άσκη", Homework},
}

// attendanceLabels are the literal labels (lowercased) that opt a rule into
// the attendance-rate category treatment.
var attendanceLabels = map[string]struct{}{
	"attendance": {},
	"παρουσία":   {},
	"παρουσια":   {},
}

// Normalize canonicalizes a free-text category label. When no table entry
// matches, the cleaned lowercased label is returned unchanged so unknown
// categories still match their own records deterministically.
func Normalize(raw string) string {
	cleaned := clean(raw)
	if cleaned == "" {
		return ""
	}
	if token, ok := synonyms[cleaned]; ok {
		return token
	}
	for _, entry := range contains {
		if strings.Contains(cleaned, entry.substr) {
			return entry.token
		}
	}
	return cleaned
}

// IsAttendanceLabel reports whether the raw rule category is literally the
// attendance label in either language, case-insensitively.
func IsAttendanceLabel(raw string) bool {
	_, ok := attendanceLabels[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}

func clean(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = punctuationReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
