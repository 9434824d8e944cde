package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/openscholia/sms-api/pkg/errors"
	"github.com/openscholia/sms-api/pkg/export"
)

// Report formats accepted by the rendering endpoints.
const (
	ReportFormatCSV = "csv"
	ReportFormatPDF = "pdf"
)

// ReportStorage persists rendered report files.
type ReportStorage interface {
	Save(filename string, data []byte) (string, error)
}

// RenderedReport is a rendered document ready for download.
type RenderedReport struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
	StoredAt    string `json:"stored_at,omitempty"`
}

// ReportService renders transcript and comparison reports into CSV or PDF
// documents, reusing the analytics roll-ups as its only data source.
type ReportService struct {
	summaries   *SummaryService
	comparisons *ComparisonService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	storage     ReportStorage
	logger      *zap.Logger
	now         func() time.Time
}

// NewReportService constructs a report service.
func NewReportService(summaries *SummaryService, comparisons *ComparisonService, storage ReportStorage, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		summaries:   summaries,
		comparisons: comparisons,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		storage:     storage,
		logger:      logger,
		now:         time.Now,
	}
}

// StudentTranscript renders a student's transcript roll-up.
func (s *ReportService) StudentTranscript(ctx context.Context, studentID, format string) (*RenderedReport, error) {
	format, err := normalizeFormat(format)
	if err != nil {
		return nil, err
	}
	summary, _, err := s.summaries.StudentSummary(ctx, studentID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Course Code", "Course Name", "Credits", "Final Grade", "Letter", "GPA"},
	}
	for _, c := range summary.Courses {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Course Code": c.CourseCode,
			"Course Name": c.CourseName,
			"Credits":     fmt.Sprintf("%d", c.Credits),
			"Final Grade": fmt.Sprintf("%.2f", c.FinalGrade),
			"Letter":      c.LetterGrade,
			"GPA":         fmt.Sprintf("%.2f", c.GPA),
		})
	}
	dataset.Rows = append(dataset.Rows, map[string]string{
		"Course Code": "TOTAL",
		"Credits":     fmt.Sprintf("%d", summary.TotalCredits),
		"GPA":         fmt.Sprintf("%.2f", summary.OverallGPA),
	})

	title := fmt.Sprintf("Transcript %s (%s)", summary.Student.Name, summary.Student.StudentID)
	return s.render(dataset, title, fmt.Sprintf("transcript_%s", sanitizeLabel(summary.Student.StudentID)), format)
}

// CourseComparison renders the class ranking for one course.
func (s *ReportService) CourseComparison(ctx context.Context, courseID, format string) (*RenderedReport, error) {
	format, err := normalizeFormat(format)
	if err != nil {
		return nil, err
	}
	report, _, err := s.comparisons.StudentsComparison(ctx, courseID, 0)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Rank", "Student ID", "Name", "Average", "Grades", "Letter"},
	}
	for i, row := range report.Students {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Rank":       fmt.Sprintf("%d", i+1),
			"Student ID": row.StudentID,
			"Name":       row.Name,
			"Average":    fmt.Sprintf("%.2f", row.AveragePercentage),
			"Grades":     fmt.Sprintf("%d", row.GradeCount),
			"Letter":     row.LetterGrade,
		})
	}

	title := fmt.Sprintf("Class Ranking %s", report.CourseCode)
	return s.render(dataset, title, fmt.Sprintf("comparison_%s", sanitizeLabel(report.CourseCode)), format)
}

func (s *ReportService) render(dataset export.Dataset, title, stem, format string) (*RenderedReport, error) {
	var (
		data []byte
		err  error
	)
	contentType := "text/csv"
	if format == ReportFormatPDF {
		contentType = "application/pdf"
		data, err = s.pdf.Render(dataset, title)
	} else {
		data, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s report: %w", format, err)
	}

	filename := fmt.Sprintf("%s_%s.%s", stem, s.now().UTC().Format("20060102_150405"), format)
	result := &RenderedReport{Filename: filename, ContentType: contentType, Data: data}
	if s.storage != nil {
		stored, err := s.storage.Save(filename, data)
		if err != nil {
			s.logger.Warn("store report", zap.String("filename", filename), zap.Error(err))
		} else {
			result.StoredAt = stored
		}
	}
	return result, nil
}

func normalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", ReportFormatCSV:
		return ReportFormatCSV, nil
	case ReportFormatPDF:
		return ReportFormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format))
	}
}
