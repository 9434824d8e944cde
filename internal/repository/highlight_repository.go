package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/openscholia/sms-api/internal/models"
)

const highlightColumns = `id, student_id, semester, category, text, rating, is_positive, created_at, updated_at, deleted_at`

// HighlightRepository handles highlight persistence.
type HighlightRepository struct {
	db *sqlx.DB
}

// NewHighlightRepository creates a new highlight repository.
func NewHighlightRepository(db *sqlx.DB) *HighlightRepository {
	return &HighlightRepository{db: db}
}

// FetchByStudentsAndSemester bulk-loads highlights for a student set within
// one semester.
func (r *HighlightRepository) FetchByStudentsAndSemester(ctx context.Context, studentIDs []string, semester string) ([]models.Highlight, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		fmt.Sprintf("SELECT %s FROM highlights WHERE student_id IN (?) AND semester = ?%s", highlightColumns, notDeleted(ctx, "")),
		studentIDs, semester)
	if err != nil {
		return nil, fmt.Errorf("build highlight query: %w", err)
	}
	var highlights []models.Highlight
	if err := r.db.SelectContext(ctx, &highlights, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("fetch highlights: %w", err)
	}
	return highlights, nil
}
