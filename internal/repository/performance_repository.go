package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edupulse-api/internal/models"
)

// PerformanceRepository reads assessment grades owned by the gradebook.
// Queries are written with '?' placeholders and rebound for the active driver.
type PerformanceRepository struct {
	db *sqlx.DB
}

// NewPerformanceRepository instantiates the repository.
func NewPerformanceRepository(db *sqlx.DB) *PerformanceRepository {
	return &PerformanceRepository{db: db}
}

// StudentGrades returns every grade of a student ordered by course then grading time.
func (r *PerformanceRepository) StudentGrades(ctx context.Context, filter models.PerformanceFilter) ([]models.GradeRecord, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT g.id, g.student_id, g.course_id, c.name AS course_name, c.category, g.term_id,
        g.score, g.max_score, g.weight, g.assessment_type, g.graded_at
        FROM assessment_grades g
        JOIN courses c ON c.id = g.course_id
        WHERE g.student_id = ?`)
	args := []interface{}{filter.StudentID}
	if filter.TermID != "" {
		args = append(args, filter.TermID)
		builder.WriteString(" AND g.term_id = ?")
	}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		builder.WriteString(" AND g.course_id = ?")
	}
	builder.WriteString(" ORDER BY c.name ASC, g.course_id ASC, g.graded_at ASC, g.id ASC")

	var records []models.GradeRecord
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(builder.String()), args...); err != nil {
		return nil, fmt.Errorf("query student grades: %w", err)
	}
	return records, nil
}

// ClassAverage returns the mean of per-student percentage averages for a course.
// Grades without a positive max score are excluded.
func (r *PerformanceRepository) ClassAverage(ctx context.Context, courseID, termID string) (*models.ClassAverage, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT COALESCE(AVG(s.avg_pct), 0) AS average, COUNT(*) AS student_count
        FROM (
            SELECT g.student_id, AVG(g.score * 100.0 / g.max_score) AS avg_pct
            FROM assessment_grades g
            WHERE g.course_id = ? AND g.max_score > 0`)
	args := []interface{}{courseID}
	if termID != "" {
		args = append(args, termID)
		builder.WriteString(" AND g.term_id = ?")
	}
	builder.WriteString(" GROUP BY g.student_id) s")

	result := models.ClassAverage{CourseID: courseID}
	if err := r.db.GetContext(ctx, &result, r.db.Rebind(builder.String()), args...); err != nil {
		return nil, fmt.Errorf("query class average: %w", err)
	}
	result.CourseID = courseID
	return &result, nil
}

// ActiveStudents lists students with grades recorded or changed since the given time.
func (r *PerformanceRepository) ActiveStudents(ctx context.Context, since time.Time) ([]string, error) {
	query := r.db.Rebind(`SELECT DISTINCT student_id FROM assessment_grades WHERE updated_at >= ? ORDER BY student_id`)
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, since); err != nil {
		return nil, fmt.Errorf("query active students: %w", err)
	}
	return ids, nil
}
