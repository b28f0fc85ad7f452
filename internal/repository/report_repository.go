package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-records-api/internal/models"
)

// ReportRepository aggregates cross-entity counts for dashboards and
// drill-down reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// CountStudents counts non-deleted students.
func (r *ReportRepository) CountStudents(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM students WHERE is_deleted = FALSE`); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// CountClasses counts all classes.
func (r *ReportRepository) CountClasses(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM classes`); err != nil {
		return 0, fmt.Errorf("count classes: %w", err)
	}
	return count, nil
}

// CountSubjects counts all subjects.
func (r *ReportRepository) CountSubjects(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM subjects`); err != nil {
		return 0, fmt.Errorf("count subjects: %w", err)
	}
	return count, nil
}

// CountTeachers counts active users holding the TEACHER role.
func (r *ReportRepository) CountTeachers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE is_active = TRUE AND $1 = ANY(roles)`, string(models.RoleTeacher)); err != nil {
		return 0, fmt.Errorf("count teachers: %w", err)
	}
	return count, nil
}

// GradeDistribution returns enrolled student counts per grade.
func (r *ReportRepository) GradeDistribution(ctx context.Context) ([]models.GradeDistribution, error) {
	const query = `SELECT g.id AS grade_id, g.name AS grade_name, COUNT(e.id) AS student_count
        FROM grades g
        LEFT JOIN classes c ON c.grade_id = g.id
        LEFT JOIN class_enrollments e ON e.class_id = c.id
        GROUP BY g.id, g.name, g.level
        ORDER BY g.level ASC`
	var rows []models.GradeDistribution
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("grade distribution: %w", err)
	}
	return rows, nil
}

// ListYears returns academic years with their class counts.
func (r *ReportRepository) ListYears(ctx context.Context) ([]models.HierarchyYear, error) {
	const query = `SELECT y.id, y.name, y.start_date, y.end_date, y.is_current, y.created_at, y.updated_at,
        (SELECT COUNT(*) FROM classes c WHERE c.academic_year_id = y.id) AS class_count
        FROM academic_years y ORDER BY y.start_date DESC`
	var years []models.HierarchyYear
	if err := r.db.SelectContext(ctx, &years, query); err != nil {
		return nil, fmt.Errorf("list report years: %w", err)
	}
	return years, nil
}

// ListGradesByYear returns grade summaries for classes of one year.
func (r *ReportRepository) ListGradesByYear(ctx context.Context, yearID string) ([]models.HierarchyGrade, error) {
	const query = `SELECT g.id AS grade_id, g.name AS grade_name, g.level,
        COUNT(DISTINCT c.id) AS class_count, COUNT(e.id) AS student_count
        FROM grades g
        JOIN classes c ON c.grade_id = g.id AND c.academic_year_id = $1
        LEFT JOIN class_enrollments e ON e.class_id = c.id
        GROUP BY g.id, g.name, g.level
        ORDER BY g.level ASC`
	var grades []models.HierarchyGrade
	if err := r.db.SelectContext(ctx, &grades, query, yearID); err != nil {
		return nil, fmt.Errorf("list report grades: %w", err)
	}
	return grades, nil
}
