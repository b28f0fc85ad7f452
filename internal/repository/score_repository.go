package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-records-api/internal/models"
)

// ScoreRepository handles persistence of score entries.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs the repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

const scoreDetailColumns = `sc.id, sc.enrollment_id, sc.subject_id, sc.type, sc.value, sc.semester, sc.created_at, sc.updated_at,
        e.student_id AS student_id, st.student_code AS student_code, st.full_name AS student_name,
        e.class_id AS class_id, c.name AS class_name, su.code AS subject_code, su.name AS subject_name`

const scoreDetailBase = `FROM scores sc
JOIN class_enrollments e ON e.id = sc.enrollment_id
JOIN students st ON st.id = e.student_id
JOIN classes c ON c.id = e.class_id
JOIN subjects su ON su.id = sc.subject_id`

// List returns scores with student/class/subject context.
func (r *ScoreRepository) List(ctx context.Context, filter models.ScoreFilter) ([]models.ScoreDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("e.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("sc.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.Semester != 0 {
		conditions = append(conditions, fmt.Sprintf("sc.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s%s ORDER BY sc.enrollment_id ASC, sc.subject_id ASC LIMIT %d OFFSET %d",
		scoreDetailColumns, scoreDetailBase, clause, size, offset)

	var scores []models.ScoreDetail
	if err := r.db.SelectContext(ctx, &scores, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list scores: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s%s", scoreDetailBase, clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count scores: %w", err)
	}
	return scores, total, nil
}

// FindByID returns a score by its ID.
func (r *ScoreRepository) FindByID(ctx context.Context, id string) (*models.Score, error) {
	const query = `SELECT id, enrollment_id, subject_id, type, value, semester, created_at, updated_at FROM scores WHERE id = $1`
	var score models.Score
	if err := r.db.GetContext(ctx, &score, query, id); err != nil {
		return nil, err
	}
	return &score, nil
}

// FindDetailByID returns a score with contextual info.
func (r *ScoreRepository) FindDetailByID(ctx context.Context, id string) (*models.ScoreDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE sc.id = $1", scoreDetailColumns, scoreDetailBase)
	var detail models.ScoreDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create persists a new score record keyed by enrollment id.
func (r *ScoreRepository) Create(ctx context.Context, score *models.Score) error {
	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if score.CreatedAt.IsZero() {
		score.CreatedAt = now
	}
	score.UpdatedAt = now

	const query = `INSERT INTO scores (id, enrollment_id, subject_id, type, value, semester, created_at, updated_at)
        VALUES (:id, :enrollment_id, :subject_id, :type, :value, :semester, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, score); err != nil {
		return fmt.Errorf("create score: %w", translateError(err))
	}
	return nil
}

// Update modifies an existing score.
func (r *ScoreRepository) Update(ctx context.Context, score *models.Score) error {
	score.UpdatedAt = time.Now().UTC()
	const query = `UPDATE scores SET type = :type, value = :value, semester = :semester, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, score); err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	return nil
}

// Delete removes a score permanently.
func (r *ScoreRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM scores WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete score: %w", err)
	}
	return nil
}

// ListByClass returns all scores for a class, ordered for score sheets.
func (r *ScoreRepository) ListByClass(ctx context.Context, classID string) ([]models.ScoreDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE e.class_id = $1 ORDER BY st.full_name ASC, su.code ASC, sc.semester ASC",
		scoreDetailColumns, scoreDetailBase)
	var scores []models.ScoreDetail
	if err := r.db.SelectContext(ctx, &scores, query, classID); err != nil {
		return nil, fmt.Errorf("list class scores: %w", err)
	}
	return scores, nil
}
