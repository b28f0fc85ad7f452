package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-records-api/internal/models"
)

// ParentRepository handles persistence of parents.
type ParentRepository struct {
	db *sqlx.DB
}

// NewParentRepository constructs the repository.
func NewParentRepository(db *sqlx.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

const parentColumns = "id, full_name, phone, password_hash, is_active, created_at, updated_at"

// List returns parents matching the search filter.
func (r *ParentRepository) List(ctx context.Context, filter models.ParentFilter) ([]models.Parent, int, error) {
	base := "FROM parents WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR phone ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 10
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", parentColumns, base, size, offset)

	var parents []models.Parent
	if err := r.db.SelectContext(ctx, &parents, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list parents: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count parents: %w", err)
	}
	return parents, total, nil
}

// FindByID loads a parent by identifier.
func (r *ParentRepository) FindByID(ctx context.Context, id string) (*models.Parent, error) {
	query := fmt.Sprintf("SELECT %s FROM parents WHERE id = $1", parentColumns)
	var parent models.Parent
	if err := r.db.GetContext(ctx, &parent, query, id); err != nil {
		return nil, err
	}
	return &parent, nil
}

// ExistsByPhone checks phone uniqueness, optionally excluding one row.
func (r *ParentRepository) ExistsByPhone(ctx context.Context, phone, excludeID string) (bool, error) {
	query := "SELECT 1 FROM parents WHERE phone = $1"
	args := []interface{}{phone}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check parent phone: %w", err)
	}
	return true, nil
}

// Create inserts a new parent record.
func (r *ParentRepository) Create(ctx context.Context, parent *models.Parent) error {
	if parent.ID == "" {
		parent.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if parent.CreatedAt.IsZero() {
		parent.CreatedAt = now
	}
	parent.UpdatedAt = now

	const query = `INSERT INTO parents (id, full_name, phone, password_hash, is_active, created_at, updated_at)
        VALUES (:id, :full_name, :phone, :password_hash, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, parent); err != nil {
		return fmt.Errorf("create parent: %w", translateError(err))
	}
	return nil
}

// Update modifies an existing parent.
func (r *ParentRepository) Update(ctx context.Context, parent *models.Parent) error {
	parent.UpdatedAt = time.Now().UTC()
	const query = `UPDATE parents SET full_name = :full_name, phone = :phone, password_hash = :password_hash,
        is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, parent); err != nil {
		return fmt.Errorf("update parent: %w", translateError(err))
	}
	return nil
}

// Delete removes a parent permanently. Callers must clear child references
// first; the delete would otherwise trip the students foreign key.
func (r *ParentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM parents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete parent: %w", translateError(err))
	}
	return nil
}
