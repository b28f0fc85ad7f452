package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/repository"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

type parentRepository interface {
	List(ctx context.Context, filter models.ParentFilter) ([]models.Parent, int, error)
	FindByID(ctx context.Context, id string) (*models.Parent, error)
	ExistsByPhone(ctx context.Context, phone, excludeID string) (bool, error)
	Create(ctx context.Context, parent *models.Parent) error
	Update(ctx context.Context, parent *models.Parent) error
	Delete(ctx context.Context, id string) error
}

type parentStudentRepository interface {
	ClearParent(ctx context.Context, parentID string) error
	ListByParent(ctx context.Context, parentID string) ([]models.Student, error)
}

// CreateParentRequest describes the payload for registering a parent. The
// optional password enables portal access.
type CreateParentRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

// UpdateParentRequest describes the payload for updating a parent. An empty
// password leaves the stored hash untouched.
type UpdateParentRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

// ParentService manages guardians. Deleting a parent detaches their children
// first; students remain with a null parent reference.
type ParentService struct {
	repo      parentRepository
	students  parentStudentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewParentService creates the service instance.
func NewParentService(repo parentRepository, students parentStudentRepository, validate *validator.Validate, logger *zap.Logger) *ParentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParentService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns paginated parents.
func (s *ParentService) List(ctx context.Context, filter models.ParentFilter) ([]models.Parent, *models.Pagination, error) {
	parents, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parents")
	}
	return parents, models.NewPagination(total, filter.Page, filter.PageSize), nil
}

// Get returns a parent with their children.
func (s *ParentService) Get(ctx context.Context, id string) (*models.ParentDetail, error) {
	parent, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent")
	}

	children, err := s.students.ListByParent(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent's students")
	}
	return &models.ParentDetail{Parent: *parent, Students: children}, nil
}

// Create registers a new parent.
func (s *ParentService) Create(ctx context.Context, req CreateParentRequest) (*models.Parent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parent payload")
	}

	exists, err := s.repo.ExistsByPhone(ctx, req.Phone, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check parent phone")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "phone number already registered")
	}

	parent := &models.Parent{
		FullName: req.FullName,
		Phone:    req.Phone,
		IsActive: true,
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		hashed := string(hash)
		parent.PasswordHash = &hashed
	}

	if err := s.repo.Create(ctx, parent); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "phone number already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create parent")
	}
	return parent, nil
}

// Update modifies a parent record.
func (s *ParentService) Update(ctx context.Context, id string, req UpdateParentRequest) (*models.Parent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parent payload")
	}

	parent, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent")
	}

	exists, err := s.repo.ExistsByPhone(ctx, req.Phone, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check parent phone")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "phone number already registered")
	}

	parent.FullName = req.FullName
	parent.Phone = req.Phone
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		hashed := string(hash)
		parent.PasswordHash = &hashed
	}

	if err := s.repo.Update(ctx, parent); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update parent")
	}
	return parent, nil
}

// Delete removes a parent after detaching their children. Ordering matters:
// the students update must land before the delete or the foreign key fires.
func (s *ParentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent")
	}

	if err := s.students.ClearParent(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to detach students from parent")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete parent")
	}
	return nil
}
