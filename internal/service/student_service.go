package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/repository"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	SoftDelete(ctx context.Context, id string) error
}

type parentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Parent, error)
}

// CreateStudentRequest describes the payload for registering a student.
type CreateStudentRequest struct {
	StudentCode string    `json:"student_code" validate:"required"`
	FullName    string    `json:"full_name" validate:"required"`
	DOB         time.Time `json:"dob" validate:"required"`
	Gender      string    `json:"gender" validate:"required,oneof=MALE FEMALE"`
	ParentID    *string   `json:"parent_id"`
}

// UpdateStudentRequest describes the payload for updating a student.
type UpdateStudentRequest struct {
	StudentCode string    `json:"student_code" validate:"required"`
	FullName    string    `json:"full_name" validate:"required"`
	DOB         time.Time `json:"dob" validate:"required"`
	Gender      string    `json:"gender" validate:"required,oneof=MALE FEMALE"`
	ParentID    *string   `json:"parent_id"`
}

// StudentService manages student records. Deletes are soft: the row stays so
// historical enrollments and scores keep resolving, but the student drops out
// of every listing. Student codes stay reserved even after deletion.
type StudentService struct {
	repo      studentRepository
	parents   parentFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService creates the service instance.
func NewStudentService(repo studentRepository, parents parentFinder, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, parents: parents, validator: validate, logger: logger}
}

// List returns paginated students with parent context.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, models.NewPagination(total, filter.Page, filter.PageSize), nil
}

// Get returns a student by ID.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	exists, err := s.repo.ExistsByCode(ctx, req.StudentCode, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student code already exists")
	}

	if err := s.resolveParent(ctx, req.ParentID); err != nil {
		return nil, err
	}

	student := &models.Student{
		StudentCode: req.StudentCode,
		FullName:    req.FullName,
		DOB:         req.DOB,
		Gender:      req.Gender,
		ParentID:    req.ParentID,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student code already exists")
		}
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "parent not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies a student record.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	exists, err := s.repo.ExistsByCode(ctx, req.StudentCode, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student code already exists")
	}

	if err := s.resolveParent(ctx, req.ParentID); err != nil {
		return nil, err
	}

	student := detail.Student
	student.StudentCode = req.StudentCode
	student.FullName = req.FullName
	student.DOB = req.DOB
	student.Gender = req.Gender
	student.ParentID = req.ParentID

	if err := s.repo.Update(ctx, &student); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "parent not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return &student, nil
}

// Delete soft-deletes a student.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}

func (s *StudentService) resolveParent(ctx context.Context, parentID *string) error {
	if parentID == nil || *parentID == "" {
		return nil
	}
	if _, err := s.parents.FindByID(ctx, *parentID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrValidation, "parent not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve parent")
	}
	return nil
}
