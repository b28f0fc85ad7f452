package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/repository"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error)
	ExistsByNameAndYear(ctx context.Context, name, academicYearID, excludeID string) (bool, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
	CountEnrollments(ctx context.Context, id string) (int, error)
}

type gradeFinder interface {
	FindByID(ctx context.Context, id string) (*models.Grade, error)
}

type yearFinder interface {
	FindByID(ctx context.Context, id string) (*models.AcademicYear, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateClassRequest describes the payload for creating a class.
type CreateClassRequest struct {
	Name              string  `json:"name" validate:"required"`
	GradeID           string  `json:"grade_id" validate:"required"`
	AcademicYearID    string  `json:"academic_year_id" validate:"required"`
	HomeroomTeacherID *string `json:"homeroom_teacher_id"`
}

// UpdateClassRequest describes the payload for updating a class.
type UpdateClassRequest struct {
	Name              string  `json:"name" validate:"required"`
	GradeID           string  `json:"grade_id" validate:"required"`
	AcademicYearID    string  `json:"academic_year_id" validate:"required"`
	HomeroomTeacherID *string `json:"homeroom_teacher_id"`
}

// ClassService manages class sections. Class names are unique per academic
// year, so "10A" can recur across years.
type ClassService struct {
	repo      classRepository
	grades    gradeFinder
	years     yearFinder
	users     userFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService creates the service instance.
func NewClassService(repo classRepository, grades gradeFinder, years yearFinder, users userFinder, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, grades: grades, years: years, users: users, validator: validate, logger: logger}
}

// List returns paginated classes with joined grade/year/teacher info.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, models.NewPagination(total, filter.Page, filter.PageSize), nil
}

// Get returns a class with display details.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassDetail, error) {
	class, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Create adds a new class after resolving its references.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if err := s.resolveRefs(ctx, req.GradeID, req.AcademicYearID, req.HomeroomTeacherID); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByNameAndYear(ctx, req.Name, req.AcademicYearID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "class name already exists in this academic year")
	}

	class := &models.Class{
		Name:              req.Name,
		GradeID:           req.GradeID,
		AcademicYearID:    req.AcademicYearID,
		HomeroomTeacherID: req.HomeroomTeacherID,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "class name already exists in this academic year")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// Update modifies an existing class.
func (s *ClassService) Update(ctx context.Context, id string, req UpdateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	if err := s.resolveRefs(ctx, req.GradeID, req.AcademicYearID, req.HomeroomTeacherID); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByNameAndYear(ctx, req.Name, req.AcademicYearID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "class name already exists in this academic year")
	}

	class.Name = req.Name
	class.GradeID = req.GradeID
	class.AcademicYearID = req.AcademicYearID
	class.HomeroomTeacherID = req.HomeroomTeacherID

	if err := s.repo.Update(ctx, class); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "class name already exists in this academic year")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return class, nil
}

// Delete removes a class unless students are still enrolled.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	count, err := s.repo.CountEnrollments(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class dependencies")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot delete class with enrolled students")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	return nil
}

func (s *ClassService) resolveRefs(ctx context.Context, gradeID, yearID string, teacherID *string) error {
	if _, err := s.grades.FindByID(ctx, gradeID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrValidation, "grade not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve grade")
	}
	if _, err := s.years.FindByID(ctx, yearID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrValidation, "academic year not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve academic year")
	}
	if teacherID != nil && *teacherID != "" {
		teacher, err := s.users.FindByID(ctx, *teacherID)
		if err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrValidation, "homeroom teacher not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve homeroom teacher")
		}
		if !teacher.IsActive || !teacher.Roles.Has(models.RoleTeacher) {
			return appErrors.Clone(appErrors.ErrValidation, "homeroom teacher must be an active teacher")
		}
	}
	return nil
}
