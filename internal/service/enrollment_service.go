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

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassEnrollment, error)
	FindByStudentAndClass(ctx context.Context, studentID, classID string) (*models.ClassEnrollment, error)
	Create(ctx context.Context, enrollment *models.ClassEnrollment) error
	Delete(ctx context.Context, id string) error
	CountScores(ctx context.Context, id string) (int, error)
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type classFinder interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// EnrollRequest describes the payload for enrolling a student into a class.
type EnrollRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

// EnrollmentService manages student-class membership. The (student, class)
// pair is unique; the database constraint backs the pre-check so concurrent
// enrolls cannot slip through.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  studentFinder
	classes   classFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService creates the service instance.
func NewEnrollmentService(repo enrollmentRepository, students studentFinder, classes classFinder, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, classes: classes, validator: validate, logger: logger}
}

// ListByClass returns enrollments for a class.
func (s *EnrollmentService) ListByClass(ctx context.Context, classID string, page, pageSize int) ([]models.EnrollmentDetail, *models.Pagination, error) {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	filter := models.EnrollmentFilter{ClassID: classID, Page: page, PageSize: pageSize}
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, models.NewPagination(total, page, pageSize), nil
}

// ListByStudent returns enrollments for a student across classes.
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID string, page, pageSize int) ([]models.EnrollmentDetail, *models.Pagination, error) {
	filter := models.EnrollmentFilter{StudentID: studentID, Page: page, PageSize: pageSize}
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, models.NewPagination(total, page, pageSize), nil
}

// Enroll adds a student to a class.
func (s *EnrollmentService) Enroll(ctx context.Context, classID string, req EnrollRequest) (*models.ClassEnrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student")
	}
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve class")
	}

	// Fast fail for the common case; the unique constraint still backstops
	// a concurrent duplicate.
	if _, err := s.repo.FindByStudentAndClass(ctx, req.StudentID, classID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this class")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}

	enrollment := &models.ClassEnrollment{StudentID: req.StudentID, ClassID: classID}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this class")
		}
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student or class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}
	return enrollment, nil
}

// Unenroll removes a student from a class. Removal is blocked while scores
// exist for the enrollment so score rows never lose their anchor.
func (s *EnrollmentService) Unenroll(ctx context.Context, classID, studentID string) error {
	enrollment, err := s.repo.FindByStudentAndClass(ctx, studentID, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	count, err := s.repo.CountScores(ctx, enrollment.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment dependencies")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot unenroll student with recorded scores")
	}

	if err := s.repo.Delete(ctx, enrollment.ID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unenroll student")
	}
	return nil
}
