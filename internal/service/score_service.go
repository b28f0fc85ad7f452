package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/models"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

type scoreRepository interface {
	List(ctx context.Context, filter models.ScoreFilter) ([]models.ScoreDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Score, error)
	FindDetailByID(ctx context.Context, id string) (*models.ScoreDetail, error)
	Create(ctx context.Context, score *models.Score) error
	Update(ctx context.Context, score *models.Score) error
	Delete(ctx context.Context, id string) error
}

type enrollmentFinder interface {
	FindByStudentAndClass(ctx context.Context, studentID, classID string) (*models.ClassEnrollment, error)
}

type subjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// RecordScoreRequest describes the payload for recording a score. Clients
// address the enrollment by student and class; the service resolves the
// enrollment row and rejects the write when none exists.
type RecordScoreRequest struct {
	StudentID string             `json:"student_id" validate:"required"`
	ClassID   string             `json:"class_id" validate:"required"`
	SubjectID string             `json:"subject_id" validate:"required"`
	Type      models.ScoreType   `json:"type" validate:"required"`
	Value     *models.ScoreValue `json:"value" validate:"required"`
	Semester  int                `json:"semester"`
}

// UpdateScoreRequest carries partial updates for an existing score.
type UpdateScoreRequest struct {
	Type     *models.ScoreType  `json:"type"`
	Value    *models.ScoreValue `json:"value"`
	Semester *int               `json:"semester"`
}

// ScoreService manages grade records. Every write is gated on an active
// enrollment linking the student to the class.
type ScoreService struct {
	repo        scoreRepository
	enrollments enrollmentFinder
	subjects    subjectFinder
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewScoreService creates the service instance.
func NewScoreService(repo scoreRepository, enrollments enrollmentFinder, subjects subjectFinder, validate *validator.Validate, logger *zap.Logger) *ScoreService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreService{repo: repo, enrollments: enrollments, subjects: subjects, validator: validate, logger: logger}
}

// List returns paginated scores with joined student/class/subject info.
func (s *ScoreService) List(ctx context.Context, filter models.ScoreFilter) ([]models.ScoreDetail, *models.Pagination, error) {
	scores, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scores")
	}
	return scores, models.NewPagination(total, filter.Page, filter.PageSize), nil
}

// Get returns one score with display details.
func (s *ScoreService) Get(ctx context.Context, id string) (*models.ScoreDetail, error) {
	score, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "score not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score")
	}
	return score, nil
}

// Record creates a score for an enrolled student. Semester defaults to 1 when
// the payload omits it.
func (s *ScoreService) Record(ctx context.Context, req RecordScoreRequest) (*models.Score, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}

	// The enrollment is resolved first so an unenrolled student always sees
	// the enrollment error, whatever else is wrong with the payload.
	enrollment, err := s.enrollments.FindByStudentAndClass(ctx, req.StudentID, req.ClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student is not enrolled in this class")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve enrollment")
	}

	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "score type must be REGULAR, MIDTERM or FINAL")
	}
	if !req.Value.InRange() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "score value must be between 0 and 10")
	}
	semester := req.Semester
	if semester == 0 {
		semester = 1
	}
	if semester != 1 && semester != 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be 1 or 2")
	}

	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve subject")
	}

	score := &models.Score{
		EnrollmentID: enrollment.ID,
		SubjectID:    req.SubjectID,
		Type:         req.Type,
		Value:        float64(*req.Value),
		Semester:     semester,
	}
	if err := s.repo.Create(ctx, score); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record score")
	}
	return score, nil
}

// Update applies partial changes to a score. Fields absent from the payload
// keep their stored values.
func (s *ScoreService) Update(ctx context.Context, id string, req UpdateScoreRequest) (*models.Score, error) {
	score, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "score not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score")
	}

	if req.Type != nil {
		if !req.Type.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "score type must be REGULAR, MIDTERM or FINAL")
		}
		score.Type = *req.Type
	}
	if req.Value != nil {
		if !req.Value.InRange() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "score value must be between 0 and 10")
		}
		score.Value = float64(*req.Value)
	}
	if req.Semester != nil {
		if *req.Semester != 1 && *req.Semester != 2 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be 1 or 2")
		}
		score.Semester = *req.Semester
	}

	if err := s.repo.Update(ctx, score); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update score")
	}
	return score, nil
}

// Delete removes a score record.
func (s *ScoreService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "score not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete score")
	}
	return nil
}
