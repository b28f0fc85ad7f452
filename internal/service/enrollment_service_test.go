package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/repository"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments map[string]models.ClassEnrollment
	scoreCounts map[string]int
	createErr   error
	deleted     []string
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	out := make([]models.EnrollmentDetail, 0, len(m.enrollments))
	for _, e := range m.enrollments {
		if filter.ClassID != "" && e.ClassID != filter.ClassID {
			continue
		}
		if filter.StudentID != "" && e.StudentID != filter.StudentID {
			continue
		}
		out = append(out, models.EnrollmentDetail{ClassEnrollment: e})
	}
	return out, len(out), nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.ClassEnrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindByStudentAndClass(ctx context.Context, studentID, classID string) (*models.ClassEnrollment, error) {
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.ClassID == classID {
			return &e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.ClassEnrollment) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.ClassEnrollment)
	}
	if enrollment.ID == "" {
		enrollment.ID = "generated"
	}
	m.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.enrollments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.enrollments, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockEnrollmentRepo) CountScores(ctx context.Context, id string) (int, error) {
	return m.scoreCounts[id], nil
}

type mockStudentFinder struct {
	students map[string]models.StudentDetail
}

func (m *mockStudentFinder) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockClassFinder struct {
	classes map[string]models.Class
}

func (m *mockClassFinder) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func newEnrollmentService(repo *mockEnrollmentRepo) *EnrollmentService {
	students := &mockStudentFinder{students: map[string]models.StudentDetail{
		"stu-1": {Student: models.Student{ID: "stu-1", FullName: "Alice"}},
	}}
	classes := &mockClassFinder{classes: map[string]models.Class{
		"class-1": {ID: "class-1", Name: "10A"},
	}}
	return NewEnrollmentService(repo, students, classes, validator.New(), zap.NewNop())
}

func TestEnrollmentServiceEnroll(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	svc := newEnrollmentService(repo)

	enrollment, err := svc.Enroll(context.Background(), "class-1", EnrollRequest{StudentID: "stu-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, enrollment.ID)
	assert.Equal(t, "stu-1", enrollment.StudentID)
	assert.Equal(t, "class-1", enrollment.ClassID)
}

func TestEnrollmentServiceEnrollDuplicate(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.ClassEnrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", ClassID: "class-1"},
	}}
	svc := newEnrollmentService(repo)

	_, err := svc.Enroll(context.Background(), "class-1", EnrollRequest{StudentID: "stu-1"})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestEnrollmentServiceEnrollConcurrentDuplicate(t *testing.T) {
	repo := &mockEnrollmentRepo{createErr: repository.ErrDuplicate}
	svc := newEnrollmentService(repo)

	_, err := svc.Enroll(context.Background(), "class-1", EnrollRequest{StudentID: "stu-1"})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestEnrollmentServiceEnrollUnknownStudent(t *testing.T) {
	svc := newEnrollmentService(&mockEnrollmentRepo{})

	_, err := svc.Enroll(context.Background(), "class-1", EnrollRequest{StudentID: "missing"})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestEnrollmentServiceUnenroll(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.ClassEnrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", ClassID: "class-1"},
	}}
	svc := newEnrollmentService(repo)

	err := svc.Unenroll(context.Background(), "class-1", "stu-1")
	require.NoError(t, err)
	assert.Contains(t, repo.deleted, "enr-1")
}

func TestEnrollmentServiceUnenrollBlockedByScores(t *testing.T) {
	repo := &mockEnrollmentRepo{
		enrollments: map[string]models.ClassEnrollment{
			"enr-1": {ID: "enr-1", StudentID: "stu-1", ClassID: "class-1"},
		},
		scoreCounts: map[string]int{"enr-1": 2},
	}
	svc := newEnrollmentService(repo)

	err := svc.Unenroll(context.Background(), "class-1", "stu-1")
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Contains(t, repo.enrollments, "enr-1")
}

func TestEnrollmentServiceUnenrollNotEnrolled(t *testing.T) {
	svc := newEnrollmentService(&mockEnrollmentRepo{})

	err := svc.Unenroll(context.Background(), "class-1", "stu-1")
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
