package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-records-api/internal/models"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

type mockClassRepo struct {
	classes         map[string]models.Class
	enrollmentCount map[string]int
}

func (m *mockClassRepo) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	return nil, 0, nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	if c, ok := m.classes[id]; ok {
		return &models.ClassDetail{Class: c}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) ExistsByNameAndYear(ctx context.Context, name, academicYearID, excludeID string) (bool, error) {
	for id, c := range m.classes {
		if c.Name == name && c.AcademicYearID == academicYearID && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	if m.classes == nil {
		m.classes = make(map[string]models.Class)
	}
	if class.ID == "" {
		class.ID = "generated"
	}
	m.classes[class.ID] = *class
	return nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.Class) error {
	m.classes[class.ID] = *class
	return nil
}

func (m *mockClassRepo) Delete(ctx context.Context, id string) error {
	delete(m.classes, id)
	return nil
}

func (m *mockClassRepo) CountEnrollments(ctx context.Context, id string) (int, error) {
	return m.enrollmentCount[id], nil
}

type mockGradeFinder struct {
	grades map[string]models.Grade
}

func (m *mockGradeFinder) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	if g, ok := m.grades[id]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

type mockYearFinder struct {
	years map[string]models.AcademicYear
}

func (m *mockYearFinder) FindByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	if y, ok := m.years[id]; ok {
		return &y, nil
	}
	return nil, sql.ErrNoRows
}

type mockUserFinder struct {
	users map[string]models.User
}

func (m *mockUserFinder) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func newClassService(repo *mockClassRepo) *ClassService {
	grades := &mockGradeFinder{grades: map[string]models.Grade{"g10": {ID: "g10", Name: "Grade 10", Level: 10}}}
	years := &mockYearFinder{years: map[string]models.AcademicYear{"y1": {ID: "y1", Name: "2026-2027"}}}
	users := &mockUserFinder{users: map[string]models.User{
		"t1": {ID: "t1", Roles: models.RoleSet{models.RoleTeacher}, IsActive: true},
		"t2": {ID: "t2", Roles: models.RoleSet{models.RoleTeacher}, IsActive: false},
		"a1": {ID: "a1", Roles: models.RoleSet{models.RoleAdmin}, IsActive: true},
	}}
	return NewClassService(repo, grades, years, users, nil, nil)
}

func TestClassServiceCreate(t *testing.T) {
	repo := &mockClassRepo{}
	svc := newClassService(repo)

	teacherID := "t1"
	class, err := svc.Create(context.Background(), CreateClassRequest{
		Name:              "10A",
		GradeID:           "g10",
		AcademicYearID:    "y1",
		HomeroomTeacherID: &teacherID,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, class.ID)
	assert.Equal(t, "10A", class.Name)
}

func TestClassServiceCreateDuplicateNameInYear(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]models.Class{
		"c1": {ID: "c1", Name: "10A", GradeID: "g10", AcademicYearID: "y1"},
	}}
	svc := newClassService(repo)

	_, err := svc.Create(context.Background(), CreateClassRequest{
		Name:           "10A",
		GradeID:        "g10",
		AcademicYearID: "y1",
	})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestClassServiceCreateUnknownGrade(t *testing.T) {
	svc := newClassService(&mockClassRepo{})

	_, err := svc.Create(context.Background(), CreateClassRequest{
		Name:           "10A",
		GradeID:        "missing",
		AcademicYearID: "y1",
	})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "grade not found", appErr.Message)
}

func TestClassServiceCreateInactiveHomeroomTeacher(t *testing.T) {
	svc := newClassService(&mockClassRepo{})

	teacherID := "t2"
	_, err := svc.Create(context.Background(), CreateClassRequest{
		Name:              "10A",
		GradeID:           "g10",
		AcademicYearID:    "y1",
		HomeroomTeacherID: &teacherID,
	})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "homeroom teacher must be an active teacher", appErr.Message)
}

func TestClassServiceCreateHomeroomMustHoldTeacherRole(t *testing.T) {
	svc := newClassService(&mockClassRepo{})

	adminID := "a1"
	_, err := svc.Create(context.Background(), CreateClassRequest{
		Name:              "10A",
		GradeID:           "g10",
		AcademicYearID:    "y1",
		HomeroomTeacherID: &adminID,
	})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestClassServiceSameNameDifferentYears(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]models.Class{
		"c1": {ID: "c1", Name: "10A", GradeID: "g10", AcademicYearID: "y0"},
	}}
	svc := newClassService(repo)

	class, err := svc.Create(context.Background(), CreateClassRequest{
		Name:           "10A",
		GradeID:        "g10",
		AcademicYearID: "y1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, class.ID)
}

func TestClassServiceDeleteGuardedByEnrollments(t *testing.T) {
	repo := &mockClassRepo{
		classes:         map[string]models.Class{"c1": {ID: "c1", Name: "10A"}},
		enrollmentCount: map[string]int{"c1": 25},
	}
	svc := newClassService(repo)

	err := svc.Delete(context.Background(), "c1")
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Contains(t, repo.classes, "c1")
}

func TestClassServiceDelete(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]models.Class{"c1": {ID: "c1", Name: "10A"}}}
	svc := newClassService(repo)

	err := svc.Delete(context.Background(), "c1")
	require.NoError(t, err)
	assert.NotContains(t, repo.classes, "c1")
}
