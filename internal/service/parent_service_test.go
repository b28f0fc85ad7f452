package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-records-api/internal/models"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

type mockParentRepo struct {
	parents map[string]models.Parent
	deleted []string
}

func (m *mockParentRepo) List(ctx context.Context, filter models.ParentFilter) ([]models.Parent, int, error) {
	out := make([]models.Parent, 0, len(m.parents))
	for _, p := range m.parents {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockParentRepo) FindByID(ctx context.Context, id string) (*models.Parent, error) {
	if p, ok := m.parents[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockParentRepo) ExistsByPhone(ctx context.Context, phone, excludeID string) (bool, error) {
	for id, p := range m.parents {
		if p.Phone == phone && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockParentRepo) Create(ctx context.Context, parent *models.Parent) error {
	if m.parents == nil {
		m.parents = make(map[string]models.Parent)
	}
	if parent.ID == "" {
		parent.ID = "generated"
	}
	m.parents[parent.ID] = *parent
	return nil
}

func (m *mockParentRepo) Update(ctx context.Context, parent *models.Parent) error {
	m.parents[parent.ID] = *parent
	return nil
}

func (m *mockParentRepo) Delete(ctx context.Context, id string) error {
	delete(m.parents, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockParentStudents struct {
	children map[string][]models.Student
	cleared  []string
}

func (m *mockParentStudents) ClearParent(ctx context.Context, parentID string) error {
	m.cleared = append(m.cleared, parentID)
	for _, child := range m.children[parentID] {
		child.ParentID = nil
		_ = child
	}
	delete(m.children, parentID)
	return nil
}

func (m *mockParentStudents) ListByParent(ctx context.Context, parentID string) ([]models.Student, error) {
	return m.children[parentID], nil
}

func newParentService(repo *mockParentRepo, students *mockParentStudents) *ParentService {
	return NewParentService(repo, students, validator.New(), zap.NewNop())
}

func TestParentServiceCreate(t *testing.T) {
	repo := &mockParentRepo{}
	svc := newParentService(repo, &mockParentStudents{})

	parent, err := svc.Create(context.Background(), CreateParentRequest{FullName: "Bob", Phone: "0123456789"})
	require.NoError(t, err)
	assert.NotEmpty(t, parent.ID)
	assert.True(t, parent.IsActive)
	assert.Nil(t, parent.PasswordHash)
}

func TestParentServiceCreateHashesPassword(t *testing.T) {
	repo := &mockParentRepo{}
	svc := newParentService(repo, &mockParentStudents{})

	parent, err := svc.Create(context.Background(), CreateParentRequest{FullName: "Bob", Phone: "0123456789", Password: "secret99"})
	require.NoError(t, err)
	require.NotNil(t, parent.PasswordHash)
	assert.NotEqual(t, "secret99", *parent.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(*parent.PasswordHash), []byte("secret99")))

	// The hash never leaks through serialization.
	raw, err := json.Marshal(parent)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
}

func TestParentServiceCreateDuplicatePhone(t *testing.T) {
	repo := &mockParentRepo{parents: map[string]models.Parent{
		"par-1": {ID: "par-1", Phone: "0123456789"},
	}}
	svc := newParentService(repo, &mockParentStudents{})

	_, err := svc.Create(context.Background(), CreateParentRequest{FullName: "Bob", Phone: "0123456789"})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestParentServiceDeleteDetachesChildrenFirst(t *testing.T) {
	repo := &mockParentRepo{parents: map[string]models.Parent{
		"par-1": {ID: "par-1", FullName: "Bob", Phone: "0123"},
	}}
	parentID := "par-1"
	students := &mockParentStudents{children: map[string][]models.Student{
		"par-1": {{ID: "stu-1", ParentID: &parentID}, {ID: "stu-2", ParentID: &parentID}},
	}}
	svc := newParentService(repo, students)

	require.NoError(t, svc.Delete(context.Background(), "par-1"))
	assert.Contains(t, students.cleared, "par-1")
	assert.Contains(t, repo.deleted, "par-1")
	assert.Empty(t, students.children["par-1"])
}

func TestParentServiceDeleteNotFound(t *testing.T) {
	svc := newParentService(&mockParentRepo{}, &mockParentStudents{})

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestParentServiceGetIncludesStudents(t *testing.T) {
	repo := &mockParentRepo{parents: map[string]models.Parent{
		"par-1": {ID: "par-1", FullName: "Bob", Phone: "0123"},
	}}
	students := &mockParentStudents{children: map[string][]models.Student{
		"par-1": {{ID: "stu-1", FullName: "Alice"}},
	}}
	svc := newParentService(repo, students)

	detail, err := svc.Get(context.Background(), "par-1")
	require.NoError(t, err)
	require.Len(t, detail.Students, 1)
	assert.Equal(t, "Alice", detail.Students[0].FullName)
}
