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

	"github.com/noah-isme/school-records-api/internal/models"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

type mockScoreRepo struct {
	scores  map[string]models.Score
	deleted []string
}

func (m *mockScoreRepo) List(ctx context.Context, filter models.ScoreFilter) ([]models.ScoreDetail, int, error) {
	out := make([]models.ScoreDetail, 0, len(m.scores))
	for _, s := range m.scores {
		out = append(out, models.ScoreDetail{Score: s})
	}
	return out, len(out), nil
}

func (m *mockScoreRepo) FindByID(ctx context.Context, id string) (*models.Score, error) {
	if s, ok := m.scores[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockScoreRepo) FindDetailByID(ctx context.Context, id string) (*models.ScoreDetail, error) {
	if s, ok := m.scores[id]; ok {
		return &models.ScoreDetail{Score: s}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockScoreRepo) Create(ctx context.Context, score *models.Score) error {
	if m.scores == nil {
		m.scores = make(map[string]models.Score)
	}
	if score.ID == "" {
		score.ID = "generated"
	}
	m.scores[score.ID] = *score
	return nil
}

func (m *mockScoreRepo) Update(ctx context.Context, score *models.Score) error {
	m.scores[score.ID] = *score
	return nil
}

func (m *mockScoreRepo) Delete(ctx context.Context, id string) error {
	delete(m.scores, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockSubjectFinder struct {
	subjects map[string]models.Subject
}

func (m *mockSubjectFinder) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func newScoreService(repo *mockScoreRepo, enrollments *mockEnrollmentRepo) *ScoreService {
	subjects := &mockSubjectFinder{subjects: map[string]models.Subject{
		"sub-1": {ID: "sub-1", Code: "MATH", Name: "Mathematics"},
	}}
	return NewScoreService(repo, enrollments, subjects, validator.New(), zap.NewNop())
}

func scoreValue(v float64) *models.ScoreValue {
	sv := models.ScoreValue(v)
	return &sv
}

func enrolledRepo() *mockEnrollmentRepo {
	return &mockEnrollmentRepo{enrollments: map[string]models.ClassEnrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", ClassID: "class-1"},
	}}
}

func TestScoreServiceRecord(t *testing.T) {
	repo := &mockScoreRepo{}
	svc := newScoreService(repo, enrolledRepo())

	score, err := svc.Record(context.Background(), RecordScoreRequest{
		StudentID: "stu-1",
		ClassID:   "class-1",
		SubjectID: "sub-1",
		Type:      models.ScoreTypeMidterm,
		Value:     scoreValue(8.5),
		Semester:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, "enr-1", score.EnrollmentID)
	assert.Equal(t, 8.5, score.Value)
	assert.Equal(t, 2, score.Semester)
}

func TestScoreServiceRecordDefaultsSemester(t *testing.T) {
	repo := &mockScoreRepo{}
	svc := newScoreService(repo, enrolledRepo())

	score, err := svc.Record(context.Background(), RecordScoreRequest{
		StudentID: "stu-1",
		ClassID:   "class-1",
		SubjectID: "sub-1",
		Type:      models.ScoreTypeRegular,
		Value:     scoreValue(7),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, score.Semester)
}

func TestScoreServiceRecordRequiresEnrollment(t *testing.T) {
	svc := newScoreService(&mockScoreRepo{}, &mockEnrollmentRepo{})

	_, err := svc.Record(context.Background(), RecordScoreRequest{
		StudentID: "stu-1",
		ClassID:   "class-1",
		SubjectID: "sub-1",
		Type:      models.ScoreTypeFinal,
		Value:     scoreValue(9),
	})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "not enrolled")
}

func TestScoreServiceRecordRejectsOutOfRange(t *testing.T) {
	svc := newScoreService(&mockScoreRepo{}, enrolledRepo())

	for _, value := range []models.ScoreValue{-0.5, 10.5} {
		_, err := svc.Record(context.Background(), RecordScoreRequest{
			StudentID: "stu-1",
			ClassID:   "class-1",
			SubjectID: "sub-1",
			Type:      models.ScoreTypeRegular,
			Value:     scoreValue(float64(value)),
		})
		require.Error(t, err)
	}
}

func TestScoreServiceRecordRejectsUnknownType(t *testing.T) {
	svc := newScoreService(&mockScoreRepo{}, enrolledRepo())

	_, err := svc.Record(context.Background(), RecordScoreRequest{
		StudentID: "stu-1",
		ClassID:   "class-1",
		SubjectID: "sub-1",
		Type:      "QUIZ",
		Value:     scoreValue(5),
	})
	require.Error(t, err)
}

func TestScoreServiceRecordRejectsOmittedValue(t *testing.T) {
	var req RecordScoreRequest
	payload := `{"student_id":"stu-1","class_id":"class-1","subject_id":"sub-1","type":"REGULAR","semester":1}`
	require.NoError(t, json.Unmarshal([]byte(payload), &req))

	repo := &mockScoreRepo{}
	svc := newScoreService(repo, enrolledRepo())

	_, err := svc.Record(context.Background(), req)
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, repo.scores)
}

func TestScoreServiceRecordAcceptsExplicitZero(t *testing.T) {
	repo := &mockScoreRepo{}
	svc := newScoreService(repo, enrolledRepo())

	score, err := svc.Record(context.Background(), RecordScoreRequest{
		StudentID: "stu-1",
		ClassID:   "class-1",
		SubjectID: "sub-1",
		Type:      models.ScoreTypeRegular,
		Value:     scoreValue(0),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, score.Value)
}

func TestScoreServiceRecordEnrollmentCheckedBeforeValue(t *testing.T) {
	svc := newScoreService(&mockScoreRepo{}, &mockEnrollmentRepo{})

	_, err := svc.Record(context.Background(), RecordScoreRequest{
		StudentID: "stu-1",
		ClassID:   "class-1",
		SubjectID: "sub-1",
		Type:      models.ScoreTypeRegular,
		Value:     scoreValue(10.5),
	})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Contains(t, appErr.Message, "not enrolled")
}

func TestScoreServiceRecordAcceptsStringEncodedValue(t *testing.T) {
	var req RecordScoreRequest
	payload := `{"student_id":"stu-1","class_id":"class-1","subject_id":"sub-1","type":"REGULAR","value":"9.25"}`
	require.NoError(t, json.Unmarshal([]byte(payload), &req))

	repo := &mockScoreRepo{}
	svc := newScoreService(repo, enrolledRepo())

	score, err := svc.Record(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 9.25, score.Value)
}

func TestScoreServiceUpdatePartial(t *testing.T) {
	repo := &mockScoreRepo{scores: map[string]models.Score{
		"score-1": {ID: "score-1", EnrollmentID: "enr-1", SubjectID: "sub-1", Type: models.ScoreTypeRegular, Value: 6, Semester: 1},
	}}
	svc := newScoreService(repo, enrolledRepo())

	newValue := models.ScoreValue(7.5)
	score, err := svc.Update(context.Background(), "score-1", UpdateScoreRequest{Value: &newValue})
	require.NoError(t, err)
	assert.Equal(t, 7.5, score.Value)
	assert.Equal(t, models.ScoreTypeRegular, score.Type)
	assert.Equal(t, 1, score.Semester)
}

func TestScoreServiceUpdateRejectsBadSemester(t *testing.T) {
	repo := &mockScoreRepo{scores: map[string]models.Score{
		"score-1": {ID: "score-1", EnrollmentID: "enr-1", SubjectID: "sub-1", Type: models.ScoreTypeRegular, Value: 6, Semester: 1},
	}}
	svc := newScoreService(repo, enrolledRepo())

	badSemester := 3
	_, err := svc.Update(context.Background(), "score-1", UpdateScoreRequest{Semester: &badSemester})
	require.Error(t, err)
}

func TestScoreServiceDelete(t *testing.T) {
	repo := &mockScoreRepo{scores: map[string]models.Score{
		"score-1": {ID: "score-1", EnrollmentID: "enr-1"},
	}}
	svc := newScoreService(repo, enrolledRepo())

	require.NoError(t, svc.Delete(context.Background(), "score-1"))
	assert.Contains(t, repo.deleted, "score-1")

	err := svc.Delete(context.Background(), "score-1")
	require.Error(t, err)
}
