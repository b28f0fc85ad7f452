package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/service"
)

type scoreRepoStub struct {
	created *models.Score
}

func (s *scoreRepoStub) List(ctx context.Context, filter models.ScoreFilter) ([]models.ScoreDetail, int, error) {
	return nil, 0, nil
}

func (s *scoreRepoStub) FindByID(ctx context.Context, id string) (*models.Score, error) {
	return nil, sql.ErrNoRows
}

func (s *scoreRepoStub) FindDetailByID(ctx context.Context, id string) (*models.ScoreDetail, error) {
	return nil, sql.ErrNoRows
}

func (s *scoreRepoStub) Create(ctx context.Context, score *models.Score) error {
	s.created = score
	return nil
}

func (s *scoreRepoStub) Update(ctx context.Context, score *models.Score) error { return nil }

func (s *scoreRepoStub) Delete(ctx context.Context, id string) error { return nil }

type enrollmentFinderStub struct {
	enrollment *models.ClassEnrollment
}

func (s *enrollmentFinderStub) FindByStudentAndClass(ctx context.Context, studentID, classID string) (*models.ClassEnrollment, error) {
	if s.enrollment == nil {
		return nil, sql.ErrNoRows
	}
	return s.enrollment, nil
}

type subjectFinderStub struct{}

func (s *subjectFinderStub) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	return &models.Subject{ID: id, Code: "MATH", Name: "Mathematics"}, nil
}

func newScoreHandlerForTest(repo *scoreRepoStub, enrollments *enrollmentFinderStub) *ScoreHandler {
	svc := service.NewScoreService(repo, enrollments, &subjectFinderStub{}, nil, nil)
	return NewScoreHandler(svc)
}

func postScore(t *testing.T, handler *ScoreHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/scores", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Record(c)
	return w
}

func TestScoreHandlerRecordInvalidBody(t *testing.T) {
	handler := newScoreHandlerForTest(&scoreRepoStub{}, &enrollmentFinderStub{})
	w := postScore(t, handler, `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScoreHandlerRecordNotEnrolled(t *testing.T) {
	handler := newScoreHandlerForTest(&scoreRepoStub{}, &enrollmentFinderStub{})
	w := postScore(t, handler, `{"student_id":"st-1","class_id":"cl-1","subject_id":"su-1","type":"MIDTERM","value":8}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "not enrolled")
}

func TestScoreHandlerRecordStringValue(t *testing.T) {
	repo := &scoreRepoStub{}
	enrollments := &enrollmentFinderStub{enrollment: &models.ClassEnrollment{ID: "en-1", StudentID: "st-1", ClassID: "cl-1"}}
	handler := newScoreHandlerForTest(repo, enrollments)

	w := postScore(t, handler, `{"student_id":"st-1","class_id":"cl-1","subject_id":"su-1","type":"FINAL","value":"8.5"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, repo.created)
	assert.Equal(t, "en-1", repo.created.EnrollmentID)
	assert.Equal(t, 8.5, repo.created.Value)
	assert.Equal(t, 1, repo.created.Semester)
}

func TestScoreHandlerRecordOutOfRange(t *testing.T) {
	enrollments := &enrollmentFinderStub{enrollment: &models.ClassEnrollment{ID: "en-1"}}
	handler := newScoreHandlerForTest(&scoreRepoStub{}, enrollments)

	w := postScore(t, handler, `{"student_id":"st-1","class_id":"cl-1","subject_id":"su-1","type":"REGULAR","value":10.5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "between 0 and 10")
}
