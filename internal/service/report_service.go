package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/repository"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
	"github.com/noah-isme/school-records-api/pkg/export"
)

type reportRepository interface {
	CountStudents(ctx context.Context) (int, error)
	CountClasses(ctx context.Context) (int, error)
	CountSubjects(ctx context.Context) (int, error)
	CountTeachers(ctx context.Context) (int, error)
	GradeDistribution(ctx context.Context) ([]models.GradeDistribution, error)
	ListYears(ctx context.Context) ([]models.HierarchyYear, error)
	ListGradesByYear(ctx context.Context, yearID string) ([]models.HierarchyGrade, error)
}

type scoreSheetRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.ScoreDetail, error)
}

type reportClassFinder interface {
	FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error)
}

// ScoreSheetFormat selects the export encoding.
type ScoreSheetFormat string

const (
	FormatCSV ScoreSheetFormat = "csv"
	FormatPDF ScoreSheetFormat = "pdf"
)

// ScoreSheetExport bundles the rendered bytes with response metadata.
type ScoreSheetExport struct {
	FileName    string
	ContentType string
	Content     []byte
}

// HierarchyReport is the drill-down view: years, each with grade summaries.
type HierarchyReport struct {
	Years []HierarchyYearReport `json:"years"`
}

// HierarchyYearReport pairs a year with its grade breakdown.
type HierarchyYearReport struct {
	models.HierarchyYear
	Grades []models.HierarchyGrade `json:"grades"`
}

// ReportService produces dashboards, drill-down summaries and score sheet
// exports.
type ReportService struct {
	repo    reportRepository
	scores  scoreSheetRepository
	classes reportClassFinder
	cache   activeYearCache
	ttl     time.Duration
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewReportService creates the service instance.
func NewReportService(repo reportRepository, scores scoreSheetRepository, classes reportClassFinder, cache activeYearCache, ttl time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		repo:    repo,
		scores:  scores,
		classes: classes,
		cache:   cache,
		ttl:     ttl,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// Dashboard returns headline counts plus the per-grade enrollment breakdown.
// The result is cached; writes that would skew the numbers tolerate the TTL.
func (s *ReportService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	if s.cache != nil {
		var cached models.DashboardStats
		if err := s.cache.Get(ctx, repository.CacheKeyDashboard, &cached); err == nil {
			return &cached, nil
		}
	}

	stats := &models.DashboardStats{}
	var err error
	if stats.TotalStudents, err = s.repo.CountStudents(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	if stats.TotalClasses, err = s.repo.CountClasses(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count classes")
	}
	if stats.TotalSubjects, err = s.repo.CountSubjects(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count subjects")
	}
	if stats.TotalTeachers, err = s.repo.CountTeachers(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}
	if stats.GradeDistribution, err = s.repo.GradeDistribution(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade distribution")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, repository.CacheKeyDashboard, stats, s.ttl); err != nil {
			s.logger.Warn("failed to cache dashboard stats", zap.Error(err))
		}
	}
	return stats, nil
}

// Hierarchy returns every academic year with its grade summaries.
func (s *ReportService) Hierarchy(ctx context.Context) (*HierarchyReport, error) {
	years, err := s.repo.ListYears(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic years")
	}

	report := &HierarchyReport{Years: make([]HierarchyYearReport, 0, len(years))}
	for _, year := range years {
		grades, err := s.repo.ListGradesByYear(ctx, year.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade summaries")
		}
		report.Years = append(report.Years, HierarchyYearReport{HierarchyYear: year, Grades: grades})
	}
	return report, nil
}

// ExportScoreSheet renders all scores of one class as CSV or PDF.
func (s *ReportService) ExportScoreSheet(ctx context.Context, classID string, format ScoreSheetFormat) (*ScoreSheetExport, error) {
	class, err := s.classes.FindDetailByID(ctx, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	scores, err := s.scores.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class scores")
	}

	sheet := export.Sheet{
		Title:   fmt.Sprintf("Score Sheet - %s (%s)", class.Name, class.AcademicYearName),
		Headers: []string{"Student Code", "Student Name", "Subject", "Type", "Semester", "Score"},
	}
	for _, sc := range scores {
		sheet.Rows = append(sheet.Rows, []string{
			sc.StudentCode,
			sc.StudentName,
			sc.SubjectName,
			string(sc.Type),
			strconv.Itoa(sc.Semester),
			strconv.FormatFloat(sc.Value, 'f', 2, 64),
		})
	}

	switch format {
	case FormatCSV, "":
		content, err := s.csv.Render(sheet)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ScoreSheetExport{
			FileName:    fmt.Sprintf("scores-%s.csv", class.Name),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case FormatPDF:
		content, err := s.pdf.Render(sheet)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ScoreSheetExport{
			FileName:    fmt.Sprintf("scores-%s.pdf", class.Name),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
