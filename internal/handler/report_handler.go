package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/service"
	"github.com/noah-isme/school-records-api/pkg/response"
)

// ReportHandler exposes dashboard, hierarchy and export endpoints.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler constructs a report handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Dashboard godoc
// @Summary Dashboard statistics
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	stats, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Hierarchy godoc
// @Summary Year/grade drill-down report
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/hierarchy [get]
func (h *ReportHandler) Hierarchy(c *gin.Context) {
	report, err := h.service.Hierarchy(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ExportScores godoc
// @Summary Export a class score sheet
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Class ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /reports/classes/{id}/scores/export [get]
func (h *ReportHandler) ExportScores(c *gin.Context) {
	format := service.ScoreSheetFormat(c.DefaultQuery("format", "csv"))
	result, err := h.service.ExportScoreSheet(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
