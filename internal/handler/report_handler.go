package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/election-survey-api/internal/dto"
	"github.com/noah-isme/election-survey-api/internal/middleware"
	"github.com/noah-isme/election-survey-api/internal/models"
	"github.com/noah-isme/election-survey-api/internal/service"
	"github.com/noah-isme/election-survey-api/pkg/response"
)

type reportService interface {
	Generate(ctx context.Context, caller models.Caller, reportType dto.ReportType) (*dto.Report, bool, error)
}

type exportService interface {
	Download(ctx context.Context, caller models.Caller, reportType dto.ReportType, format dto.ReportFormat) (*service.ExportFile, error)
}

// ReportHandler exposes aggregated reports and their downloads.
type ReportHandler struct {
	reports reportService
	exports exportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService, exports exportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// Get godoc
// @Summary Aggregated report
// @Tags Reports
// @Produce json
// @Param type path string true "Report type" Enums(responses, performance, demographics)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/{type} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	report, cached, err := h.reports.Generate(c.Request.Context(), caller, dto.ReportType(c.Param("type")))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, report, middleware.ExtractMeta(c))
}

// Download godoc
// @Summary Download report
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param type path string true "Report type" Enums(responses, performance, demographics)
// @Param format query string false "File format" Enums(csv, pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/{type}/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	file, err := h.exports.Download(c.Request.Context(), caller, dto.ReportType(c.Param("type")), dto.ReportFormat(c.Query("format")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
