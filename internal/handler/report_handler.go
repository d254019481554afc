package handler

import (
	"fmt"
	"net/http"

	"pmis/internal/middleware"
	"pmis/internal/service"
	"pmis/internal/workflow"
	"pmis/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
	exportService service.ExportService
}

func NewReportHandler(reportService service.ReportService, exportService service.ExportService) *ReportHandler {
	return &ReportHandler{reportService: reportService, exportService: exportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports")
	reports.Use(middleware.Require(workflow.PrivReportRead))
	{
		reports.GET("/:kind", h.GetReport)
		reports.GET("/:kind/export", middleware.Require(workflow.PrivReportExport), h.Export)
	}
}

// GetReport computes a dashboard report for the given filters
// @Summary      Get a report
// @Description  kind is absorption, capr, performance-management or quarterly-implementation
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        kind           path      string  true   "Report kind"
// @Param        financialYear  query     string  false  "Financial year, e.g. 2024/2025"
// @Param        quarter        query     int     false  "Quarter 1-4"
// @Param        department     query     string  false  "Department"
// @Param        groupBy        query     string  false  "department"
// @Param        sortBy         query     string  false  "Column key"
// @Param        order          query     string  false  "asc or desc"
// @Success      200  {object}  response.Response{data=service.Report}
// @Failure      400  {object}  response.Response
// @Router       /api/reports/{kind} [get]
func (h *ReportHandler) GetReport(c *gin.Context) {
	kind, filter, ok := h.parse(c)
	if !ok {
		return
	}
	report, err := h.reportService.Generate(c.Request.Context(), kind, filter)
	if err != nil {
		writeError(c, err)
		return
	}

	principal := middleware.PrincipalFrom(c)
	report.CanExport = report.RowCount > 0 &&
		principal.Can(workflow.PrivReportExport) &&
		!h.exportService.Exporting(principal.UserID)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// Export renders the report as PDF or Excel
// @Summary      Export a report
// @Tags         reports
// @Security     BearerAuth
// @Produce      application/pdf
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        kind    path   string  true  "Report kind"
// @Param        format  query  string  true  "pdf or xlsx"
// @Success      200
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/reports/{kind}/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	kind, filter, ok := h.parse(c)
	if !ok {
		return
	}
	format, ok := service.ParseExportFormat(c.Query("format"))
	if !ok {
		badRequest(c, "format must be pdf or xlsx")
		return
	}

	file, err := h.exportService.Export(c.Request.Context(), kind, filter, format, middleware.PrincipalFrom(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

func (h *ReportHandler) parse(c *gin.Context) (service.ReportKind, service.ReportFilter, bool) {
	var filter service.ReportFilter
	kind, ok := service.ParseReportKind(c.Param("kind"))
	if !ok {
		badRequest(c, "Unknown report "+c.Param("kind"))
		return "", filter, false
	}
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, "Invalid filters: "+err.Error())
		return "", filter, false
	}
	return kind, filter, true
}
