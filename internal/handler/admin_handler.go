package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Silk760/course-withdrawal/internal/models"
	"github.com/Silk760/course-withdrawal/internal/service"
	appErrors "github.com/Silk760/course-withdrawal/pkg/errors"
	"github.com/Silk760/course-withdrawal/pkg/response"
)

// AdminHandler exposes the registrar-office endpoints.
type AdminHandler struct {
	admin   *service.AdminService
	reports *service.ReportService
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(admin *service.AdminService, reports *service.ReportService) *AdminHandler {
	return &AdminHandler{admin: admin, reports: reports}
}

func requestFilterFromQuery(c *gin.Context) models.RequestFilter {
	var filter models.RequestFilter
	filter.Status = models.RequestStatus(c.Query("status"))
	filter.Major = strings.TrimSpace(c.Query("major"))
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")
	return filter
}

// List godoc
// @Summary List withdrawal requests
// @Tags Admin
// @Produce json
// @Param status query string false "Filter by workflow status"
// @Param major query string false "Filter by major"
// @Param search query string false "Search by student name, number, or course"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/requests [get]
func (h *AdminHandler) List(c *gin.Context) {
	filter := requestFilterFromQuery(c)
	items, total, err := h.admin.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Stats godoc
// @Summary Request counters per workflow state
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/requests/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Detail godoc
// @Summary Request detail with verdict breakdown
// @Tags Admin
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/requests/{id} [get]
func (h *AdminHandler) Detail(c *gin.Context) {
	view, err := h.admin.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

type updateStatusRequest struct {
	Status models.RequestStatus `json:"status" binding:"required"`
}

// UpdateStatus godoc
// @Summary Apply a registrar decision
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body updateStatusRequest true "New status"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/requests/{id}/status [patch]
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	if err := h.admin.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": c.Param("id"), "status": req.Status}, nil)
}

// Export godoc
// @Summary Export the request register as CSV
// @Tags Admin
// @Produce text/csv
// @Param status query string false "Filter by workflow status"
// @Param major query string false "Filter by major"
// @Param search query string false "Search by student name, number, or course"
// @Success 200 {string} string "CSV payload"
// @Security BearerAuth
// @Router /admin/requests/export [get]
func (h *AdminHandler) Export(c *gin.Context) {
	filter := requestFilterFromQuery(c)
	payload, err := h.admin.ExportCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="withdrawal-requests.csv"`)
	c.Data(http.StatusOK, "text/csv", payload)
}

// GrantDocument godoc
// @Summary Issue a signed download link for a stored document
// @Tags Admin
// @Produce json
// @Param id path string true "Request ID"
// @Param kind query string true "Document kind: transcript or supporting"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/requests/{id}/documents [get]
func (h *AdminHandler) GrantDocument(c *gin.Context) {
	link, err := h.admin.GrantDocumentLink(c.Request.Context(), c.Param("id"), c.DefaultQuery("kind", "transcript"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// DownloadDocument godoc
// @Summary Download a document via signed token
// @Tags Admin
// @Produce application/octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {string} string "Document bytes"
// @Failure 403 {object} response.Envelope
// @Router /admin/documents [get]
func (h *AdminHandler) DownloadDocument(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	download, err := h.admin.ResolveDocument(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, download.File)
}

// CreateReport godoc
// @Summary Queue an eligibility report PDF
// @Tags Admin
// @Produce json
// @Param id path string true "Request ID"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/requests/{id}/report [post]
func (h *AdminHandler) CreateReport(c *gin.Context) {
	status, err := h.reports.Enqueue(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, status, nil)
}

// ReportStatus godoc
// @Summary Poll a report job
// @Tags Admin
// @Produce json
// @Param jobId path string true "Report job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/reports/{jobId} [get]
func (h *AdminHandler) ReportStatus(c *gin.Context) {
	status, err := h.reports.Status(c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// DownloadReport godoc
// @Summary Download a finished report PDF
// @Tags Admin
// @Produce application/pdf
// @Param jobId path string true "Report job ID"
// @Success 200 {string} string "PDF bytes"
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/reports/{jobId}/download [get]
func (h *AdminHandler) DownloadReport(c *gin.Context) {
	file, filename, err := h.reports.Open(c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
