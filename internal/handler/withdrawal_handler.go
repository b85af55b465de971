package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Silk760/course-withdrawal/internal/eligibility"
	"github.com/Silk760/course-withdrawal/internal/service"
	appErrors "github.com/Silk760/course-withdrawal/pkg/errors"
	"github.com/Silk760/course-withdrawal/pkg/response"
)

// maxUploadBytes bounds a single uploaded document.
const maxUploadBytes = 10 << 20

// WithdrawalHandler exposes the applicant-facing submission endpoints.
type WithdrawalHandler struct {
	service *service.WithdrawalService
}

// NewWithdrawalHandler creates a new handler.
func NewWithdrawalHandler(svc *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{service: svc}
}

// Submit godoc
// @Summary Submit a withdrawal request
// @Description Upload a transcript, evaluate the withdrawal policy, and store the verdict
// @Tags Withdrawals
// @Accept multipart/form-data
// @Produce json
// @Param course_code formData string true "Course code"
// @Param course_name formData string false "Course name"
// @Param semester formData string false "Semester label"
// @Param year formData string false "Academic year"
// @Param reason_type formData string false "Reason category"
// @Param reason formData string false "Free-text reason"
// @Param student_name formData string false "Override parsed student name"
// @Param student_id formData string false "Override parsed student number"
// @Param degree formData string false "Override parsed degree"
// @Param selected_major formData string false "Override parsed major"
// @Param transcript formData file true "Academic transcript document"
// @Param supporting_doc formData file false "Supporting document"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests [post]
func (h *WithdrawalHandler) Submit(c *gin.Context) {
	req := eligibility.Request{
		CourseCode:    strings.TrimSpace(c.PostForm("course_code")),
		CourseName:    strings.TrimSpace(c.PostForm("course_name")),
		Semester:      strings.TrimSpace(c.PostForm("semester")),
		Year:          strings.TrimSpace(c.PostForm("year")),
		ReasonType:    strings.TrimSpace(c.PostForm("reason_type")),
		Reason:        strings.TrimSpace(c.PostForm("reason")),
		StudentName:   strings.TrimSpace(c.PostForm("student_name")),
		StudentID:     strings.TrimSpace(c.PostForm("student_id")),
		Degree:        strings.TrimSpace(c.PostForm("degree")),
		SelectedMajor: strings.TrimSpace(c.PostForm("selected_major")),
	}

	sub := service.Submission{Request: req}

	transcriptFile, err := c.FormFile("transcript")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "transcript document is required"))
		return
	}
	if transcriptFile.Size > maxUploadBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "transcript document is too large"))
		return
	}
	transcript, err := transcriptFile.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read transcript document"))
		return
	}
	defer transcript.Close()
	sub.Transcript = transcript
	sub.TranscriptName = transcriptFile.Filename

	if docFile, err := c.FormFile("supporting_doc"); err == nil {
		if docFile.Size > maxUploadBytes {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "supporting document is too large"))
			return
		}
		doc, err := docFile.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read supporting document"))
			return
		}
		defer doc.Close()
		sub.SupportingDoc = doc
		sub.SupportingDocName = docFile.Filename
	}

	result, err := h.service.Submit(c.Request.Context(), sub)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// Status godoc
// @Summary Look up a withdrawal request
// @Description Return the workflow state and verdict of a stored request
// @Tags Withdrawals
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *WithdrawalHandler) Status(c *gin.Context) {
	view, err := h.service.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
