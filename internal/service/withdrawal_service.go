package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Silk760/course-withdrawal/internal/eligibility"
	"github.com/Silk760/course-withdrawal/internal/models"
	"github.com/Silk760/course-withdrawal/internal/repository"
	"github.com/Silk760/course-withdrawal/internal/transcript"
	appErrors "github.com/Silk760/course-withdrawal/pkg/errors"
)

type studentStore interface {
	Upsert(ctx context.Context, student *models.Student) error
}

type requestStore interface {
	Create(ctx context.Context, request *models.WithdrawalRequest) error
	FindByID(ctx context.Context, id string) (*models.WithdrawalRequest, error)
	FindExisting(ctx context.Context, studentDBID, courseCode, semester, year string) (*models.WithdrawalRequest, error)
}

type documentStore interface {
	Save(filename string, data []byte) (string, error)
	SaveStream(filename string, r io.Reader) (string, error)
}

// Submission is one complete application: the request parameters plus the
// uploaded transcript and optional supporting document.
type Submission struct {
	Request eligibility.Request

	Transcript     io.Reader
	TranscriptName string

	SupportingDoc     io.Reader
	SupportingDocName string
}

// SubmissionResult pairs the stored request identifier with the verdict.
type SubmissionResult struct {
	RequestID string             `json:"request_id"`
	Result    eligibility.Result `json:"result"`
}

// StatusView is the applicant-facing lookup of a stored request. It exposes
// the workflow state and verdict but not the transcript snapshot or the
// stored document names.
type StatusView struct {
	ID         string               `json:"id"`
	CourseCode string               `json:"course_code"`
	CourseName string               `json:"course_name"`
	Semester   string               `json:"semester"`
	Year       string               `json:"year"`
	Status     models.RequestStatus `json:"status"`
	Eligible   bool                 `json:"eligible"`
	Errors     json.RawMessage      `json:"errors"`
	Warnings   json.RawMessage      `json:"warnings"`
	CreatedAt  time.Time            `json:"created_at"`
}

// WithdrawalService orchestrates the submission pipeline: document intake,
// transcript parsing, rule evaluation, and persistence of the verdict.
type WithdrawalService struct {
	students  studentStore
	requests  requestStore
	documents documentStore
	extractor transcript.TextExtractor
	parser    *transcript.Parser
	evaluator *eligibility.Evaluator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWithdrawalService constructs a WithdrawalService instance.
func NewWithdrawalService(
	students studentStore,
	requests requestStore,
	documents documentStore,
	extractor transcript.TextExtractor,
	parser *transcript.Parser,
	evaluator *eligibility.Evaluator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *WithdrawalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if extractor == nil {
		extractor = &transcript.PlainTextExtractor{}
	}
	return &WithdrawalService{
		students:  students,
		requests:  requests,
		documents: documents,
		extractor: extractor,
		parser:    parser,
		evaluator: evaluator,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Submit runs the full pipeline for one application. Parsing never rejects
// the submission: an unreadable transcript degrades to defaults and the rule
// evaluator reports the consequences. The verdict is persisted regardless of
// eligibility so the registrar office sees rejected applications too.
func (s *WithdrawalService) Submit(ctx context.Context, sub Submission) (*SubmissionResult, error) {
	if err := s.validator.Struct(sub.Request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid withdrawal request payload")
	}
	if sub.Transcript == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "transcript document is required")
	}

	text, err := s.extractor.Extract(sub.Transcript)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read transcript document")
	}

	parseStart := time.Now()
	rec := s.parser.Parse(text)
	s.metrics.ObserveParse(time.Since(parseStart))

	result := s.evaluator.Evaluate(*rec, sub.Request)
	s.metrics.ObserveValidation(result.Eligible)

	student := &models.Student{
		StudentID:   result.Transcript.StudentID,
		StudentName: result.Transcript.StudentName,
		Major:       result.Transcript.Major,
		Degree:      result.Transcript.Degree,
	}
	if err := s.students.Upsert(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist student")
	}

	transcriptFile, err := s.storeDocument(sub.TranscriptName, text)
	if err != nil {
		return nil, err
	}
	supportingDoc := ""
	if sub.SupportingDoc != nil {
		name := uuid.NewString() + filepath.Ext(sub.SupportingDocName)
		stored, err := s.documents.SaveStream(name, sub.SupportingDoc)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store supporting document")
		}
		supportingDoc = stored
	}

	errorsJSON, warningsJSON, rulesJSON, err := marshalVerdict(result)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to serialize verdict")
	}

	request := &models.WithdrawalRequest{
		StudentID:      student.ID,
		CourseCode:     sub.Request.CourseCode,
		CourseName:     sub.Request.CourseName,
		Semester:       sub.Request.Semester,
		Year:           sub.Request.Year,
		ReasonType:     sub.Request.ReasonType,
		Reason:         sub.Request.Reason,
		Eligible:       result.Eligible,
		Errors:         errorsJSON,
		Warnings:       warningsJSON,
		RulesChecked:   rulesJSON,
		TranscriptFile: transcriptFile,
		SupportingDoc:  supportingDoc,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			if existing, lookupErr := s.requests.FindExisting(ctx, student.ID, request.CourseCode, request.Semester, request.Year); lookupErr == nil {
				s.logger.Warn("duplicate withdrawal request rejected",
					zap.String("existing_request_id", existing.ID),
					zap.String("student_id", student.StudentID),
					zap.String("course_code", request.CourseCode),
				)
			}
			return nil, appErrors.Clone(appErrors.ErrDuplicateRequest, "a request for this course and semester already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist withdrawal request")
	}

	s.logger.Info("withdrawal request submitted",
		zap.String("request_id", request.ID),
		zap.String("student_id", student.StudentID),
		zap.String("course_code", request.CourseCode),
		zap.Bool("eligible", result.Eligible),
	)

	return &SubmissionResult{RequestID: request.ID, Result: result}, nil
}

// Status returns the applicant-facing view of a stored request.
func (s *WithdrawalService) Status(ctx context.Context, id string) (*StatusView, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid request id")
	}
	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "withdrawal request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load withdrawal request")
	}
	return &StatusView{
		ID:         request.ID,
		CourseCode: request.CourseCode,
		CourseName: request.CourseName,
		Semester:   request.Semester,
		Year:       request.Year,
		Status:     request.Status,
		Eligible:   request.Eligible,
		Errors:     request.Errors,
		Warnings:   request.Warnings,
		CreatedAt:  request.CreatedAt,
	}, nil
}

// storeDocument writes the normalized transcript text under a generated
// name so later admin review sees exactly the bytes that were evaluated.
func (s *WithdrawalService) storeDocument(originalName, text string) (string, error) {
	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = ".txt"
	}
	name := fmt.Sprintf("%s%s", uuid.NewString(), ext)
	stored, err := s.documents.Save(name, []byte(text))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store transcript document")
	}
	return stored, nil
}

func marshalVerdict(result eligibility.Result) (errorsJSON, warningsJSON, rulesJSON json.RawMessage, err error) {
	if errorsJSON, err = json.Marshal(result.Errors); err != nil {
		return nil, nil, nil, err
	}
	if warningsJSON, err = json.Marshal(result.Warnings); err != nil {
		return nil, nil, nil, err
	}
	if rulesJSON, err = json.Marshal(result.RulesChecked); err != nil {
		return nil, nil, nil, err
	}
	return errorsJSON, warningsJSON, rulesJSON, nil
}
