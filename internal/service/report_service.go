package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Silk760/course-withdrawal/internal/models"
	appErrors "github.com/Silk760/course-withdrawal/pkg/errors"
	"github.com/Silk760/course-withdrawal/pkg/export"
	"github.com/Silk760/course-withdrawal/pkg/jobs"
)

// Report job lifecycle states.
const (
	ReportStatusQueued     = "queued"
	ReportStatusProcessing = "processing"
	ReportStatusDone       = "done"
	ReportStatusFailed     = "failed"
)

type reportRequestStore interface {
	FindDetailByID(ctx context.Context, id string) (*models.WithdrawalRequestDetail, error)
}

type reportFileStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ReportJobStatus is the client-visible state of one report job.
type ReportJobStatus struct {
	ID         string     `json:"id"`
	RequestID  string     `json:"request_id"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

type reportJob struct {
	ReportJobStatus
	file string
}

// ReportService renders eligibility reports as PDF in the background. Jobs
// are tracked in memory; the rendered files live on disk and are reaped by
// CleanupExpired.
type ReportService struct {
	requests reportRequestStore
	files    reportFileStore
	pdf      *export.PDFExporter
	queue    *jobs.Queue
	logger   *zap.Logger

	mu       sync.RWMutex
	jobState map[string]*reportJob
}

// NewReportService constructs the report service and its worker queue.
func NewReportService(requests reportRequestStore, files reportFileStore, pdf *export.PDFExporter, logger *zap.Logger, workers, retries int) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	s := &ReportService{
		requests: requests,
		files:    files,
		pdf:      pdf,
		logger:   logger,
		jobState: make(map[string]*reportJob),
	}
	s.queue = jobs.NewQueue("eligibility-reports", s.process, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: retries,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// Enqueue schedules report generation for a stored withdrawal request and
// returns the job identifier to poll.
func (s *ReportService) Enqueue(ctx context.Context, requestID string) (*ReportJobStatus, error) {
	if _, err := uuid.Parse(requestID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid request id")
	}
	if _, err := s.requests.FindDetailByID(ctx, requestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "withdrawal request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load withdrawal request")
	}

	job := &reportJob{ReportJobStatus: ReportJobStatus{
		ID:        uuid.NewString(),
		RequestID: requestID,
		Status:    ReportStatusQueued,
		CreatedAt: time.Now().UTC(),
	}}
	s.mu.Lock()
	s.jobState[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "eligibility-report", Payload: requestID}); err != nil {
		s.finish(job.ID, "", fmt.Errorf("enqueue: %w", err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}
	status := job.ReportJobStatus
	return &status, nil
}

// Status returns the current state of a report job.
func (s *ReportService) Status(jobID string) (*ReportJobStatus, error) {
	s.mu.RLock()
	job, ok := s.jobState[jobID]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}
	status := job.ReportJobStatus
	return &status, nil
}

// Open returns the rendered PDF for a finished job. The caller owns the
// returned file handle.
func (s *ReportService) Open(jobID string) (*os.File, string, error) {
	s.mu.RLock()
	job, ok := s.jobState[jobID]
	s.mu.RUnlock()
	if !ok {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}
	if job.Status != ReportStatusDone || job.file == "" {
		return nil, "", appErrors.Clone(appErrors.ErrConflict, "report is not ready")
	}
	file, err := s.files.Open(job.file)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open report file")
	}
	return file, job.file, nil
}

// CleanupExpired deletes rendered files older than ttl and forgets their jobs.
func (s *ReportService) CleanupExpired(ttl time.Duration) {
	removed, err := s.files.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("report cleanup failed", zap.Error(err))
		return
	}
	if len(removed) == 0 {
		return
	}
	gone := make(map[string]bool, len(removed))
	for _, name := range removed {
		gone[name] = true
	}
	s.mu.Lock()
	for id, job := range s.jobState {
		if gone[job.file] {
			delete(s.jobState, id)
		}
	}
	s.mu.Unlock()
	s.logger.Info("expired reports removed", zap.Int("count", len(removed)))
}

func (s *ReportService) process(ctx context.Context, job jobs.Job) error {
	requestID, _ := job.Payload.(string)
	s.setStatus(job.ID, ReportStatusProcessing)

	detail, err := s.requests.FindDetailByID(ctx, requestID)
	if err != nil {
		s.finish(job.ID, "", err)
		return fmt.Errorf("load request %s: %w", requestID, err)
	}

	payload, err := s.render(detail)
	if err != nil {
		s.finish(job.ID, "", err)
		return fmt.Errorf("render report for %s: %w", requestID, err)
	}

	filename := fmt.Sprintf("report-%s.pdf", job.ID)
	stored, err := s.files.Save(filename, payload)
	if err != nil {
		s.finish(job.ID, "", err)
		return fmt.Errorf("store report for %s: %w", requestID, err)
	}

	s.finish(job.ID, stored, nil)
	return nil
}

func (s *ReportService) render(detail *models.WithdrawalRequestDetail) ([]byte, error) {
	view := &RequestDetailView{WithdrawalRequestDetail: *detail}
	if err := unmarshalVerdict(detail.WithdrawalRequest, view); err != nil {
		return nil, err
	}

	eligibleLabel := "NOT ELIGIBLE"
	if detail.Eligible {
		eligibleLabel = "ELIGIBLE"
	}
	summary := [][2]string{
		{"Request ID", detail.ID},
		{"Student Number", detail.StudentNumber},
		{"Student Name", detail.StudentName},
		{"Major", detail.Major},
		{"Degree", detail.Degree},
		{"Course", fmt.Sprintf("%s %s", detail.CourseCode, detail.CourseName)},
		{"Semester", fmt.Sprintf("%s %s", detail.Semester, detail.Year)},
		{"Verdict", eligibleLabel},
		{"Workflow Status", string(detail.Status)},
		{"Submitted", detail.CreatedAt.UTC().Format(time.RFC3339)},
	}

	rules := export.Dataset{Headers: []string{"rule", "status", "detail"}}
	for _, outcome := range view.RuleOutcomes {
		rules.Rows = append(rules.Rows, map[string]string{
			"rule":   outcome.Rule,
			"status": string(outcome.Status),
			"detail": outcome.Detail,
		})
	}

	return s.pdf.RenderReport("Course Withdrawal Eligibility Report", summary, rules)
}

func (s *ReportService) setStatus(jobID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobState[jobID]; ok {
		job.Status = status
	}
}

func (s *ReportService) finish(jobID, file string, err error) {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobState[jobID]
	if !ok {
		return
	}
	job.FinishedAt = &now
	if err != nil {
		job.Status = ReportStatusFailed
		job.Error = err.Error()
		return
	}
	job.Status = ReportStatusDone
	job.file = file
}
