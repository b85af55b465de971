package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Silk760/course-withdrawal/internal/eligibility"
	"github.com/Silk760/course-withdrawal/internal/models"
	appErrors "github.com/Silk760/course-withdrawal/pkg/errors"
	"github.com/Silk760/course-withdrawal/pkg/export"
)

const statsCacheKey = "withdrawal:stats"

type adminRequestStore interface {
	FindDetailByID(ctx context.Context, id string) (*models.WithdrawalRequestDetail, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.WithdrawalRequestDetail, int, error)
	Stats(ctx context.Context) (*models.RequestStats, error)
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error
}

type priorRequestCounter interface {
	CountRequests(ctx context.Context, studentDBID string) (int, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type documentOpener interface {
	Open(filename string) (*os.File, error)
}

type downloadSigner interface {
	Generate(requestID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (requestID, relPath string, expiresAt time.Time, err error)
}

// RequestDetailView is the registrar-office view of a request: the stored
// row plus its verdict deserialized for display and the applicant's history.
type RequestDetailView struct {
	models.WithdrawalRequestDetail

	VerdictErrors    []string                `json:"verdict_errors"`
	VerdictWarnings  []string                `json:"verdict_warnings"`
	RuleOutcomes     []eligibility.RuleCheck `json:"rule_outcomes"`
	PriorRequests    int                     `json:"prior_requests"`
	HasTranscript    bool                    `json:"has_transcript"`
	HasSupportingDoc bool                    `json:"has_supporting_doc"`
}

// DocumentLink is a time-limited signed download reference.
type DocumentLink struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DocumentDownload carries a resolved document stream and its display name.
type DocumentDownload struct {
	File     *os.File
	Filename string
}

// AdminService serves the registrar-office workflow: browsing, deciding,
// and exporting withdrawal requests.
type AdminService struct {
	requests adminRequestStore
	students priorRequestCounter
	cache    statsCache
	storage  documentOpener
	signer   downloadSigner
	csv      *export.CSVExporter
	metrics  *MetricsService
	logger   *zap.Logger
	statsTTL time.Duration
}

// NewAdminService constructs an AdminService instance.
func NewAdminService(
	requests adminRequestStore,
	students priorRequestCounter,
	cache statsCache,
	storage documentOpener,
	signer downloadSigner,
	csv *export.CSVExporter,
	metrics *MetricsService,
	logger *zap.Logger,
	statsTTL time.Duration,
) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if statsTTL <= 0 {
		statsTTL = 5 * time.Minute
	}
	return &AdminService{
		requests: requests,
		students: students,
		cache:    cache,
		storage:  storage,
		signer:   signer,
		csv:      csv,
		metrics:  metrics,
		logger:   logger,
		statsTTL: statsTTL,
	}
}

// List returns a filtered page of requests with the total row count.
func (s *AdminService) List(ctx context.Context, filter models.RequestFilter) ([]models.WithdrawalRequestDetail, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "unknown request status filter")
	}
	items, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list withdrawal requests")
	}
	return items, total, nil
}

// Stats returns aggregate request counts, served from cache when fresh.
func (s *AdminService) Stats(ctx context.Context) (*models.RequestStats, error) {
	if s.cache != nil {
		var cached models.RequestStats
		if err := s.cache.Get(ctx, statsCacheKey, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("stats cache read failed", zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false)
	}

	stats, err := s.requests.Stats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute request stats")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, statsCacheKey, stats, s.statsTTL); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

// Detail loads one request with its verdict deserialized and the applicant's
// total request count.
func (s *AdminService) Detail(ctx context.Context, id string) (*RequestDetailView, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid request id")
	}
	detail, err := s.requests.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "withdrawal request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load withdrawal request")
	}

	view := &RequestDetailView{
		WithdrawalRequestDetail: *detail,
		HasTranscript:           detail.TranscriptFile != "",
		HasSupportingDoc:        detail.SupportingDoc != "",
	}
	if err := unmarshalVerdict(detail.WithdrawalRequest, view); err != nil {
		s.logger.Warn("stored verdict is not valid JSON", zap.String("request_id", id), zap.Error(err))
	}

	if count, err := s.students.CountRequests(ctx, detail.StudentID); err != nil {
		s.logger.Warn("failed to count prior requests", zap.String("request_id", id), zap.Error(err))
	} else {
		view.PriorRequests = count
	}
	return view, nil
}

// UpdateStatus applies a registrar decision and invalidates cached stats.
func (s *AdminService) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	if _, err := uuid.Parse(id); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid request id")
	}
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "status must be pending, approved, or rejected")
	}
	if err := s.requests.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "withdrawal request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request status")
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, statsCacheKey); err != nil {
			s.logger.Warn("stats cache invalidation failed", zap.Error(err))
		}
	}

	s.logger.Info("request status updated", zap.String("request_id", id), zap.String("status", string(status)))
	return nil
}

// ExportCSV renders the filtered request register as CSV. Pagination in the
// filter is ignored: the export always covers every matching row.
func (s *AdminService) ExportCSV(ctx context.Context, filter models.RequestFilter) ([]byte, error) {
	filter.Page = 1
	filter.PageSize = exportPageSize
	items, _, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests for export")
	}

	dataset := export.Dataset{
		Headers: []string{"id", "student_number", "student_name", "major", "degree", "course_code", "course_name", "semester", "year", "eligible", "status", "created_at"},
	}
	for _, item := range items {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"id":             item.ID,
			"student_number": item.StudentNumber,
			"student_name":   item.StudentName,
			"major":          item.Major,
			"degree":         item.Degree,
			"course_code":    item.CourseCode,
			"course_name":    item.CourseName,
			"semester":       item.Semester,
			"year":           item.Year,
			"eligible":       fmt.Sprintf("%t", item.Eligible),
			"status":         string(item.Status),
			"created_at":     item.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return s.csv.Render(dataset)
}

// GrantDocumentLink issues a signed, expiring token for one stored document.
// kind is "transcript" or "supporting".
func (s *AdminService) GrantDocumentLink(ctx context.Context, id, kind string) (*DocumentLink, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid request id")
	}
	detail, err := s.requests.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "withdrawal request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load withdrawal request")
	}

	var relPath string
	switch kind {
	case "transcript":
		relPath = detail.TranscriptFile
	case "supporting":
		relPath = detail.SupportingDoc
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "document kind must be transcript or supporting")
	}
	if relPath == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no such document on this request")
	}

	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign document link")
	}
	return &DocumentLink{Token: token, ExpiresAt: expiresAt}, nil
}

// ResolveDocument validates a signed token and opens the referenced file.
// The caller owns the returned file handle.
func (s *AdminService) ResolveDocument(token string) (*DocumentDownload, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download link")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open document")
	}
	return &DocumentDownload{File: file, Filename: relPath}, nil
}

// exportPageSize bounds a single CSV export.
const exportPageSize = 10000

func unmarshalVerdict(req models.WithdrawalRequest, view *RequestDetailView) error {
	if len(req.Errors) > 0 {
		if err := json.Unmarshal(req.Errors, &view.VerdictErrors); err != nil {
			return fmt.Errorf("errors: %w", err)
		}
	}
	if len(req.Warnings) > 0 {
		if err := json.Unmarshal(req.Warnings, &view.VerdictWarnings); err != nil {
			return fmt.Errorf("warnings: %w", err)
		}
	}
	if len(req.RulesChecked) > 0 {
		if err := json.Unmarshal(req.RulesChecked, &view.RuleOutcomes); err != nil {
			return fmt.Errorf("rules_checked: %w", err)
		}
	}
	return nil
}
