package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Silk760/course-withdrawal/internal/models"
)

// ErrDuplicate signals that an identical (student, course, semester, year)
// request already exists. It is raised by the unique index at insert time so
// duplicate detection and creation form one atomic step.
var ErrDuplicate = errors.New("duplicate withdrawal request")

const uniqueRequestConstraint = "uq_student_course_semester_year"

// WithdrawalRepository handles persistence of withdrawal requests.
type WithdrawalRepository struct {
	db *sqlx.DB
}

// NewWithdrawalRepository constructs the repository.
func NewWithdrawalRepository(db *sqlx.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// Create persists a new request. A unique-violation on the request tuple is
// mapped to ErrDuplicate.
func (r *WithdrawalRepository) Create(ctx context.Context, request *models.WithdrawalRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	if request.Status == "" {
		request.Status = models.RequestStatusPending
	}
	if len(request.Errors) == 0 {
		request.Errors = json.RawMessage("[]")
	}
	if len(request.Warnings) == 0 {
		request.Warnings = json.RawMessage("[]")
	}
	if len(request.RulesChecked) == 0 {
		request.RulesChecked = json.RawMessage("[]")
	}

	const query = `INSERT INTO withdrawal_requests
        (id, student_id, course_code, course_name, semester, year, reason_type, reason,
         status, eligible, errors, warnings, rules_checked, transcript_file, supporting_doc, created_at)
        VALUES (:id, :student_id, :course_code, :course_name, :semester, :year, :reason_type, :reason,
         :status, :eligible, :errors, :warnings, :rules_checked, :transcript_file, :supporting_doc, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == uniqueRequestConstraint {
			return ErrDuplicate
		}
		return fmt.Errorf("create withdrawal request: %w", err)
	}
	return nil
}

// FindByID returns a request by its ID.
func (r *WithdrawalRepository) FindByID(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	const query = `SELECT id, student_id, course_code, course_name, semester, year, reason_type, reason,
        status, eligible, errors, warnings, rules_checked, transcript_file, supporting_doc, created_at
        FROM withdrawal_requests WHERE id = $1`
	var request models.WithdrawalRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// FindDetailByID returns a request joined with the owning student.
func (r *WithdrawalRepository) FindDetailByID(ctx context.Context, id string) (*models.WithdrawalRequestDetail, error) {
	const query = `SELECT r.id, r.student_id, r.course_code, r.course_name, r.semester, r.year, r.reason_type, r.reason,
        r.status, r.eligible, r.errors, r.warnings, r.rules_checked, r.transcript_file, r.supporting_doc, r.created_at,
        s.student_id AS student_number, s.student_name, s.major, s.degree
        FROM withdrawal_requests r
        LEFT JOIN students s ON s.id = r.student_id
        WHERE r.id = $1`
	var detail models.WithdrawalRequestDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindExisting returns the request already stored for the tuple, if any.
func (r *WithdrawalRepository) FindExisting(ctx context.Context, studentDBID, courseCode, semester, year string) (*models.WithdrawalRequest, error) {
	const query = `SELECT id, student_id, course_code, course_name, semester, year, reason_type, reason,
        status, eligible, errors, warnings, rules_checked, transcript_file, supporting_doc, created_at
        FROM withdrawal_requests
        WHERE student_id = $1 AND course_code = $2 AND semester = $3 AND year = $4`
	var request models.WithdrawalRequest
	if err := r.db.GetContext(ctx, &request, query, studentDBID, courseCode, semester, year); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns requests filtered by the provided criteria.
func (r *WithdrawalRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.WithdrawalRequestDetail, int, error) {
	base := `FROM withdrawal_requests r
LEFT JOIN students s ON s.id = r.student_id`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Major != "" {
		conditions = append(conditions, fmt.Sprintf("s.major = $%d", len(args)+1))
		args = append(args, filter.Major)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(s.student_id ILIKE $%d OR s.student_name ILIKE $%d OR r.course_code ILIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at":   "r.created_at",
		"course_code":  "r.course_code",
		"student_name": "s.student_name",
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	orderBy := allowedSorts[sortBy]
	if orderBy == "" {
		orderBy = "r.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT r.id, r.student_id, r.course_code, r.course_name, r.semester, r.year, r.reason_type, r.reason,
        r.status, r.eligible, r.errors, r.warnings, r.rules_checked, r.transcript_file, r.supporting_doc, r.created_at,
        s.student_id AS student_number, s.student_name, s.major, s.degree
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var requests []models.WithdrawalRequestDetail
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list withdrawal requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count withdrawal requests: %w", err)
	}
	return requests, total, nil
}

// Stats summarizes request counts per workflow state.
func (r *WithdrawalRepository) Stats(ctx context.Context) (*models.RequestStats, error) {
	const query = `SELECT COUNT(*) AS total,
        COUNT(*) FILTER (WHERE status = 'pending') AS pending,
        COUNT(*) FILTER (WHERE status = 'approved') AS approved,
        COUNT(*) FILTER (WHERE status = 'rejected') AS rejected
        FROM withdrawal_requests`
	var stats models.RequestStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("request stats: %w", err)
	}
	return &stats, nil
}

// UpdateStatus transitions a request to the given workflow state.
func (r *WithdrawalRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	const query = `UPDATE withdrawal_requests SET status = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update request status: no such request %s", id)
	}
	return nil
}
