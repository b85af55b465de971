package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Silk760/course-withdrawal/internal/models"
)

// StudentRepository handles persistence of applicants.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Upsert registers the student or refreshes an existing row. Empty incoming
// fields never blank out previously stored values.
func (r *StudentRepository) Upsert(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO students (id, student_id, student_name, major, degree, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (student_id) DO UPDATE SET
            student_name = CASE WHEN EXCLUDED.student_name <> '' THEN EXCLUDED.student_name ELSE students.student_name END,
            major = CASE WHEN EXCLUDED.major <> '' THEN EXCLUDED.major ELSE students.major END,
            degree = CASE WHEN EXCLUDED.degree <> '' THEN EXCLUDED.degree ELSE students.degree END
        RETURNING id, created_at`
	row := r.db.QueryRowContext(ctx, query,
		student.ID, student.StudentID, student.StudentName, student.Major, student.Degree, student.CreatedAt)
	if err := row.Scan(&student.ID, &student.CreatedAt); err != nil {
		return fmt.Errorf("upsert student: %w", err)
	}
	return nil
}

// CountRequests counts the student's stored withdrawal requests.
func (r *StudentRepository) CountRequests(ctx context.Context, studentDBID string) (int, error) {
	const query = `SELECT COUNT(*) FROM withdrawal_requests WHERE student_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, studentDBID); err != nil {
		return 0, fmt.Errorf("count student requests: %w", err)
	}
	return total, nil
}
