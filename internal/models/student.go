package models

import "time"

// Student represents an applicant identified by their university number.
// Fields mirror the transcript header; they are refreshed on every new
// request that carries non-empty values.
type Student struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	StudentName string    `db:"student_name" json:"student_name"`
	Major       string    `db:"major" json:"major"`
	Degree      string    `db:"degree" json:"degree"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
