package models

import (
	"encoding/json"
	"time"
)

// RequestStatus is the administrative workflow state of a withdrawal request.
// It is a downstream decision on the stored verdict, never set by the
// eligibility evaluator.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// Valid reports whether the status is one of the workflow states.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

// WithdrawalRequest persists one application together with its serialized
// verdict and the stored document filenames.
type WithdrawalRequest struct {
	ID         string `db:"id" json:"id"`
	StudentID  string `db:"student_id" json:"student_id"`
	CourseCode string `db:"course_code" json:"course_code"`
	CourseName string `db:"course_name" json:"course_name"`
	Semester   string `db:"semester" json:"semester"`
	Year       string `db:"year" json:"year"`
	ReasonType string `db:"reason_type" json:"reason_type"`
	Reason     string `db:"reason" json:"reason"`

	Status   RequestStatus `db:"status" json:"status"`
	Eligible bool          `db:"eligible" json:"eligible"`

	Errors       json.RawMessage `db:"errors" json:"errors"`
	Warnings     json.RawMessage `db:"warnings" json:"warnings"`
	RulesChecked json.RawMessage `db:"rules_checked" json:"rules_checked"`

	TranscriptFile string `db:"transcript_file" json:"-"`
	SupportingDoc  string `db:"supporting_doc" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// WithdrawalRequestDetail joins the owning student's identifying fields.
type WithdrawalRequestDetail struct {
	WithdrawalRequest
	StudentNumber string `db:"student_number" json:"student_number"`
	StudentName   string `db:"student_name" json:"student_name"`
	Major         string `db:"major" json:"major"`
	Degree        string `db:"degree" json:"degree"`
}

// RequestFilter encapsulates allowed search parameters for listing requests.
type RequestFilter struct {
	Status    RequestStatus
	Major     string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// RequestStats summarizes request counts per workflow state.
type RequestStats struct {
	Total    int `db:"total" json:"total"`
	Pending  int `db:"pending" json:"pending"`
	Approved int `db:"approved" json:"approved"`
	Rejected int `db:"rejected" json:"rejected"`
}
