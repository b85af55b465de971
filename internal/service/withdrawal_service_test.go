package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Silk760/course-withdrawal/internal/eligibility"
	"github.com/Silk760/course-withdrawal/internal/models"
	"github.com/Silk760/course-withdrawal/internal/repository"
	"github.com/Silk760/course-withdrawal/internal/transcript"
	appErrors "github.com/Silk760/course-withdrawal/pkg/errors"
)

type mockStudentStore struct {
	upserted *models.Student
	err      error
}

func (m *mockStudentStore) Upsert(ctx context.Context, student *models.Student) error {
	if m.err != nil {
		return m.err
	}
	student.ID = "student-db-1"
	m.upserted = student
	return nil
}

type mockRequestStore struct {
	created   *models.WithdrawalRequest
	createErr error
	found     *models.WithdrawalRequest
	findErr   error
	existing  *models.WithdrawalRequest
}

func (m *mockRequestStore) Create(ctx context.Context, request *models.WithdrawalRequest) error {
	if m.createErr != nil {
		return m.createErr
	}
	request.ID = "req-1"
	request.Status = models.RequestStatusPending
	m.created = request
	return nil
}

func (m *mockRequestStore) FindByID(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.found, nil
}

func (m *mockRequestStore) FindExisting(ctx context.Context, studentDBID, courseCode, semester, year string) (*models.WithdrawalRequest, error) {
	if m.existing == nil {
		return nil, sql.ErrNoRows
	}
	return m.existing, nil
}

type mockDocumentStore struct {
	saved map[string][]byte
	err   error
}

func (m *mockDocumentStore) Save(filename string, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[filename] = data
	return filename, nil
}

func (m *mockDocumentStore) SaveStream(filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return m.Save(filename, data)
}

func newTestWithdrawalService(students *mockStudentStore, requests *mockRequestStore, docs *mockDocumentStore) *WithdrawalService {
	parser := transcript.NewParser(transcript.Policy{ReferenceHijriYear: 47, GraduationCreditThreshold: 18}, nil)
	evaluator := eligibility.NewEvaluator(eligibility.Limits{})
	return NewWithdrawalService(students, requests, docs, &transcript.PlainTextExtractor{}, parser, evaluator, nil, nil, nil)
}

const eligibleTranscript = `الاسم : سارة القحطاني
الرقم الجامعي : 441007699
الكلية : كلية الحاسبات وتقنية المعلومات
التخصص : علوم الحاسب
المعدل التراكمي 3.75
الساعات المتبقية: 60
هـ1444/1445 الفصل الأول
هـ1444/1445 الفصل الثاني
هـ1445/1446 الفصل الأول
`

func TestWithdrawalServiceSubmit(t *testing.T) {
	students := &mockStudentStore{}
	requests := &mockRequestStore{}
	docs := &mockDocumentStore{}
	svc := newTestWithdrawalService(students, requests, docs)

	result, err := svc.Submit(context.Background(), Submission{
		Request: eligibility.Request{
			CourseCode: "CSC 1201",
			CourseName: "مقدمة في البرمجة",
			Semester:   "الفصل الأول",
			Year:       "1446",
		},
		Transcript:     strings.NewReader(eligibleTranscript),
		TranscriptName: "transcript.txt",
	})
	require.NoError(t, err)

	assert.Equal(t, "req-1", result.RequestID)
	assert.True(t, result.Result.Eligible)
	assert.Len(t, result.Result.RulesChecked, 9)

	require.NotNil(t, students.upserted)
	assert.Equal(t, "441007699", students.upserted.StudentID)
	assert.Equal(t, "سارة القحطاني", students.upserted.StudentName)

	require.NotNil(t, requests.created)
	assert.Equal(t, "student-db-1", requests.created.StudentID)
	assert.True(t, requests.created.Eligible)
	assert.NotEmpty(t, requests.created.TranscriptFile)

	var storedErrors []string
	require.NoError(t, json.Unmarshal(requests.created.Errors, &storedErrors))
	assert.Empty(t, storedErrors)

	// The normalized transcript text is what gets archived.
	assert.Len(t, docs.saved, 1)
}

func TestWithdrawalServiceSubmitIneligibleStillPersists(t *testing.T) {
	students := &mockStudentStore{}
	requests := &mockRequestStore{}
	svc := newTestWithdrawalService(students, requests, &mockDocumentStore{})

	// A near-empty transcript reads as a first-year student.
	result, err := svc.Submit(context.Background(), Submission{
		Request:        eligibility.Request{CourseCode: "CSC 1201"},
		Transcript:     strings.NewReader("الاسم : طالب مستجد"),
		TranscriptName: "transcript.txt",
	})
	require.NoError(t, err)

	assert.False(t, result.Result.Eligible)
	require.NotNil(t, requests.created)
	assert.False(t, requests.created.Eligible)
}

func TestWithdrawalServiceSubmitValidation(t *testing.T) {
	svc := newTestWithdrawalService(&mockStudentStore{}, &mockRequestStore{}, &mockDocumentStore{})

	t.Run("missing course code", func(t *testing.T) {
		_, err := svc.Submit(context.Background(), Submission{
			Transcript: strings.NewReader(eligibleTranscript),
		})
		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	})

	t.Run("missing transcript", func(t *testing.T) {
		_, err := svc.Submit(context.Background(), Submission{
			Request: eligibility.Request{CourseCode: "CSC 1201"},
		})
		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	})
}

func TestWithdrawalServiceSubmitDuplicate(t *testing.T) {
	requests := &mockRequestStore{
		createErr: repository.ErrDuplicate,
		existing:  &models.WithdrawalRequest{ID: testRequestID},
	}
	svc := newTestWithdrawalService(&mockStudentStore{}, requests, &mockDocumentStore{})

	_, err := svc.Submit(context.Background(), Submission{
		Request:        eligibility.Request{CourseCode: "CSC 1201", Semester: "الفصل الأول", Year: "1446"},
		Transcript:     strings.NewReader(eligibleTranscript),
		TranscriptName: "transcript.txt",
	})

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrDuplicateRequest.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrDuplicateRequest.Status, appErr.Status)
}

func TestWithdrawalServiceStatus(t *testing.T) {
	stored := &models.WithdrawalRequest{
		ID:             "0c9b0e9e-5f5a-4a7b-9f7e-0c7a4f3f2c21",
		CourseCode:     "CSC 1201",
		Status:         models.RequestStatusPending,
		Eligible:       true,
		Errors:         json.RawMessage(`[]`),
		Warnings:       json.RawMessage(`["تنبيه"]`),
		TranscriptFile: "secret-location.txt",
	}
	requests := &mockRequestStore{found: stored}
	svc := newTestWithdrawalService(&mockStudentStore{}, requests, &mockDocumentStore{})

	view, err := svc.Status(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, view.ID)
	assert.Equal(t, models.RequestStatusPending, view.Status)
	assert.True(t, view.Eligible)
	assert.JSONEq(t, `["تنبيه"]`, string(view.Warnings))

	t.Run("invalid id", func(t *testing.T) {
		_, err := svc.Status(context.Background(), "not-a-uuid")
		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	})

	t.Run("not found", func(t *testing.T) {
		missing := &mockRequestStore{findErr: sql.ErrNoRows}
		svc := newTestWithdrawalService(&mockStudentStore{}, missing, &mockDocumentStore{})
		_, err := svc.Status(context.Background(), stored.ID)
		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	})
}
