package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Silk760/course-withdrawal/internal/middleware"
	"github.com/Silk760/course-withdrawal/internal/models"
	"github.com/Silk760/course-withdrawal/internal/service"
	"github.com/Silk760/course-withdrawal/pkg/storage"
)

type stubAdminRequestStore struct {
	items  []models.WithdrawalRequestDetail
	stats  *models.RequestStats
	status models.RequestStatus
}

func (s *stubAdminRequestStore) FindDetailByID(ctx context.Context, id string) (*models.WithdrawalRequestDetail, error) {
	if len(s.items) == 0 {
		return nil, context.Canceled
	}
	return &s.items[0], nil
}

func (s *stubAdminRequestStore) List(ctx context.Context, filter models.RequestFilter) ([]models.WithdrawalRequestDetail, int, error) {
	return s.items, len(s.items), nil
}

func (s *stubAdminRequestStore) Stats(ctx context.Context) (*models.RequestStats, error) {
	return s.stats, nil
}

func (s *stubAdminRequestStore) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	s.status = status
	return nil
}

type stubCounter struct{}

func (stubCounter) CountRequests(ctx context.Context, studentDBID string) (int, error) {
	return 1, nil
}

func newAdminRouter(t *testing.T, store *stubAdminRequestStore) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	authSvc := newAuthService(t)
	signer := storage.NewSignedURLSigner("test-secret", time.Minute)
	adminSvc := service.NewAdminService(store, stubCounter{}, nil, nil, signer, nil, nil, nil, time.Minute)
	h := NewAdminHandler(adminSvc, nil)

	r := gin.New()
	admin := r.Group("/admin", middleware.JWT(authSvc))
	admin.GET("/requests", h.List)
	admin.GET("/requests/stats", h.Stats)
	admin.GET("/requests/export", h.Export)
	admin.PATCH("/requests/:id/status", h.UpdateStatus)

	res, err := authSvc.Login(models.LoginRequest{Email: "registrar@ut.edu.sa", Password: "s3cret-admin"})
	require.NoError(t, err)
	return r, res.AccessToken
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r, _ := newAdminRouter(t, &stubAdminRequestStore{stats: &models.RequestStats{}})

	req := httptest.NewRequest(http.MethodGet, "/admin/requests", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/requests", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminHandlerList(t *testing.T) {
	store := &stubAdminRequestStore{items: []models.WithdrawalRequestDetail{{
		WithdrawalRequest: models.WithdrawalRequest{
			ID:         "req-1",
			CourseCode: "CSC 1201",
			Status:     models.RequestStatusPending,
			Errors:     json.RawMessage(`[]`),
			Warnings:   json.RawMessage(`[]`),
		},
		StudentNumber: "451007699",
		StudentName:   "سارة القحطاني",
	}}}
	r, token := newAdminRouter(t, store)

	req := httptest.NewRequest(http.MethodGet, "/admin/requests?status=pending&page=1&limit=10", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "451007699")
	assert.Contains(t, w.Body.String(), `"pagination"`)
}

func TestAdminHandlerStats(t *testing.T) {
	store := &stubAdminRequestStore{stats: &models.RequestStats{Total: 5, Pending: 2, Approved: 2, Rejected: 1}}
	r, token := newAdminRouter(t, store)

	req := httptest.NewRequest(http.MethodGet, "/admin/requests/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":5`)
}

func TestAdminHandlerUpdateStatus(t *testing.T) {
	store := &stubAdminRequestStore{}
	r, token := newAdminRouter(t, store)

	payload, _ := json.Marshal(map[string]string{"status": "approved"})
	req := httptest.NewRequest(http.MethodPatch, "/admin/requests/0c9b0e9e-5f5a-4a7b-9f7e-0c7a4f3f2c21/status", bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RequestStatusApproved, store.status)

	t.Run("invalid status rejected", func(t *testing.T) {
		payload, _ := json.Marshal(map[string]string{"status": "archived"})
		req := httptest.NewRequest(http.MethodPatch, "/admin/requests/0c9b0e9e-5f5a-4a7b-9f7e-0c7a4f3f2c21/status", bytes.NewReader(payload))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAdminHandlerExport(t *testing.T) {
	store := &stubAdminRequestStore{items: []models.WithdrawalRequestDetail{{
		WithdrawalRequest: models.WithdrawalRequest{ID: "req-1", CourseCode: "CSC 1201"},
		StudentNumber:     "451007699",
	}}}
	r, token := newAdminRouter(t, store)

	req := httptest.NewRequest(http.MethodGet, "/admin/requests/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "CSC 1201")
}
