package service

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/Silk760/course-withdrawal/pkg/errors"
	"github.com/Silk760/course-withdrawal/pkg/storage"
)

func newTestReportService(t *testing.T, requests *mockAdminRequestStore) *ReportService {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewReportService(requests, files, nil, nil, 1, 1)
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)
	return svc
}

func TestReportServiceRendersPDF(t *testing.T) {
	svc := newTestReportService(t, &mockAdminRequestStore{detail: sampleDetail()})

	status, err := svc.Enqueue(context.Background(), testRequestID)
	require.NoError(t, err)
	assert.Equal(t, ReportStatusQueued, status.Status)
	assert.Equal(t, testRequestID, status.RequestID)

	require.Eventually(t, func() bool {
		current, err := svc.Status(status.ID)
		return err == nil && current.Status == ReportStatusDone
	}, 5*time.Second, 20*time.Millisecond)

	file, filename, err := svc.Open(status.ID)
	require.NoError(t, err)
	defer file.Close()
	assert.Contains(t, filename, ".pdf")

	header := make([]byte, 4)
	_, err = io.ReadFull(file, header)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(header))
}

func TestReportServiceEnqueueUnknownRequest(t *testing.T) {
	svc := newTestReportService(t, &mockAdminRequestStore{detailErr: sql.ErrNoRows})

	_, err := svc.Enqueue(context.Background(), testRequestID)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestReportServiceStatusUnknownJob(t *testing.T) {
	svc := newTestReportService(t, &mockAdminRequestStore{detail: sampleDetail()})

	_, err := svc.Status("unknown-job")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestReportServiceOpenBeforeDone(t *testing.T) {
	requests := &mockAdminRequestStore{detail: sampleDetail()}
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewReportService(requests, files, nil, nil, 1, 1)
	svc.Start(context.Background())
	defer svc.Stop()

	status, err := svc.Enqueue(context.Background(), testRequestID)
	require.NoError(t, err)

	// Poll immediately: the job may still be queued or processing.
	if _, _, err := svc.Open(status.ID); err != nil {
		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	}
}
