package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/village-api/internal/models"
	"github.com/noah-isme/village-api/pkg/config"
	appErrors "github.com/noah-isme/village-api/pkg/errors"
)

func TestBackupDisabledWithoutURL(t *testing.T) {
	svc := NewBackupService(config.BackupConfig{}, nil, nil, nil)
	assert.False(t, svc.Enabled())

	_, err := svc.Upload(context.Background(), testClass)
	assert.True(t, errors.Is(err, appErrors.ErrBackupDisabled))
	_, err = svc.Download(context.Background(), testClass)
	assert.True(t, errors.Is(err, appErrors.ErrBackupDisabled))
}

func TestBackupUploadPostsSnapshot(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody models.Snapshot
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	f := newVillageFixture(t)
	f.student(t, "Ana", "A")
	metrics := NewMetricsService()
	svc := NewBackupService(config.BackupConfig{URL: server.URL + "/", Token: "s3cret", Timeout: time.Second}, f.svc, metrics, nil)

	res, err := svc.Upload(context.Background(), testClass)
	require.NoError(t, err)
	assert.Equal(t, "POST /backups/"+testClass, gotPath)
	assert.Equal(t, "Bearer s3cret", gotAuth)
	require.Len(t, gotBody.Students, 1)
	assert.Equal(t, "Ana", gotBody.Students[0].Name)
	assert.Equal(t, "upload", res.Operation)
	assert.Positive(t, res.Bytes)
}

func TestBackupUploadSurfacesRemoteFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := newVillageFixture(t)
	svc := NewBackupService(config.BackupConfig{URL: server.URL}, f.svc, nil, nil)

	_, err := svc.Upload(context.Background(), testClass)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrBackupFailed))
	assert.Equal(t, 1, calls, "backups are never retried")
}

func TestBackupDownloadReplacesLocalState(t *testing.T) {
	remote := &models.Snapshot{Students: []models.Student{{
		ID:   "r1",
		Name: "Remote",
		Bank: models.Bank{Balance: 50, Transactions: []models.Transaction{{ID: "t1", Amount: 50, Balance: 50, Reason: "seed"}}},
	}}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(remote)
	}))
	defer server.Close()

	f := newVillageFixture(t)
	f.student(t, "Local", "")
	svc := NewBackupService(config.BackupConfig{URL: server.URL}, f.svc, nil, nil)

	res, err := svc.Download(context.Background(), testClass)
	require.NoError(t, err)
	assert.Equal(t, "download", res.Operation)

	students, err := f.svc.ListStudents(context.Background(), testClass)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Remote", students[0].Name)
	assert.Equal(t, int64(50), students[0].Balance)
	assert.Equal(t, "Remote", f.scheduler.last[testClass].Students[0].Name, "restored state is saved locally")
}

func TestBackupDownloadErrors(t *testing.T) {
	status := http.StatusNotFound
	body := ""
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	defer server.Close()

	f := newVillageFixture(t)
	svc := NewBackupService(config.BackupConfig{URL: server.URL}, f.svc, nil, nil)

	_, err := svc.Download(context.Background(), testClass)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	status, body = http.StatusOK, "{not json"
	_, err = svc.Download(context.Background(), testClass)
	assert.True(t, errors.Is(err, appErrors.ErrBackupFailed))
}

func TestBackupDownloadAcceptsLooselyTypedAmounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"students":[{"id":"r1","name":"Remote","bank":{"balance":"oops","transactions":[
			{"id":"t1","amount":"40","balance":40,"reason":"seed","type":"plain"},
			{"id":"t2","amount":2.5,"balance":"x","reason":"tip","type":"plain"}
		]}}]}`)
	}))
	defer server.Close()

	f := newVillageFixture(t)
	svc := NewBackupService(config.BackupConfig{URL: server.URL}, f.svc, nil, nil)

	_, err := svc.Download(context.Background(), testClass)
	require.NoError(t, err)

	students, err := f.svc.ListStudents(context.Background(), testClass)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, int64(43), students[0].Balance)
}
