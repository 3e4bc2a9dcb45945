package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"lmswatch-backend/internal/service"
	"lmswatch-backend/internal/session"
	"lmswatch-backend/internal/telemetry"

	"github.com/stretchr/testify/require"
)

type fakeJobs struct {
	synced  []int64
	checked []int64
	first   bool
}

func (f *fakeJobs) SyncCourses(ctx context.Context, userID int64) error {
	switch userID {
	case 404:
		return service.ErrUnknownUser
	case 401:
		return session.ErrLoginFailed
	case 500:
		return errors.New("portal down")
	}
	f.synced = append(f.synced, userID)
	return nil
}

func (f *fakeJobs) CheckNewMessages(ctx context.Context, userID int64, firstBatch bool) (int, error) {
	if userID == 404 {
		return 0, service.ErrUnknownUser
	}
	f.checked = append(f.checked, userID)
	f.first = firstBatch
	return 3, nil
}

func TestRouter(t *testing.T) {
	jobs := &fakeJobs{}
	router := NewHandler(jobs, &telemetry.TestAPI{}).Router()

	do := func(method, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		return rec
	}

	testCases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodPost, "/users/7/courses/sync", http.StatusOK},
		{http.MethodPost, "/users/abc/courses/sync", http.StatusBadRequest},
		{http.MethodPost, "/users/404/courses/sync", http.StatusNotFound},
		{http.MethodPost, "/users/401/courses/sync", http.StatusUnauthorized},
		{http.MethodPost, "/users/500/courses/sync", http.StatusBadGateway},
		{http.MethodGet, "/users/7/courses/sync", http.StatusMethodNotAllowed},
		{http.MethodPost, "/users/404/messages/check", http.StatusNotFound},
	}
	for _, test := range testCases {
		rec := do(test.method, test.path)
		require.Equal(t, test.status, rec.Code, "%s %s", test.method, test.path)
	}
	require.Equal(t, []int64{7}, jobs.synced)

	rec := do(http.MethodPost, "/users/9/messages/check?first=true")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		UserID int64 `json:"user_id"`
		Stored int   `json:"stored"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.EqualValues(t, 9, body.UserID)
	require.Equal(t, 3, body.Stored)
	require.True(t, jobs.first)
	require.Equal(t, []int64{9}, jobs.checked)
}
