package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medunigraz/idmsync/internal/api"
	"github.com/medunigraz/idmsync/internal/config"
	repomock "github.com/medunigraz/idmsync/internal/repo/mock"
)

type stubEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (s *stubEnqueuer) EnqueueTask(
	_ context.Context,
	task *asynq.Task,
	_ ...asynq.Option,
) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}

	s.tasks = append(s.tasks, task)

	return &asynq.TaskInfo{ID: "task-1"}, nil
}

func newAPI(t *testing.T) (http.Handler, *repomock.InMemoryRepository, *stubEnqueuer) {
	t.Helper()

	r := repomock.NewInMemoryRepository()
	enqueuer := &stubEnqueuer{}

	server := api.NewServer(config.HTTPServer{
		Address:         ":0",
		ShutdownTimeout: time.Second,
	}, r, enqueuer)

	return server.Handler(), r, enqueuer
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(data)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, reader))

	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()

	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestHealthz(t *testing.T) {
	h, _, _ := newAPI(t)

	rec := doRequest(t, h, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h, _, _ := newAPI(t)

	rec := doRequest(t, h, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}
