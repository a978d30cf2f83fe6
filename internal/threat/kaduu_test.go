package threat_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medunigraz/idmsync/internal/model"
	"github.com/medunigraz/idmsync/internal/threat"
)

func newFeed(t *testing.T, handler http.HandlerFunc) threat.Feed {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return threat.NewKaduuFeed(&model.ThreatSource{
		APIBaseURL: server.URL,
		APIToken:   "feed-token",
	})
}

func TestKaduuFeedLeaksSince(t *testing.T) {
	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	feed := newFeed(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/leaks", r.URL.Path)
		assert.Equal(t, "Bearer feed-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2026-08-01T00:00:00Z", r.URL.Query().Get("since"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []threat.Leak{
				{ID: "leak-1", Identity: "jdoe@example.com", Password: "hunter2"},
				{ID: "leak-2", Raw: "mmuster:secret"},
			},
			"total": 2,
		})
	})

	leaks, err := feed.LeaksSince(t.Context(), &since)
	require.NoError(t, err)

	require.Len(t, leaks, 2)
	assert.Equal(t, "jdoe@example.com", leaks[0].Identity)
	assert.Equal(t, "mmuster:secret", leaks[1].Raw)
}

func TestKaduuFeedWithoutSince(t *testing.T) {
	feed := newFeed(t, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("since"))

		_ = json.NewEncoder(w).Encode(map[string]any{"items": []threat.Leak{}, "total": 0})
	})

	leaks, err := feed.LeaksSince(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, leaks)
}

func TestKaduuFeedServerError(t *testing.T) {
	feed := newFeed(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := feed.LeaksSince(t.Context(), nil)
	assert.ErrorIs(t, err, threat.ErrFeedResponse)
}
