package registry_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medunigraz/idmsync/internal/config"
	"github.com/medunigraz/idmsync/internal/registry"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *registry.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := registry.NewClient(config.Registry{
		BaseURL:  server.URL,
		Token:    commoncfg.SourceRef{Source: commoncfg.EmbeddedSourceValue, Value: "registry-token"},
		PageSize: 2,
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)

	return client
}

func TestOrganizationsPagination(t *testing.T) {
	all := []registry.Organization{
		{ID: 1, Names: map[string]string{"en": "Rectorate"}},
		{ID: 2, Names: map[string]string{"en": "Pathology"}, Persons: []registry.Person{
			{ID: 10, Username: "jdoe", Employed: true},
		}},
		{ID: 3, Names: map[string]string{"en": "Surgery"}},
	}

	var requests int

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++

		assert.Equal(t, "/v1/organizations", r.URL.Path)
		assert.Equal(t, "Bearer registry-token", r.Header.Get("Authorization"))

		offset := 0
		if r.URL.Query().Get("offset") == "2" {
			offset = 2
		}

		end := min(offset+2, len(all))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": all[offset:end],
			"total": len(all),
		})
	})

	orgs, err := client.Organizations(t.Context())
	require.NoError(t, err)

	assert.Len(t, orgs, 3)
	assert.Equal(t, 2, requests)
	assert.Equal(t, "jdoe", orgs[1].Persons[0].Username)
}

func TestOrganizationsServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Organizations(t.Context())
	assert.ErrorIs(t, err, registry.ErrServerResponse)
}
