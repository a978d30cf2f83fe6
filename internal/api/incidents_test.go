package api_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medunigraz/idmsync/internal/model"
	"github.com/medunigraz/idmsync/internal/repo"
)

func TestListIncidents(t *testing.T) {
	h, r, _ := newAPI(t)

	require.NoError(t, r.Create(t.Context(), &model.Incident{
		ID:    uuid.New(),
		UID:   "jdoe",
		State: model.IncidentStateOpen,
	}))
	require.NoError(t, r.Create(t.Context(), &model.Incident{
		ID:    uuid.New(),
		UID:   "mmuster",
		State: model.IncidentStateResolved,
	}))

	t.Run("all incidents", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/v1/incidents", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var res struct {
			Items []model.Incident `json:"items"`
			Total int              `json:"total"`
		}

		decodeBody(t, rec, &res)
		assert.Equal(t, 2, res.Total)
	})

	t.Run("filtered by state", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/v1/incidents?state=OPEN", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var res struct {
			Items []model.Incident `json:"items"`
			Total int              `json:"total"`
		}

		decodeBody(t, rec, &res)
		require.Equal(t, 1, res.Total)
		assert.Equal(t, "jdoe", res.Items[0].UID)
	})
}

func TestResolveIncident(t *testing.T) {
	h, r, _ := newAPI(t)

	id := uuid.New()
	require.NoError(t, r.Create(t.Context(), &model.Incident{
		ID:    id,
		UID:   "jdoe",
		State: model.IncidentStateNotified,
	}))

	rec := doRequest(t, h, http.MethodPost, "/v1/incidents/"+id.String()+"/resolve", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resolved := &model.Incident{}
	decodeBody(t, rec, resolved)
	assert.Equal(t, model.IncidentStateResolved, resolved.State)

	stored := &model.Incident{}
	_, err := r.First(t.Context(), stored, *repo.NewQuery().Where(repo.IDField, id))
	require.NoError(t, err)
	assert.Equal(t, model.IncidentStateResolved, stored.State)

	t.Run("resolving again conflicts", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/v1/incidents/"+id.String()+"/resolve", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown incident", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/v1/incidents/"+uuid.NewString()+"/resolve", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
