package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medunigraz/idmsync/internal/async/tasks"
	"github.com/medunigraz/idmsync/internal/config"
	"github.com/medunigraz/idmsync/internal/model"
	"github.com/medunigraz/idmsync/internal/repo"
)

func TestCreateSource(t *testing.T) {
	h, r, _ := newAPI(t)

	targetID := uuid.New()

	rec := doRequest(t, h, http.MethodPost, "/v1/sources", map[string]any{
		"name":       "<b>kaduu</b>",
		"kind":       "KADUU",
		"targetId":   targetID,
		"apiBaseURL": "https://api.kaduu.example.com",
		"apiToken":   "token",
		"ldapFilter": "(mail={identity})",
		"ldapUid":    "cn",
		"enabled":    true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	created := &model.ThreatSource{}
	decodeBody(t, rec, created)

	assert.Equal(t, "kaduu", created.Name, "markup must be stripped")
	assert.Equal(t, model.SourceKindKaduu, created.Kind)
	assert.Equal(t, targetID, created.TargetID)

	stored := &model.ThreatSource{}
	found, err := r.First(t.Context(), stored, *repo.NewQuery().Where(repo.IDField, created.ID))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "(mail={identity})", stored.LDAPFilter)
}

func TestUpdateSource(t *testing.T) {
	h, r, _ := newAPI(t)

	id := uuid.New()
	require.NoError(t, r.Create(t.Context(), &model.ThreatSource{
		ID:      id,
		Name:    "kaduu",
		Enabled: true,
	}))

	rec := doRequest(t, h, http.MethodPut, "/v1/sources/"+id.String(), map[string]any{
		"name":    "kaduu",
		"enabled": false,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	stored := &model.ThreatSource{}
	_, err := r.First(t.Context(), stored, *repo.NewQuery().Where(repo.IDField, id))
	require.NoError(t, err)
	assert.False(t, stored.Enabled)
}

func TestDeleteSource(t *testing.T) {
	h, r, _ := newAPI(t)

	id := uuid.New()
	require.NoError(t, r.Create(t.Context(), &model.ThreatSource{ID: id, Name: "kaduu"}))

	rec := doRequest(t, h, http.MethodDelete, "/v1/sources/"+id.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, h, http.MethodDelete, "/v1/sources/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckSource(t *testing.T) {
	h, r, enqueuer := newAPI(t)

	id := uuid.New()
	require.NoError(t, r.Create(t.Context(), &model.ThreatSource{ID: id, Name: "kaduu", Enabled: true}))

	rec := doRequest(t, h, http.MethodPost, "/v1/sources/"+id.String()+"/check", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Len(t, enqueuer.tasks, 1)
	assert.Equal(t, config.TypeThreatCheckTask, enqueuer.tasks[0].Type())

	var payload tasks.ThreatCheckPayload
	require.NoError(t, json.Unmarshal(enqueuer.tasks[0].Payload(), &payload))

	require.NotNil(t, payload.SourceID)
	assert.Equal(t, id, *payload.SourceID)
}

func TestCheckSourceUnknown(t *testing.T) {
	h, _, enqueuer := newAPI(t)

	rec := doRequest(t, h, http.MethodPost, "/v1/sources/"+uuid.NewString()+"/check", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, enqueuer.tasks)
}
