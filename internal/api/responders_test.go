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

func TestCreateMailResponder(t *testing.T) {
	h, r, _ := newAPI(t)

	sourceID := uuid.New()

	rec := doRequest(t, h, http.MethodPost, "/v1/responders/mail", map[string]any{
		"name":       "soc-mail",
		"enabled":    true,
		"subject":    "Leaked credential confirmed",
		"recipients": []string{"soc@example.com", "ciso@example.com"},
		"sourceIds":  []uuid.UUID{sourceID},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	created := &model.MailResponder{}
	decodeBody(t, rec, created)
	require.Len(t, created.Recipients, 2)

	base := &model.Responder{}
	found, err := r.First(t.Context(), base, *repo.NewQuery().Where(repo.IDField, created.ResponderID))
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, "soc-mail", base.Name)
	assert.Equal(t, model.ResponderKindMail, base.Kind)
	assert.True(t, base.Enabled)

	binding := &model.SourceResponder{}
	found, err = r.First(t.Context(), binding,
		*repo.NewQuery().Where(repo.ResponderIDField, created.ResponderID))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sourceID, binding.SourceID)
}

func TestListMailResponders(t *testing.T) {
	h, r, _ := newAPI(t)

	responderID := uuid.New()
	require.NoError(t, r.Create(t.Context(), &model.MailResponder{
		ResponderID: responderID,
		Subject:     "Leaked credential",
		Recipients: []model.MailResponderRecipient{
			{ID: uuid.New(), ResponderID: responderID, Address: "soc@example.com"},
		},
	}))

	rec := doRequest(t, h, http.MethodGet, "/v1/responders/mail", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Items []model.MailResponder `json:"items"`
		Total int                   `json:"total"`
	}

	decodeBody(t, rec, &res)

	require.Equal(t, 1, res.Total)
	require.Len(t, res.Items[0].Recipients, 1)
	assert.Equal(t, "soc@example.com", res.Items[0].Recipients[0].Address)
}

func TestGetMailResponder(t *testing.T) {
	h, r, _ := newAPI(t)

	responderID := uuid.New()
	require.NoError(t, r.Create(t.Context(), &model.MailResponder{
		ResponderID: responderID,
		Subject:     "Leaked credential",
		Recipients: []model.MailResponderRecipient{
			{ID: uuid.New(), ResponderID: responderID, Address: "soc@example.com"},
		},
	}))

	t.Run("found", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/v1/responders/mail/"+responderID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		got := &model.MailResponder{}
		decodeBody(t, rec, got)

		assert.Equal(t, "Leaked credential", got.Subject)
		require.Len(t, got.Recipients, 1)
		assert.Equal(t, "soc@example.com", got.Recipients[0].Address)
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/v1/responders/mail/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCreateJiraResponder(t *testing.T) {
	h, r, _ := newAPI(t)

	rec := doRequest(t, h, http.MethodPost, "/v1/responders/jira", map[string]any{
		"name":      "soc-jira",
		"enabled":   true,
		"project":   "SEC",
		"issueType": "Task",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	created := &model.JiraResponder{}
	decodeBody(t, rec, created)
	assert.Equal(t, "SEC", created.Project)

	base := &model.Responder{}
	found, err := r.First(t.Context(), base, *repo.NewQuery().Where(repo.IDField, created.ResponderID))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, model.ResponderKindJira, base.Kind)
}

func TestGetJiraResponder(t *testing.T) {
	h, r, _ := newAPI(t)

	responderID := uuid.New()
	require.NoError(t, r.Create(t.Context(), &model.JiraResponder{
		ResponderID: responderID,
		Project:     "SEC",
		IssueType:   "Task",
	}))

	rec := doRequest(t, h, http.MethodGet, "/v1/responders/jira/"+responderID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := &model.JiraResponder{}
	decodeBody(t, rec, got)
	assert.Equal(t, "SEC", got.Project)
}

func TestDeleteMailResponder(t *testing.T) {
	h, r, _ := newAPI(t)

	responderID := uuid.New()
	require.NoError(t, r.Create(t.Context(), &model.Responder{
		ID:   responderID,
		Name: "soc-mail",
		Kind: model.ResponderKindMail,
	}))
	require.NoError(t, r.Create(t.Context(), &model.MailResponder{
		ResponderID: responderID,
		Subject:     "x",
	}))
	require.NoError(t, r.Create(t.Context(), &model.SourceResponder{
		ID:          uuid.New(),
		SourceID:    uuid.New(),
		ResponderID: responderID,
	}))

	rec := doRequest(t, h, http.MethodDelete, "/v1/responders/mail/"+responderID.String(), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	found, err := r.First(t.Context(), &model.Responder{},
		*repo.NewQuery().Where(repo.IDField, responderID))
	require.NoError(t, err)
	assert.False(t, found, "base responder row must be gone")

	found, err = r.First(t.Context(), &model.SourceResponder{},
		*repo.NewQuery().Where(repo.ResponderIDField, responderID))
	require.NoError(t, err)
	assert.False(t, found, "source bindings must be gone")

	rec = doRequest(t, h, http.MethodDelete, "/v1/responders/mail/"+responderID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
