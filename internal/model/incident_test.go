package model_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/medunigraz/idmsync/internal/model"
)

func TestIncidentTransitions(t *testing.T) {
	t.Run("open incident can be notified", func(t *testing.T) {
		incident := &model.Incident{ID: uuid.New(), State: model.IncidentStateOpen}

		err := incident.Notify(t.Context())
		assert.NoError(t, err)
		assert.Equal(t, model.IncidentStateNotified, incident.State)
	})

	t.Run("notified incident can be resolved", func(t *testing.T) {
		incident := &model.Incident{ID: uuid.New(), State: model.IncidentStateNotified}

		err := incident.Resolve(t.Context())
		assert.NoError(t, err)
		assert.Equal(t, model.IncidentStateResolved, incident.State)
	})

	t.Run("open incident can be resolved directly", func(t *testing.T) {
		incident := &model.Incident{ID: uuid.New(), State: model.IncidentStateOpen}

		err := incident.Resolve(t.Context())
		assert.NoError(t, err)
		assert.Equal(t, model.IncidentStateResolved, incident.State)
	})

	t.Run("resolved incident cannot be notified", func(t *testing.T) {
		incident := &model.Incident{ID: uuid.New(), State: model.IncidentStateResolved}

		err := incident.Notify(t.Context())
		assert.Error(t, err)
		assert.Equal(t, model.IncidentStateResolved, incident.State)
	})

	t.Run("resolved incident cannot be resolved again", func(t *testing.T) {
		incident := &model.Incident{ID: uuid.New(), State: model.IncidentStateResolved}

		err := incident.Resolve(t.Context())
		assert.Error(t, err)
	})
}

func TestIncidentReference(t *testing.T) {
	incident := &model.Incident{ID: uuid.New()}

	ref := incident.Reference()
	assert.NotEmpty(t, ref)
	assert.Equal(t, ref, incident.Reference())

	other := &model.Incident{ID: uuid.New()}
	assert.NotEqual(t, ref, other.Reference())
}
