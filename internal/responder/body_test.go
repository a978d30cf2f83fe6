package responder

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/medunigraz/idmsync/internal/model"
)

func TestSummary(t *testing.T) {
	incident := &model.Incident{ID: uuid.New(), UID: "jdoe"}
	source := &model.ThreatSource{Name: "kaduu"}

	s := summary(incident, source)

	assert.Contains(t, s, incident.Reference())
	assert.Contains(t, s, "jdoe")
}

func TestDescription(t *testing.T) {
	incident := &model.Incident{
		ID:        uuid.New(),
		UID:       "jdoe",
		ForeignID: "leak-1",
		Details:   "<b>hunter2</b> found in dump",
	}
	source := &model.ThreatSource{Name: "kaduu"}

	d := description(incident, source)

	assert.Contains(t, d, incident.Reference())
	assert.Contains(t, d, "jdoe")
	assert.Contains(t, d, "kaduu")
	assert.Contains(t, d, "leak-1")
	assert.Contains(t, d, "hunter2 found in dump")
	assert.NotContains(t, d, "<b>")
}

func TestDescriptionWithoutDetails(t *testing.T) {
	incident := &model.Incident{ID: uuid.New(), UID: "jdoe", ForeignID: "leak-1"}

	d := description(incident, &model.ThreatSource{Name: "kaduu"})

	assert.NotContains(t, d, "Details:")
	assert.Contains(t, d, "rotated")
}
