package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/medunigraz/idmsync/internal/model"
	"github.com/medunigraz/idmsync/internal/repo"
)

func (s *Server) listIncidents(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	query := repo.NewQuery().
		SetLimit(limit).
		SetOffset(offset).
		OrderBy(repo.CreatedField, repo.Desc)

	if state := r.URL.Query().Get("state"); state != "" {
		query = query.Where(repo.StateField, model.IncidentState(state))
	}

	var incidents []*model.Incident

	total, err := s.repo.List(r.Context(), model.Incident{}, &incidents, *query)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Items: incidents, Total: total})
}

// resolveIncident closes an incident. Resolving an already resolved incident
// is a conflict, surfaced by the state machine.
func (s *Server) resolveIncident(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	incident := &model.Incident{}

	found, err := s.repo.First(r.Context(), incident, *repo.NewQuery().Where(repo.IDField, id))
	if err != nil {
		writeRepoError(w, err)
		return
	}

	if !found {
		writeError(w, http.StatusNotFound, repo.ErrNotFound)
		return
	}

	err = incident.Resolve(r.Context())
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}

	_, err = s.repo.Patch(r.Context(), &model.Incident{State: incident.State},
		*repo.NewQuery().Where(repo.IDField, id))
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, incident)
}
