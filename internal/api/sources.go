package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/julienschmidt/httprouter"

	"github.com/medunigraz/idmsync/internal/async/tasks"
	"github.com/medunigraz/idmsync/internal/config"
	"github.com/medunigraz/idmsync/internal/model"
	"github.com/medunigraz/idmsync/internal/repo"
)

type sourceRequest struct {
	Name       string           `json:"name"`
	Kind       model.SourceKind `json:"kind"`
	TargetID   uuid.UUID        `json:"targetId"`
	APIBaseURL string           `json:"apiBaseURL"`
	APIToken   string           `json:"apiToken"`
	LDAPFilter string           `json:"ldapFilter"`
	LDAPUid    string           `json:"ldapUid"`
	Enabled    bool             `json:"enabled"`
}

func (s *Server) listSources(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	var sources []*model.ThreatSource

	total, err := s.repo.List(r.Context(), model.ThreatSource{}, &sources,
		*repo.NewQuery().SetLimit(limit).SetOffset(offset).OrderBy(repo.NameField, repo.Asc))
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Items: sources, Total: total})
}

func (s *Server) createSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest

	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	source := &model.ThreatSource{
		ID:         uuid.New(),
		Name:       sanitise(req.Name),
		Kind:       req.Kind,
		TargetID:   req.TargetID,
		APIBaseURL: sanitise(req.APIBaseURL),
		APIToken:   req.APIToken,
		LDAPFilter: req.LDAPFilter,
		LDAPUid:    sanitise(req.LDAPUid),
		Enabled:    req.Enabled,
	}

	err = s.repo.Create(r.Context(), source)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, source)
}

func (s *Server) getSource(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	source := &model.ThreatSource{}

	found, err := s.repo.First(r.Context(), source, *repo.NewQuery().Where(repo.IDField, id))
	if err != nil {
		writeRepoError(w, err)
		return
	}

	if !found {
		writeError(w, http.StatusNotFound, repo.ErrNotFound)
		return
	}

	writeJSON(w, http.StatusOK, source)
}

func (s *Server) updateSource(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req sourceRequest

	err = decodeJSON(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	source := &model.ThreatSource{
		Name:       sanitise(req.Name),
		Kind:       req.Kind,
		TargetID:   req.TargetID,
		APIBaseURL: sanitise(req.APIBaseURL),
		APIToken:   req.APIToken,
		LDAPFilter: req.LDAPFilter,
		LDAPUid:    sanitise(req.LDAPUid),
		Enabled:    req.Enabled,
	}

	found, err := s.repo.Patch(r.Context(), source,
		*repo.NewQuery().Where(repo.IDField, id).SetUpdateAll())
	if err != nil {
		writeRepoError(w, err)
		return
	}

	if !found {
		writeError(w, http.StatusNotFound, repo.ErrNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

func (s *Server) deleteSource(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	deleted, err := s.repo.Delete(r.Context(), &model.ThreatSource{},
		*repo.NewQuery().Where(repo.IDField, id))
	if err != nil {
		writeRepoError(w, err)
		return
	}

	if !deleted {
		writeError(w, http.StatusNotFound, repo.ErrNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// checkSource enqueues a threat check run for one source.
func (s *Server) checkSource(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	source := &model.ThreatSource{}

	found, err := s.repo.First(r.Context(), source, *repo.NewQuery().Where(repo.IDField, id))
	if err != nil {
		writeRepoError(w, err)
		return
	}

	if !found {
		writeError(w, http.StatusNotFound, repo.ErrNotFound)
		return
	}

	payload := tasks.ThreatCheckPayload{SourceID: &id}

	data, err := payload.ToBytes()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	info, err := s.enqueuer.EnqueueTask(r.Context(), asynq.NewTask(config.TypeThreatCheckTask, data))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"taskId": info.ID})
}
