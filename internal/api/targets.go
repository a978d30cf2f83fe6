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

type targetRequest struct {
	URL          string `json:"url"`
	BindDN       string `json:"bindDN"`
	BindPassword string `json:"bindPassword"`
	GroupBase    string `json:"groupBase"`
	UserBase     string `json:"userBase"`
	Enabled      bool   `json:"enabled"`
}

func (s *Server) listTargets(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	var targets []*model.LDAPTarget

	total, err := s.repo.List(r.Context(), model.LDAPTarget{}, &targets,
		*repo.NewQuery().SetLimit(limit).SetOffset(offset).OrderBy(repo.URLField, repo.Asc))
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Items: targets, Total: total})
}

func (s *Server) createTarget(w http.ResponseWriter, r *http.Request) {
	var req targetRequest

	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	target := &model.LDAPTarget{
		ID:           uuid.New(),
		URL:          sanitise(req.URL),
		BindDN:       sanitise(req.BindDN),
		BindPassword: req.BindPassword,
		GroupBase:    sanitise(req.GroupBase),
		UserBase:     sanitise(req.UserBase),
		Enabled:      req.Enabled,
	}

	err = s.repo.Create(r.Context(), target)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, target)
}

func (s *Server) getTarget(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	target := &model.LDAPTarget{}

	found, err := s.repo.First(r.Context(), target, *repo.NewQuery().Where(repo.IDField, id))
	if err != nil {
		writeRepoError(w, err)
		return
	}

	if !found {
		writeError(w, http.StatusNotFound, repo.ErrNotFound)
		return
	}

	writeJSON(w, http.StatusOK, target)
}

func (s *Server) updateTarget(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req targetRequest

	err = decodeJSON(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	target := &model.LDAPTarget{
		URL:          sanitise(req.URL),
		BindDN:       sanitise(req.BindDN),
		BindPassword: req.BindPassword,
		GroupBase:    sanitise(req.GroupBase),
		UserBase:     sanitise(req.UserBase),
		Enabled:      req.Enabled,
	}

	found, err := s.repo.Patch(r.Context(), target,
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

func (s *Server) deleteTarget(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	deleted, err := s.repo.Delete(r.Context(), &model.LDAPTarget{},
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

// syncTarget enqueues an organizations run for one target. The dry_run and
// language query parameters are carried in the task payload.
func (s *Server) syncTarget(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	target := &model.LDAPTarget{}

	found, err := s.repo.First(r.Context(), target, *repo.NewQuery().Where(repo.IDField, id))
	if err != nil {
		writeRepoError(w, err)
		return
	}

	if !found {
		writeError(w, http.StatusNotFound, repo.ErrNotFound)
		return
	}

	payload := tasks.OrganizationsPayload{
		TargetID: &id,
		Language: r.URL.Query().Get("language"),
		DryRun:   r.URL.Query().Get("dry_run") == "true",
	}

	data, err := payload.ToBytes()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	info, err := s.enqueuer.EnqueueTask(r.Context(), asynq.NewTask(config.TypeOrganizationsTask, data))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"taskId": info.ID})
}
