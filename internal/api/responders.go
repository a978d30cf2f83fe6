package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/medunigraz/idmsync/internal/model"
	"github.com/medunigraz/idmsync/internal/repo"
)

type mailResponderRequest struct {
	Name       string      `json:"name"`
	Enabled    bool        `json:"enabled"`
	Subject    string      `json:"subject"`
	Recipients []string    `json:"recipients"`
	SourceIDs  []uuid.UUID `json:"sourceIds"`
}

type jiraResponderRequest struct {
	Name      string      `json:"name"`
	Enabled   bool        `json:"enabled"`
	Project   string      `json:"project"`
	IssueType string      `json:"issueType"`
	SourceIDs []uuid.UUID `json:"sourceIds"`
}

func (s *Server) listMailResponders(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	var responders []*model.MailResponder

	total, err := s.repo.List(r.Context(), model.MailResponder{}, &responders,
		*repo.NewQuery().SetLimit(limit).SetOffset(offset).Preload("Recipients"))
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Items: responders, Total: total})
}

func (s *Server) createMailResponder(w http.ResponseWriter, r *http.Request) {
	var req mailResponderRequest

	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	responderID := uuid.New()

	recipients := make([]model.MailResponderRecipient, 0, len(req.Recipients))
	for _, address := range req.Recipients {
		recipients = append(recipients, model.MailResponderRecipient{
			ID:          uuid.New(),
			ResponderID: responderID,
			Address:     sanitise(address),
		})
	}

	mailResponder := &model.MailResponder{
		ResponderID: responderID,
		Subject:     sanitise(req.Subject),
		Recipients:  recipients,
	}

	err = s.repo.Transaction(r.Context(), func(ctx context.Context, tx repo.Repo) error {
		err := tx.Create(ctx, &model.Responder{
			ID:      responderID,
			Name:    sanitise(req.Name),
			Kind:    model.ResponderKindMail,
			Enabled: req.Enabled,
		})
		if err != nil {
			return err
		}

		err = tx.Create(ctx, mailResponder)
		if err != nil {
			return err
		}

		return bindSources(ctx, tx, responderID, req.SourceIDs)
	})
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, mailResponder)
}

func (s *Server) getMailResponder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	responder := &model.MailResponder{}

	found, err := s.repo.First(r.Context(), responder,
		*repo.NewQuery().Where(repo.ResponderIDField, id).Preload("Recipients"))
	if err != nil {
		writeRepoError(w, err)
		return
	}

	if !found {
		writeError(w, http.StatusNotFound, repo.ErrNotFound)
		return
	}

	writeJSON(w, http.StatusOK, responder)
}

func (s *Server) deleteMailResponder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.deleteResponder(w, r, ps, &model.MailResponder{})
}

func (s *Server) listJiraResponders(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	var responders []*model.JiraResponder

	total, err := s.repo.List(r.Context(), model.JiraResponder{}, &responders,
		*repo.NewQuery().SetLimit(limit).SetOffset(offset))
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Items: responders, Total: total})
}

func (s *Server) createJiraResponder(w http.ResponseWriter, r *http.Request) {
	var req jiraResponderRequest

	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	responderID := uuid.New()

	jiraResponder := &model.JiraResponder{
		ResponderID: responderID,
		Project:     sanitise(req.Project),
		IssueType:   sanitise(req.IssueType),
	}

	err = s.repo.Transaction(r.Context(), func(ctx context.Context, tx repo.Repo) error {
		err := tx.Create(ctx, &model.Responder{
			ID:      responderID,
			Name:    sanitise(req.Name),
			Kind:    model.ResponderKindJira,
			Enabled: req.Enabled,
		})
		if err != nil {
			return err
		}

		err = tx.Create(ctx, jiraResponder)
		if err != nil {
			return err
		}

		return bindSources(ctx, tx, responderID, req.SourceIDs)
	})
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, jiraResponder)
}

func (s *Server) getJiraResponder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	responder := &model.JiraResponder{}

	found, err := s.repo.First(r.Context(), responder,
		*repo.NewQuery().Where(repo.ResponderIDField, id))
	if err != nil {
		writeRepoError(w, err)
		return
	}

	if !found {
		writeError(w, http.StatusNotFound, repo.ErrNotFound)
		return
	}

	writeJSON(w, http.StatusOK, responder)
}

func (s *Server) deleteJiraResponder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.deleteResponder(w, r, ps, &model.JiraResponder{})
}

// deleteResponder removes the kind-specific row, the source bindings and the
// base responder row in one transaction.
func (s *Server) deleteResponder(
	w http.ResponseWriter,
	r *http.Request,
	ps httprouter.Params,
	kindRow repo.Resource,
) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	found := false

	err = s.repo.Transaction(r.Context(), func(ctx context.Context, tx repo.Repo) error {
		found, err = tx.Delete(ctx, kindRow, *repo.NewQuery().Where(repo.ResponderIDField, id))
		if err != nil {
			return err
		}

		if !found {
			return nil
		}

		_, err = tx.Delete(ctx, &model.SourceResponder{},
			*repo.NewQuery().Where(repo.ResponderIDField, id))
		if err != nil {
			return err
		}

		_, err = tx.Delete(ctx, &model.Responder{}, *repo.NewQuery().Where(repo.IDField, id))

		return err
	})
	if err != nil {
		writeRepoError(w, err)
		return
	}

	if !found {
		writeError(w, http.StatusNotFound, repo.ErrNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func bindSources(ctx context.Context, tx repo.Repo, responderID uuid.UUID, sourceIDs []uuid.UUID) error {
	for _, sourceID := range sourceIDs {
		err := tx.Create(ctx, &model.SourceResponder{
			ID:          uuid.New(),
			SourceID:    sourceID,
			ResponderID: responderID,
		})
		if err != nil {
			return err
		}
	}

	return nil
}
