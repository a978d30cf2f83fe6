package responder

import (
	"context"
	"errors"
	"log/slog"

	"github.com/medunigraz/idmsync/internal/log"
	"github.com/medunigraz/idmsync/internal/metrics"
	"github.com/medunigraz/idmsync/internal/model"
	"github.com/medunigraz/idmsync/internal/repo"
)

var ErrResponderNotConfigured = errors.New("responder kind is not configured")

type MailNotifier interface {
	Send(ctx context.Context, responder *model.MailResponder, incident *model.Incident, source *model.ThreatSource) error
}

type JiraNotifier interface {
	Create(ctx context.Context, responder *model.JiraResponder, incident *model.Incident, source *model.ThreatSource) error
}

// Dispatcher fans an incident out to the enabled responders bound to its
// source. A failing responder is logged and counted; the remaining ones
// still run.
type Dispatcher struct {
	repo repo.Repo
	mail MailNotifier
	jira JiraNotifier
}

func NewDispatcher(r repo.Repo, mail MailNotifier, jira JiraNotifier) *Dispatcher {
	return &Dispatcher{
		repo: r,
		mail: mail,
		jira: jira,
	}
}

// Dispatch returns the number of responders that delivered.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	source *model.ThreatSource,
	incident *model.Incident,
) (int, error) {
	var bindings []*model.SourceResponder

	_, err := d.repo.List(ctx, model.SourceResponder{}, &bindings,
		*repo.NewQuery().Where(repo.SourceIDField, source.ID).SetLimit(0))
	if err != nil {
		return 0, err
	}

	delivered := 0

	for _, binding := range bindings {
		responder := &model.Responder{}

		found, err := d.repo.First(ctx, responder,
			*repo.NewQuery().Where(repo.IDField, binding.ResponderID).Where(repo.EnabledField, true))
		if err != nil {
			return delivered, err
		}

		if !found {
			continue
		}

		err = d.respond(ctx, responder, incident, source)
		if err != nil {
			metrics.DispatchErrors.Inc()
			log.Error(ctx, "Responder failed", err,
				slog.String("responder", responder.Name),
				slog.String("incident", incident.Reference()))

			continue
		}

		delivered++
	}

	return delivered, nil
}

func (d *Dispatcher) respond(
	ctx context.Context,
	responder *model.Responder,
	incident *model.Incident,
	source *model.ThreatSource,
) error {
	switch responder.Kind {
	case model.ResponderKindMail:
		if d.mail == nil {
			return ErrResponderNotConfigured
		}

		mailResponder := &model.MailResponder{}

		found, err := d.repo.First(ctx, mailResponder,
			*repo.NewQuery().Where(repo.ResponderIDField, responder.ID).Preload("Recipients"))
		if err != nil {
			return err
		}

		if !found {
			return repo.ErrNotFound
		}

		return d.mail.Send(ctx, mailResponder, incident, source)
	case model.ResponderKindJira:
		if d.jira == nil {
			return ErrResponderNotConfigured
		}

		jiraResponder := &model.JiraResponder{}

		found, err := d.repo.First(ctx, jiraResponder,
			*repo.NewQuery().Where(repo.ResponderIDField, responder.ID))
		if err != nil {
			return err
		}

		if !found {
			return repo.ErrNotFound
		}

		return d.jira.Create(ctx, jiraResponder, incident, source)
	default:
		return ErrResponderNotConfigured
	}
}
