package responder

import (
	"context"
	"errors"

	jira "github.com/andygrunwald/go-jira"
	"github.com/openkcm/common-sdk/pkg/commoncfg"

	"github.com/medunigraz/idmsync/internal/config"
	"github.com/medunigraz/idmsync/internal/errs"
	"github.com/medunigraz/idmsync/internal/model"
)

var (
	ErrLoadingJira  = errors.New("error loading Jira credentials")
	ErrCreatingJira = errors.New("failed to create Jira client")
	ErrCreateIssue  = errors.New("failed to create Jira issue")
)

// JiraCreator opens a tracking issue per confirmed incident.
type JiraCreator struct {
	client *jira.Client
}

func NewJiraCreator(cfg config.Jira) (*JiraCreator, error) {
	username, err := commoncfg.LoadValueFromSourceRef(cfg.Username)
	if err != nil {
		return nil, errs.Wrap(ErrLoadingJira, err)
	}

	token, err := commoncfg.LoadValueFromSourceRef(cfg.Token)
	if err != nil {
		return nil, errs.Wrap(ErrLoadingJira, err)
	}

	transport := jira.BasicAuthTransport{
		Username: string(username),
		Password: string(token),
	}

	client, err := jira.NewClient(transport.Client(), cfg.BaseURL)
	if err != nil {
		return nil, errs.Wrap(ErrCreatingJira, err)
	}

	return &JiraCreator{client: client}, nil
}

func (j *JiraCreator) Create(
	ctx context.Context,
	responder *model.JiraResponder,
	incident *model.Incident,
	source *model.ThreatSource,
) error {
	issue := &jira.Issue{
		Fields: &jira.IssueFields{
			Project:     jira.Project{Key: responder.Project},
			Type:        jira.IssueType{Name: responder.IssueType},
			Summary:     summary(incident, source),
			Description: description(incident, source),
		},
	}

	_, _, err := j.client.Issue.CreateWithContext(ctx, issue)
	if err != nil {
		return errs.Wrap(ErrCreateIssue, err)
	}

	return nil
}
