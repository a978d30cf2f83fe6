package threat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"

	"github.com/medunigraz/idmsync/internal/directory"
	"github.com/medunigraz/idmsync/internal/errs"
	"github.com/medunigraz/idmsync/internal/log"
	"github.com/medunigraz/idmsync/internal/metrics"
	"github.com/medunigraz/idmsync/internal/model"
	"github.com/medunigraz/idmsync/internal/repo"
)

var (
	ErrSourceNotFound = errors.New("threat source not found or disabled")
	ErrListingSources = errors.New("failed listing threat sources")
)

const identityPlaceholder = "{identity}"

// Dispatcher is the responder fan-out surface the checker needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, source *model.ThreatSource, incident *model.Incident) (int, error)
}

// Checker confirms leaked credentials against the directory of a source's
// target and records incidents for every identity that still authenticates.
type Checker struct {
	repo       repo.Repo
	connect    directory.Connector
	dispatcher Dispatcher
	feeds      FeedFactory
	extractor  Extractor
	now        func() time.Time
}

type CheckerOption func(*Checker)

// WithFeedFactory replaces the leak feed construction, for tests.
func WithFeedFactory(feeds FeedFactory) CheckerOption {
	return func(c *Checker) {
		c.feeds = feeds
	}
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) CheckerOption {
	return func(c *Checker) {
		c.now = now
	}
}

func NewChecker(
	r repo.Repo,
	connect directory.Connector,
	dispatcher Dispatcher,
	opts ...CheckerOption,
) *Checker {
	c := &Checker{
		repo:       r,
		connect:    connect,
		dispatcher: dispatcher,
		feeds:      NewKaduuFeed,
		extractor:  NewRegexpExtractor(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CheckAll runs Check for every enabled source. Per-source failures are
// logged and do not stop the remaining sources.
func (c *Checker) CheckAll(ctx context.Context) error {
	var sources []*model.ThreatSource

	_, err := c.repo.List(ctx, model.ThreatSource{}, &sources,
		*repo.NewQuery().Where(repo.EnabledField, true).SetLimit(0))
	if err != nil {
		return errs.Wrap(ErrListingSources, err)
	}

	for _, source := range sources {
		err := c.Check(ctx, source.ID)
		if err != nil {
			log.Error(ctx, "Checking threat source", err, slog.String("source", source.Name))
		}
	}

	return nil
}

// Check fetches the leak records of one source that arrived since its last
// run, probes the directory with every credential candidate, and opens an
// incident per identity whose leaked password still binds.
//
//nolint:funlen
func (c *Checker) Check(ctx context.Context, sourceID uuid.UUID) error {
	source := &model.ThreatSource{}

	found, err := c.repo.First(ctx, source,
		*repo.NewQuery().
			Where(repo.IDField, sourceID).
			Where(repo.EnabledField, true).
			Preload("Target"))
	if err != nil {
		return errs.Wrap(repo.ErrGetResource, err)
	}

	if !found {
		return errs.Wrapf(ErrSourceNotFound, sourceID.String())
	}

	ctx = log.InjectSource(ctx, source.Name)
	ctx = log.InjectTarget(ctx, source.Target.URL)

	leaks, err := c.feeds(source).LeaksSince(ctx, source.Last)
	if err != nil {
		return err
	}

	metrics.LeaksFetched.Add(float64(len(leaks)))
	log.Debug(ctx, "Fetched leak records", slog.Int("count", len(leaks)))

	session, err := c.connect(ctx, &source.Target)
	if err != nil {
		return err
	}
	defer session.Close()

	confirmed := map[string][]Credential{}

	for _, leak := range leaks {
		for _, cred := range c.credentials(leak) {
			entries, err := session.SearchPaged(ctx, source.Target.UserBase,
				expandFilter(source.LDAPFilter, cred.Identity), []string{source.LDAPUid})
			if err != nil {
				return err
			}

			for _, entry := range entries {
				log.Debug(ctx, "Found matching user", slog.String("dn", entry.DN))

				ok, err := session.CheckBind(ctx, entry.DN, cred.Password)
				if err != nil {
					return err
				}

				if !ok {
					continue
				}

				uid := entry.First(source.LDAPUid)
				confirmed[uid] = append(confirmed[uid], cred)
			}
		}
	}

	now := c.now().UTC()

	_, err = c.repo.Patch(ctx, &model.ThreatSource{Last: &now},
		*repo.NewQuery().Where(repo.IDField, source.ID))
	if err != nil {
		return err
	}

	for uid, creds := range confirmed {
		err := c.recordIncidents(ctx, source, uid, creds)
		if err != nil {
			return err
		}
	}

	return nil
}

func (c *Checker) credentials(leak Leak) []Credential {
	if leak.Identity != "" && leak.Password != "" {
		return []Credential{{
			Identity:  leak.Identity,
			Password:  leak.Password,
			ForeignID: leak.ID,
			Details:   leak.Details,
		}}
	}

	return c.extractor.Extract(leak.Raw, leak.ID)
}

func (c *Checker) recordIncidents(
	ctx context.Context,
	source *model.ThreatSource,
	uid string,
	creds []Credential,
) error {
	for _, cred := range creds {
		incident := &model.Incident{}

		exists, err := c.repo.First(ctx, incident,
			*repo.NewQuery().
				Where(repo.SourceIDField, source.ID).
				Where(repo.UIDField, uid).
				Where(repo.ForeignIDField, cred.ForeignID))
		if err != nil {
			return err
		}

		if !exists {
			incident = &model.Incident{
				ID:        uuid.New(),
				SourceID:  source.ID,
				UID:       uid,
				ForeignID: cred.ForeignID,
				Details:   cred.Details,
				State:     model.IncidentStateOpen,
			}

			err = c.repo.Create(ctx, incident)
			if err != nil {
				return err
			}

			metrics.IncidentsConfirmed.Inc()
			log.Info(ctx, "Confirmed leaked credential",
				slog.String("uid", uid),
				slog.String("incident", incident.Reference()))
		}

		if incident.State != model.IncidentStateOpen {
			continue
		}

		delivered, err := c.dispatcher.Dispatch(ctx, source, incident)
		if err != nil {
			return err
		}

		if delivered == 0 {
			continue
		}

		err = incident.Notify(ctx)
		if err != nil {
			return err
		}

		_, err = c.repo.Patch(ctx, &model.Incident{State: incident.State},
			*repo.NewQuery().Where(repo.IDField, incident.ID))
		if err != nil {
			return err
		}
	}

	return nil
}

func expandFilter(template, identity string) string {
	return strings.ReplaceAll(template, identityPlaceholder, ldap.EscapeFilter(identity))
}
