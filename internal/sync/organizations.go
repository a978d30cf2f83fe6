package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/medunigraz/idmsync/internal/config"
	"github.com/medunigraz/idmsync/internal/directory"
	"github.com/medunigraz/idmsync/internal/errs"
	"github.com/medunigraz/idmsync/internal/log"
	"github.com/medunigraz/idmsync/internal/metrics"
	"github.com/medunigraz/idmsync/internal/model"
	"github.com/medunigraz/idmsync/internal/repo"
)

var (
	ErrTargetNotFound = errors.New("LDAP target not found or disabled")
	ErrListingTargets = errors.New("failed listing LDAP targets")
	ErrListingOrgs    = errors.New("failed listing organizations")
)

const (
	memberAttr      = "member"
	descriptionAttr = "description"
	placeholder     = "..."
)

// Options control one sync run. Language selects the organization name
// variant used for group naming; DryRun computes and logs every mutation
// without writing to the directory.
type Options struct {
	Language string
	DryRun   bool
}

// Syncer reconciles organization groups into LDAP targets.
type Syncer struct {
	repo            repo.Repo
	connect         directory.Connector
	groupNameLength int
}

func NewSyncer(r repo.Repo, connect directory.Connector, cfg *config.Config) *Syncer {
	return &Syncer{
		repo:            r,
		connect:         connect,
		groupNameLength: cfg.LDAP.GroupNameLength,
	}
}

// SyncAll runs SyncTarget for every enabled target. Per-target failures are
// logged and do not stop the remaining targets.
func (s *Syncer) SyncAll(ctx context.Context, opts Options) error {
	var targets []*model.LDAPTarget

	_, err := s.repo.List(ctx, model.LDAPTarget{}, &targets,
		*repo.NewQuery().Where(repo.EnabledField, true).SetLimit(0))
	if err != nil {
		return errs.Wrap(ErrListingTargets, err)
	}

	for _, target := range targets {
		err := s.SyncTarget(ctx, target.ID, opts)
		if err != nil {
			log.Error(ctx, "Synchronizing target", err, slog.String("target", target.URL))
		}
	}

	return nil
}

// SyncTarget synchronizes the organizational groups of one target:
// groups are named "<orgID>-<slug>", members are the DNs of employed
// organization members present in the directory, and groups under the group
// base without a matching organization are removed.
//
//nolint:funlen,cyclop
func (s *Syncer) SyncTarget(ctx context.Context, targetID uuid.UUID, opts Options) error {
	start := time.Now()
	defer func() {
		metrics.SyncDuration.Observe(time.Since(start).Seconds())
	}()

	target := &model.LDAPTarget{}

	found, err := s.repo.First(ctx, target,
		*repo.NewQuery().Where(repo.IDField, targetID).Where(repo.EnabledField, true))
	if err != nil {
		return errs.Wrap(repo.ErrGetResource, err)
	}

	if !found {
		return errs.Wrapf(ErrTargetNotFound, targetID.String())
	}

	ctx = log.InjectTarget(ctx, target.URL)
	log.Info(ctx, "Synchronizing organizational groups")

	session, err := s.connect(ctx, target)
	if err != nil {
		return err
	}
	defer session.Close()

	groups, err := s.existingGroups(ctx, session, target)
	if err != nil {
		return err
	}

	users, err := s.knownUsers(ctx, session, target)
	if err != nil {
		return err
	}

	var orgs []*model.Organization

	_, err = s.repo.List(ctx, model.Organization{}, &orgs,
		*repo.NewQuery().Preload("Persons").SetLimit(0))
	if err != nil {
		return errs.Wrap(ErrListingOrgs, err)
	}

	log.Debug(ctx, "Processing organizations", slog.Int("count", len(orgs)))

	for _, org := range orgs {
		if len(org.Persons) == 0 {
			continue
		}

		cn := GroupCN(org.ID, org.Name(opts.Language), s.groupNameLength)
		dn := fmt.Sprintf("CN=%s,%s", cn, target.GroupBase)

		actual := map[string]struct{}{}

		for _, p := range org.Persons {
			if !p.Employed {
				continue
			}

			if userDN, ok := users[p.Username]; ok {
				actual[userDN] = struct{}{}
			}
		}

		present, exists := groups[dn]
		if exists {
			delete(groups, dn)
			s.reconcileMembers(ctx, session, dn, present, actual, opts.DryRun)

			continue
		}

		s.createGroup(ctx, session, org, cn, dn, actual, opts.DryRun)
	}

	for dn := range groups {
		log.Info(ctx, "Removing obsolete group", slog.String("dn", dn))

		if opts.DryRun {
			continue
		}

		err := session.Delete(ctx, dn)
		if err != nil {
			metrics.SyncFailures.Inc()
			log.Error(ctx, "Could not delete group", err, slog.String("dn", dn))

			continue
		}

		metrics.GroupsDeleted.Inc()
	}

	return nil
}

func (s *Syncer) existingGroups(
	ctx context.Context,
	session directory.Session,
	target *model.LDAPTarget,
) (map[string]map[string]struct{}, error) {
	log.Debug(ctx, "Searching for existing groups")

	entries, err := session.SearchPaged(ctx, target.GroupBase,
		"(objectClass=group)", []string{memberAttr, descriptionAttr})
	if err != nil {
		return nil, err
	}

	groups := make(map[string]map[string]struct{}, len(entries))

	for _, e := range entries {
		members := make(map[string]struct{}, len(e.Attributes[memberAttr]))
		for _, m := range e.Attributes[memberAttr] {
			members[m] = struct{}{}
		}

		groups[e.DN] = members
	}

	return groups, nil
}

func (s *Syncer) knownUsers(
	ctx context.Context,
	session directory.Session,
	target *model.LDAPTarget,
) (map[string]string, error) {
	entries, err := session.SearchPaged(ctx, target.UserBase,
		"(objectClass=person)", []string{"cn"})
	if err != nil {
		return nil, err
	}

	users := make(map[string]string, len(entries))
	for _, e := range entries {
		users[e.First("cn")] = e.DN
	}

	return users, nil
}

func (s *Syncer) reconcileMembers(
	ctx context.Context,
	session directory.Session,
	dn string,
	present, actual map[string]struct{},
	dryRun bool,
) {
	remove := difference(present, actual)
	if len(remove) > 0 {
		log.Info(ctx, "Removing members", slog.String("dn", dn), slog.Int("count", len(remove)))
		log.Debug(ctx, "Removed members", slog.Any("members", remove))

		if !dryRun {
			err := session.ModifyDelete(ctx, dn, memberAttr, remove)
			if err != nil {
				metrics.SyncFailures.Inc()
				log.Error(ctx, "Could not modify group", err, slog.String("dn", dn))
			} else {
				metrics.MembersRemoved.Add(float64(len(remove)))
			}
		}
	}

	add := difference(actual, present)
	if len(add) > 0 {
		log.Info(ctx, "Adding members", slog.String("dn", dn), slog.Int("count", len(add)))
		log.Debug(ctx, "New members", slog.Any("members", add))

		if !dryRun {
			err := session.ModifyAdd(ctx, dn, memberAttr, add)
			if err != nil {
				metrics.SyncFailures.Inc()
				log.Error(ctx, "Could not modify group", err, slog.String("dn", dn))
			} else {
				metrics.MembersAdded.Add(float64(len(add)))
			}
		}
	}
}

func (s *Syncer) createGroup(
	ctx context.Context,
	session directory.Session,
	org *model.Organization,
	cn, dn string,
	actual map[string]struct{},
	dryRun bool,
) {
	log.Info(ctx, "Creating new group", slog.String("dn", dn))
	log.Debug(ctx, "New members", slog.Any("members", keys(actual)))

	if dryRun {
		return
	}

	err := session.Add(ctx, dn, map[string][]string{
		"objectClass":   {"top", "group"},
		"cn":            {cn},
		memberAttr:      keys(actual),
		"extensionName": {strconv.FormatInt(org.ID, 10)},
		descriptionAttr: org.AllNames(),
	})
	if err != nil {
		metrics.SyncFailures.Inc()
		log.Error(ctx, "Could not create group", err, slog.String("dn", dn))

		return
	}

	metrics.GroupsCreated.Inc()
}

// GroupCN builds the group common name "<orgID>-<slug>", shortening the slug
// at hyphen boundaries so the whole CN fits maxLen.
func GroupCN(orgID int64, name string, maxLen int) string {
	prefix := strconv.FormatInt(orgID, 10) + "-"

	return prefix + ldap.EscapeFilter(shortenSlug(slug.Make(name), maxLen-len(prefix)))
}

func shortenSlug(s string, width int) string {
	if len(s) <= width {
		return s
	}

	budget := width - len(placeholder)
	if budget <= 0 {
		return s[:width]
	}

	cut := s[:budget]
	if i := strings.LastIndexByte(cut, '-'); i > 0 {
		cut = cut[:i]
	}

	return cut + placeholder
}

func difference(a, b map[string]struct{}) []string {
	var diff []string

	for k := range a {
		if _, ok := b[k]; !ok {
			diff = append(diff, k)
		}
	}

	return diff
}

func keys(m map[string]struct{}) []string {
	result := make([]string, 0, len(m))
	for k := range m {
		result = append(result, k)
	}

	return result
}
