package registry

import (
	"context"
	"log/slog"

	"github.com/medunigraz/idmsync/internal/errs"
	"github.com/medunigraz/idmsync/internal/log"
	"github.com/medunigraz/idmsync/internal/model"
	"github.com/medunigraz/idmsync/internal/repo"
)

// Lister is the registry read surface the refresher needs.
type Lister interface {
	Organizations(ctx context.Context) ([]Organization, error)
}

// Refresher mirrors the upstream registry into the local organization,
// person and membership tables. Organizations that disappeared upstream are
// pruned together with their membership rows.
type Refresher struct {
	repo   repo.Repo
	client Lister
}

func NewRefresher(r repo.Repo, client Lister) *Refresher {
	return &Refresher{
		repo:   r,
		client: client,
	}
}

func (r *Refresher) Refresh(ctx context.Context) error {
	upstream, err := r.client.Organizations(ctx)
	if err != nil {
		return err
	}

	seen := make(map[int64]struct{}, len(upstream))

	err = r.repo.Transaction(ctx, func(ctx context.Context, tx repo.Repo) error {
		for _, org := range upstream {
			seen[org.ID] = struct{}{}

			err := mirror(ctx, tx, org)
			if err != nil {
				return err
			}
		}

		return r.prune(ctx, tx, seen)
	})
	if err != nil {
		return errs.Wrap(repo.ErrTransaction, err)
	}

	log.Info(ctx, "Refreshed organization registry", slog.Int("organizations", len(upstream)))

	return nil
}

// mirror upserts the organization and its persons, then rewrites the
// membership rows to exactly the upstream set. Saving the Persons association
// through gorm would conflict-skip existing person rows and never remove
// memberships of people who left, so both are written explicitly.
func mirror(ctx context.Context, tx repo.Repo, org Organization) error {
	err := tx.Set(ctx, &model.Organization{ID: org.ID, Names: org.Names})
	if err != nil {
		return err
	}

	desired := make(map[int64]struct{}, len(org.Persons))

	for _, p := range org.Persons {
		desired[p.ID] = struct{}{}

		err := tx.Set(ctx, &model.Person{
			ID:       p.ID,
			Username: p.Username,
			Employed: p.Employed,
		})
		if err != nil {
			return err
		}
	}

	var current []*model.OrgMembership

	_, err = tx.List(ctx, model.OrgMembership{}, &current,
		*repo.NewQuery().Where(repo.OrgIDField, org.ID).SetLimit(0))
	if err != nil {
		return err
	}

	for _, m := range current {
		if _, ok := desired[m.PersonID]; ok {
			delete(desired, m.PersonID)
			continue
		}

		_, err := tx.Delete(ctx, &model.OrgMembership{}, *repo.NewQuery().
			Where(repo.OrgIDField, org.ID).
			Where(repo.PersonIDField, m.PersonID))
		if err != nil {
			return err
		}
	}

	for personID := range desired {
		err := tx.Create(ctx, &model.OrgMembership{
			OrganizationID: org.ID,
			PersonID:       personID,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

const pruneBatchSize = 500

func (r *Refresher) prune(ctx context.Context, tx repo.Repo, seen map[int64]struct{}) error {
	var stale []int64

	err := repo.ProcessInBatch(ctx, tx, repo.NewQuery(), pruneBatchSize,
		func(orgs []*model.Organization) error {
			for _, org := range orgs {
				if _, ok := seen[org.ID]; !ok {
					stale = append(stale, org.ID)
				}
			}

			return nil
		})
	if err != nil {
		return err
	}

	for _, id := range stale {
		log.Info(ctx, "Pruning organization gone upstream", slog.Int64("id", id))

		_, err := tx.Delete(ctx, &model.OrgMembership{}, *repo.NewQuery().Where(repo.OrgIDField, id))
		if err != nil {
			return err
		}

		_, err = tx.Delete(ctx, &model.Organization{ID: id}, *repo.NewQuery().Where(repo.IDField, id))
		if err != nil {
			return err
		}
	}

	return nil
}
