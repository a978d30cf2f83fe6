package sql

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"gorm.io/gorm"

	"github.com/medunigraz/idmsync/internal/errs"
	"github.com/medunigraz/idmsync/internal/log"
	"github.com/medunigraz/idmsync/internal/repo"
)

var ErrUnsupportedOrderDirective = errors.New("unsupported order directive")

// Field names come from typed constants, but conditions are assembled into
// SQL fragments, so reject anything that is not a plain column identifier.
var fieldNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_.]*$`)

// ResourceRepository represents the repository for managing Resource data.
type ResourceRepository struct {
	db *gorm.DB
}

// NewRepository creates and returns a new instance of ResourceRepository.
func NewRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{
		db: db,
	}
}

// Create stores a Resource.
func (r *ResourceRepository) Create(ctx context.Context, resource repo.Resource) error {
	err := r.db.WithContext(ctx).Create(resource).Error
	if err != nil {
		log.Error(ctx, "error creating resource", err)

		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.Wrap(repo.ErrUniqueConstraint, err)
		}

		return errs.Wrap(repo.ErrCreateResource, err)
	}

	return nil
}

// List retrieves records based on the provided query parameters and model.
// Result is an address of a slice of model pointers.
func (r *ResourceRepository) List(
	ctx context.Context,
	resource repo.Resource,
	result any,
	query repo.Query,
) (int, error) {
	var count int64

	db := r.db.WithContext(ctx).Model(resource)

	db, err := applyConditions(db, query)
	if err != nil {
		return 0, err
	}

	db = db.Count(&count)
	if db.Error != nil {
		return 0, errs.Wrap(repo.ErrGetResource, db.Error)
	}

	for _, order := range query.Orders {
		switch order.Direction {
		case repo.Desc:
			db = db.Order(string(order.Field) + " desc")
		case repo.Asc:
			db = db.Order(string(order.Field) + " asc")
		default:
			return 0, ErrUnsupportedOrderDirective
		}
	}

	for _, preload := range query.Preloads {
		db = db.Preload(preload)
	}

	res := applyPagination(db, query).Find(result)
	if res.Error != nil {
		return 0, errs.Wrap(repo.ErrGetResource, res.Error)
	}

	return int(count), nil
}

// First fills resource with the first match.
//
// It returns false without an error when nothing matched.
func (r *ResourceRepository) First(
	ctx context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	db := r.db.WithContext(ctx)

	db, err := applyConditions(db, query)
	if err != nil {
		return false, err
	}

	for _, preload := range query.Preloads {
		db = db.Preload(preload)
	}

	err = db.First(resource).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}

	if err != nil {
		return false, errs.Wrap(repo.ErrGetResource, err)
	}

	return true, nil
}

// Patch updates the matched records with the non-zero fields of resource,
// or all fields when the query sets UpdateAll.
//
// It returns true if at least one record was updated.
func (r *ResourceRepository) Patch(
	ctx context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	db := r.db.WithContext(ctx).Model(resource)

	db, err := applyConditions(db, query)
	if err != nil {
		return false, err
	}

	if query.UpdateAll {
		db = db.Select("*").Omit("id", "created_at")
	}

	res := db.Updates(resource)
	if res.Error != nil {
		log.Error(ctx, "error updating resource", res.Error)
		return false, errs.Wrap(repo.ErrUpdateResource, res.Error)
	}

	return res.RowsAffected > 0, nil
}

// Set upserts the resource by primary key.
func (r *ResourceRepository) Set(ctx context.Context, resource repo.Resource) error {
	err := r.db.WithContext(ctx).Save(resource).Error
	if err != nil {
		log.Error(ctx, "error saving resource", err)
		return errs.Wrap(repo.ErrUpdateResource, err)
	}

	return nil
}

// Delete removes the matched records, or the resource itself by primary key
// when the query has no conditions.
//
// It returns true if a record was deleted.
func (r *ResourceRepository) Delete(
	ctx context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	db := r.db.WithContext(ctx)

	db, err := applyConditions(db, query)
	if err != nil {
		return false, err
	}

	res := db.Delete(resource)
	if res.Error != nil {
		log.Error(ctx, "error deleting resource", res.Error)
		return false, errs.Wrap(repo.ErrDeleteResource, res.Error)
	}

	return res.RowsAffected > 0, nil
}

// Transaction runs txFunc against a repository bound to one transaction.
func (r *ResourceRepository) Transaction(ctx context.Context, txFunc repo.TransactionFunc) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return txFunc(ctx, NewRepository(tx))
	})
	if err != nil {
		return errs.Wrap(repo.ErrTransaction, err)
	}

	return nil
}

func applyConditions(db *gorm.DB, query repo.Query) (*gorm.DB, error) {
	for _, cond := range query.Conds {
		if !fieldNamePattern.MatchString(string(cond.Field)) {
			return nil, errs.Wrapf(repo.ErrInvalidFieldName, string(cond.Field))
		}

		op := cond.Op
		if op == "" {
			op = repo.Equal
		}

		switch op {
		case repo.In:
			db = db.Where(fmt.Sprintf("%s IN ?", cond.Field), cond.Value)
		case repo.Equal, repo.NotEqual, repo.GreaterThan, repo.LessThan:
			db = db.Where(fmt.Sprintf("%s %s ?", cond.Field, op), cond.Value)
		default:
			return nil, errs.Wrapf(repo.ErrInvalidFieldName, "unsupported operator "+string(op))
		}
	}

	return db, nil
}

func applyPagination(db *gorm.DB, query repo.Query) *gorm.DB {
	if query.Limit > 0 {
		db = db.Limit(query.Limit)
	}

	if query.Offset > 0 {
		db = db.Offset(query.Offset)
	}

	return db
}
