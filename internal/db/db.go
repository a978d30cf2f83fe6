package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/samber/oops"
	"gorm.io/gorm"

	"github.com/medunigraz/idmsync/internal/config"
	"github.com/medunigraz/idmsync/internal/errs"
	"github.com/medunigraz/idmsync/internal/log"
	"github.com/medunigraz/idmsync/internal/model"
)

var (
	ErrEmptyTargetURL       = errors.New("target URL cannot be empty")
	ErrEmptyTargetBindDN    = errors.New("target bind DN cannot be empty")
	ErrEmptyTargetGroupBase = errors.New("target group base cannot be empty")
	ErrEmptyTargetUserBase  = errors.New("target user base cannot be empty")
)

const DBLogDomain = "db"

// StartDB starts DB connection and provisions the initial LDAP target
func StartDB(
	ctx context.Context,
	cfg *config.Config,
) (*gorm.DB, error) {
	log.Info(ctx, "Starting DB connection")

	dbCon, err := StartDBConnection(ctx, cfg.Database, cfg.DatabaseReplicas)
	if err != nil {
		return nil, oops.In(DBLogDomain).Wrapf(err, "failed to initialize DB Connection")
	}

	err = addTargetFromConfig(ctx, dbCon, cfg.Provisioning.InitTarget)
	if err != nil {
		return nil, oops.In(DBLogDomain).Wrapf(err, "failed to add initial LDAP target")
	}

	return dbCon, nil
}

func validateInitTarget(initTarget config.InitTargetConfig) error {
	if initTarget.URL == "" {
		return ErrEmptyTargetURL
	}

	if initTarget.BindDN == "" {
		return ErrEmptyTargetBindDN
	}

	if initTarget.GroupBase == "" {
		return ErrEmptyTargetGroupBase
	}

	if initTarget.UserBase == "" {
		return ErrEmptyTargetUserBase
	}

	return nil
}

func addTargetFromConfig(
	ctx context.Context,
	db *gorm.DB,
	initTarget config.InitTargetConfig,
) error {
	if !initTarget.Enabled {
		log.Info(ctx, "No initial LDAP target will be provisioned")
		return nil
	}

	err := validateInitTarget(initTarget)
	if err != nil {
		return err
	}

	password, err := commoncfg.LoadValueFromSourceRef(initTarget.BindPassword)
	if err != nil {
		return errs.Wrapf(err, "failed to load initial target bind password")
	}

	target := &model.LDAPTarget{
		ID:           uuid.New(),
		URL:          initTarget.URL,
		BindDN:       initTarget.BindDN,
		BindPassword: string(password),
		GroupBase:    initTarget.GroupBase,
		UserBase:     initTarget.UserBase,
		Enabled:      true,
	}

	err = db.WithContext(ctx).Create(target).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Wrapf(err, "failed to save initial LDAP target")
	}

	return nil
}
