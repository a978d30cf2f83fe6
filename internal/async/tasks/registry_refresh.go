package tasks

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/medunigraz/idmsync/internal/config"
	"github.com/medunigraz/idmsync/internal/errs"
	"github.com/medunigraz/idmsync/internal/log"
)

// OrganizationRefresher is the registry surface the refresh task drives.
type OrganizationRefresher interface {
	Refresh(ctx context.Context) error
}

type RegistryRefresher struct {
	refresher OrganizationRefresher
}

func NewRegistryRefresher(refresher OrganizationRefresher) *RegistryRefresher {
	return &RegistryRefresher{refresher: refresher}
}

func (r *RegistryRefresher) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	log.Info(ctx, "Starting Registry Refresh Task")

	err := r.refresher.Refresh(ctx)
	if err != nil {
		log.Error(ctx, "Running Registry Refresh Task", err)
		return errs.Wrap(ErrRunningTask, err)
	}

	return nil
}

func (r *RegistryRefresher) TaskType() string {
	return config.TypeRegistryRefreshTask
}
