package tasks

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/medunigraz/idmsync/internal/config"
	"github.com/medunigraz/idmsync/internal/errs"
	"github.com/medunigraz/idmsync/internal/log"
	"github.com/medunigraz/idmsync/internal/sync"
)

// GroupSyncer is the sync surface the organizations task drives.
type GroupSyncer interface {
	SyncAll(ctx context.Context, opts sync.Options) error
	SyncTarget(ctx context.Context, targetID uuid.UUID, opts sync.Options) error
}

// OrganizationsPayload narrows an organizations run to one target or turns it
// into a dry run. An empty payload syncs all enabled targets.
type OrganizationsPayload struct {
	TargetID *uuid.UUID `json:"target_id,omitempty"`
	Language string     `json:"language,omitempty"`
	DryRun   bool       `json:"dry_run,omitempty"`
}

func (p OrganizationsPayload) ToBytes() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, errs.Wrap(ErrInvalidPayload, err)
	}

	return data, nil
}

type OrganizationsSyncer struct {
	syncer GroupSyncer
}

func NewOrganizationsSyncer(syncer GroupSyncer) *OrganizationsSyncer {
	return &OrganizationsSyncer{syncer: syncer}
}

func (o *OrganizationsSyncer) ProcessTask(ctx context.Context, task *asynq.Task) error {
	log.Info(ctx, "Starting Organizations Sync Task")

	payload, err := parseOrganizationsPayload(task.Payload())
	if err != nil {
		log.Error(ctx, "Parsing organizations payload", err)
		return nil
	}

	opts := sync.Options{
		Language: payload.Language,
		DryRun:   payload.DryRun,
	}

	if payload.TargetID != nil {
		err = o.syncer.SyncTarget(ctx, *payload.TargetID, opts)
	} else {
		err = o.syncer.SyncAll(ctx, opts)
	}

	if err != nil {
		log.Error(ctx, "Running Organizations Sync Task", err)
		return errs.Wrap(ErrRunningTask, err)
	}

	return nil
}

func (o *OrganizationsSyncer) TaskType() string {
	return config.TypeOrganizationsTask
}

func parseOrganizationsPayload(data []byte) (OrganizationsPayload, error) {
	payload := OrganizationsPayload{}
	if len(data) == 0 {
		return payload, nil
	}

	err := json.Unmarshal(data, &payload)
	if err != nil {
		return payload, errs.Wrap(ErrInvalidPayload, err)
	}

	return payload, nil
}
