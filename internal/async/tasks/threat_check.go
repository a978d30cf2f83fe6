package tasks

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/medunigraz/idmsync/internal/config"
	"github.com/medunigraz/idmsync/internal/errs"
	"github.com/medunigraz/idmsync/internal/log"
)

// SourceChecker is the threat surface the check task drives.
type SourceChecker interface {
	CheckAll(ctx context.Context) error
	Check(ctx context.Context, sourceID uuid.UUID) error
}

// ThreatCheckPayload narrows a check run to one source. An empty payload
// checks all enabled sources.
type ThreatCheckPayload struct {
	SourceID *uuid.UUID `json:"source_id,omitempty"`
}

func (p ThreatCheckPayload) ToBytes() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, errs.Wrap(ErrInvalidPayload, err)
	}

	return data, nil
}

type ThreatChecker struct {
	checker SourceChecker
}

func NewThreatChecker(checker SourceChecker) *ThreatChecker {
	return &ThreatChecker{checker: checker}
}

func (t *ThreatChecker) ProcessTask(ctx context.Context, task *asynq.Task) error {
	log.Info(ctx, "Starting Threat Check Task")

	payload, err := parseThreatCheckPayload(task.Payload())
	if err != nil {
		log.Error(ctx, "Parsing threat check payload", err)
		return nil
	}

	if payload.SourceID != nil {
		err = t.checker.Check(ctx, *payload.SourceID)
	} else {
		err = t.checker.CheckAll(ctx)
	}

	if err != nil {
		log.Error(ctx, "Running Threat Check Task", err)
		return errs.Wrap(ErrRunningTask, err)
	}

	return nil
}

func (t *ThreatChecker) TaskType() string {
	return config.TypeThreatCheckTask
}

func parseThreatCheckPayload(data []byte) (ThreatCheckPayload, error) {
	payload := ThreatCheckPayload{}
	if len(data) == 0 {
		return payload, nil
	}

	err := json.Unmarshal(data, &payload)
	if err != nil {
		return payload, errs.Wrap(ErrInvalidPayload, err)
	}

	return payload, nil
}
