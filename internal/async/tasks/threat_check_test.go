package tasks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medunigraz/idmsync/internal/async/tasks"
	"github.com/medunigraz/idmsync/internal/config"
)

type stubSourceChecker struct {
	allCalls    int
	sourceCalls []uuid.UUID
	err         error
}

func (s *stubSourceChecker) CheckAll(_ context.Context) error {
	s.allCalls++
	return s.err
}

func (s *stubSourceChecker) Check(_ context.Context, sourceID uuid.UUID) error {
	s.sourceCalls = append(s.sourceCalls, sourceID)
	return s.err
}

func TestThreatCheckerProcessTask(t *testing.T) {
	t.Run("empty payload checks all sources", func(t *testing.T) {
		checker := &stubSourceChecker{}
		handler := tasks.NewThreatChecker(checker)

		require.Equal(t, config.TypeThreatCheckTask, handler.TaskType())

		err := handler.ProcessTask(t.Context(), asynq.NewTask(config.TypeThreatCheckTask, nil))
		require.NoError(t, err)

		assert.Equal(t, 1, checker.allCalls)
		assert.Empty(t, checker.sourceCalls)
	})

	t.Run("source payload narrows the run", func(t *testing.T) {
		checker := &stubSourceChecker{}
		handler := tasks.NewThreatChecker(checker)

		sourceID := uuid.New()
		data, err := tasks.ThreatCheckPayload{SourceID: &sourceID}.ToBytes()
		require.NoError(t, err)

		err = handler.ProcessTask(t.Context(), asynq.NewTask(config.TypeThreatCheckTask, data))
		require.NoError(t, err)

		assert.Zero(t, checker.allCalls)
		assert.Equal(t, []uuid.UUID{sourceID}, checker.sourceCalls)
	})

	t.Run("check errors are retried", func(t *testing.T) {
		checker := &stubSourceChecker{err: errors.New("feed down")}
		handler := tasks.NewThreatChecker(checker)

		err := handler.ProcessTask(t.Context(), asynq.NewTask(config.TypeThreatCheckTask, nil))
		assert.ErrorIs(t, err, tasks.ErrRunningTask)
	})
}

type stubRefresher struct {
	calls int
	err   error
}

func (s *stubRefresher) Refresh(_ context.Context) error {
	s.calls++
	return s.err
}

func TestRegistryRefresherProcessTask(t *testing.T) {
	refresher := &stubRefresher{}
	handler := tasks.NewRegistryRefresher(refresher)

	require.Equal(t, config.TypeRegistryRefreshTask, handler.TaskType())

	err := handler.ProcessTask(t.Context(), asynq.NewTask(config.TypeRegistryRefreshTask, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, refresher.calls)

	refresher.err = errors.New("registry down")

	err = handler.ProcessTask(t.Context(), asynq.NewTask(config.TypeRegistryRefreshTask, nil))
	assert.ErrorIs(t, err, tasks.ErrRunningTask)
}
