package async

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medunigraz/idmsync/internal/config"
)

func TestEnqueueTask(t *testing.T) {
	t.Run("enqueues through the client", func(t *testing.T) {
		client := &MockClient{}
		app := &App{asynqClient: client}

		task := asynq.NewTask(config.TypeOrganizationsTask, nil)

		info, err := app.EnqueueTask(t.Context(), task)
		require.NoError(t, err)

		assert.Equal(t, "mock-task-id", info.ID)
		assert.Equal(t, 1, client.CallCount)
		assert.Equal(t, config.TypeOrganizationsTask, client.LastTask.Type())
	})

	t.Run("wraps client errors", func(t *testing.T) {
		client := &MockClient{Error: errors.New("queue unreachable")}
		app := &App{asynqClient: client}

		_, err := app.EnqueueTask(t.Context(), asynq.NewTask(config.TypeThreatCheckTask, nil))
		assert.ErrorIs(t, err, ErrEnqueueingTask)
	})
}

type noopHandler struct {
	taskType string
}

func (h *noopHandler) ProcessTask(_ context.Context, _ *asynq.Task) error {
	return nil
}

func (h *noopHandler) TaskType() string {
	return h.taskType
}

func TestRegisterTasks(t *testing.T) {
	app := &App{tasks: map[string]TaskHandler{}}

	app.RegisterTasks(t.Context(), []TaskHandler{
		&noopHandler{taskType: config.TypeOrganizationsTask},
		&noopHandler{taskType: config.TypeThreatCheckTask},
	})

	assert.Len(t, app.tasks, 2)
	assert.Contains(t, app.tasks, config.TypeOrganizationsTask)
	assert.Contains(t, app.tasks, config.TypeThreatCheckTask)
}

func TestBuildRedisClientOpt(t *testing.T) {
	t.Run("insecure secret with ACL auth", func(t *testing.T) {
		opts, err := BuildRedisClientOpt(config.Redis{
			Host: commoncfg.SourceRef{Source: commoncfg.EmbeddedSourceValue, Value: "localhost"},
			Port: "6379",
			SecretRef: commoncfg.SecretRef{
				Type: commoncfg.InsecureSecretType,
			},
			ACL: config.RedisACL{
				Username: commoncfg.SourceRef{Source: commoncfg.EmbeddedSourceValue, Value: "worker"},
				Password: commoncfg.SourceRef{Source: commoncfg.EmbeddedSourceValue, Value: "secret"},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, "localhost:6379", opts.Addr)
		assert.Equal(t, "worker", opts.Username)
		assert.Equal(t, "secret", opts.Password)
	})

	t.Run("unsupported secret type", func(t *testing.T) {
		_, err := BuildRedisClientOpt(config.Redis{
			Host: commoncfg.SourceRef{Source: commoncfg.EmbeddedSourceValue, Value: "localhost"},
			Port: "6379",
		})
		assert.ErrorIs(t, err, ErrSecretTypeQueue)
	})
}

func TestScheduledTaskConfigProvider(t *testing.T) {
	provider := &ScheduledTaskConfigProvider{Config: &config.Config{
		Scheduler: config.Scheduler{
			Tasks: []config.Task{
				{TaskType: config.TypeOrganizationsTask, Cronspec: "0 2 * * *", Retries: 3},
				{TaskType: config.TypeThreatCheckTask, Cronspec: "30 * * * *", Retries: 1},
			},
		},
	}}

	configs, err := provider.GetConfigs()
	require.NoError(t, err)
	require.Len(t, configs, 2)

	assert.Equal(t, "0 2 * * *", configs[0].Cronspec)
	assert.Equal(t, config.TypeOrganizationsTask, configs[0].Task.Type())
	assert.Equal(t, "30 * * * *", configs[1].Cronspec)
	assert.Equal(t, config.TypeThreatCheckTask, configs[1].Task.Type())
}
