package async

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/hibiken/asynq"
	"github.com/openkcm/common-sdk/pkg/commoncfg"

	"github.com/medunigraz/idmsync/internal/async/tasks"
	conf "github.com/medunigraz/idmsync/internal/config"
	"github.com/medunigraz/idmsync/internal/db"
	"github.com/medunigraz/idmsync/internal/directory"
	"github.com/medunigraz/idmsync/internal/errs"
	"github.com/medunigraz/idmsync/internal/log"
	"github.com/medunigraz/idmsync/internal/registry"
	"github.com/medunigraz/idmsync/internal/repo/sql"
	"github.com/medunigraz/idmsync/internal/responder"
	"github.com/medunigraz/idmsync/internal/sync"
	"github.com/medunigraz/idmsync/internal/threat"
)

const (
	// syncInterval is the interval at which the scheduled task manager will check for config changes.
	syncInterval = 10 * time.Second
)

var (
	ErrLoadingTaskQueueHost = errors.New("error loading task queue host")
	ErrMTLSRedisClientOpt   = errors.New("error redis client opt")
	ErrSecretTypeQueue      = errors.New("unsupported secret type for task queue")
	ErrACLPassword          = errors.New("could not load password for redis client")
	ErrACLUsername          = errors.New("could not load username for redis client")
)

// TaskHandler defines the interface for handling async tasks
type TaskHandler interface {
	ProcessTask(ctx context.Context, task *asynq.Task) error
	TaskType() string
}

// AsyncClient is the enqueue surface of the task queue.
type AsyncClient interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// App manages task processing, scheduling, and worker functionality
type App struct {
	asynqClient    AsyncClient
	asynqServer    *asynq.Server
	asynqServerCfg asynq.Config
	taskQueueCfg   asynq.RedisClientOpt
	tasks          map[string]TaskHandler
	cfg            *conf.Config
}

// New creates a new instance of App
func New(cfg *conf.Config) (*App, error) {
	redisOpts, err := BuildRedisClientOpt(cfg.Scheduler.TaskQueue)
	if err != nil {
		return nil, err
	}

	return &App{
		taskQueueCfg: redisOpts,
		asynqClient:  asynq.NewClient(redisOpts),
		tasks:        make(map[string]TaskHandler),
		cfg:          cfg,
	}, nil
}

// BuildRedisClientOpt resolves the task queue secret references into asynq
// redis client options.
func BuildRedisClientOpt(taskQueueCfg conf.Redis) (asynq.RedisClientOpt, error) {
	taskQueueHost, err := commoncfg.LoadValueFromSourceRef(taskQueueCfg.Host)
	if err != nil {
		return asynq.RedisClientOpt{}, errs.Wrap(ErrLoadingTaskQueueHost, err)
	}

	switch taskQueueCfg.SecretRef.Type {
	case commoncfg.InsecureSecretType:
		taskQueueUsername, taskQueuePassword, err := loadACLAuthFromConfig(taskQueueCfg)
		if err != nil {
			return asynq.RedisClientOpt{}, err
		}

		return asynq.RedisClientOpt{
			Addr:     net.JoinHostPort(string(taskQueueHost), taskQueueCfg.Port),
			Password: string(taskQueuePassword),
			Username: string(taskQueueUsername),
		}, nil
	case commoncfg.MTLSSecretType:
		redisOpts, err := buildMTLSRedisClientOpt(taskQueueCfg, taskQueueHost)
		if err != nil {
			return asynq.RedisClientOpt{}, errs.Wrap(ErrMTLSRedisClientOpt, err)
		}

		return redisOpts, nil
	default:
		return asynq.RedisClientOpt{}, ErrSecretTypeQueue
	}
}

// RegisterTasks registers multiple task handlers
func (a *App) RegisterTasks(ctx context.Context, handlers []TaskHandler) {
	for _, handler := range handlers {
		taskType := handler.TaskType()
		a.tasks[taskType] = handler
		log.Info(ctx, "Registered task", slog.String("Name", taskType))
	}
}

// RunWorker starts the worker process to process the tasks
func (a *App) RunWorker(ctx context.Context, cfg *conf.Config) error {
	log.Info(ctx, "Starting async worker")

	dbCon, err := db.StartDB(ctx, cfg)
	if err != nil {
		return errs.Wrap(db.ErrStartingDBCon, err)
	}

	r := sql.NewRepository(dbCon)

	connect := directory.NewConnector(directory.Options{
		PageSize:    cfg.LDAP.PageSize,
		DialTimeout: cfg.LDAP.DialTimeout,
		DialRetries: cfg.LDAP.DialRetries,
	})

	dispatcher, err := buildDispatcher(r, cfg)
	if err != nil {
		return err
	}

	registryClient, err := registry.NewClient(cfg.Registry)
	if err != nil {
		return err
	}

	log.Info(ctx, "Registering Tasks")
	a.RegisterTasks(ctx,
		[]TaskHandler{
			tasks.NewOrganizationsSyncer(sync.NewSyncer(r, connect, cfg)),
			tasks.NewThreatChecker(threat.NewChecker(r, connect, dispatcher)),
			tasks.NewRegistryRefresher(registry.NewRefresher(r, registryClient)),
		})

	a.asynqServer = asynq.NewServer(a.taskQueueCfg, a.asynqServerCfg)

	// Create a new mux and register all task handlers
	mux := asynq.NewServeMux()

	for taskName, handler := range a.tasks {
		mux.HandleFunc(taskName, handler.ProcessTask)
	}

	log.Info(ctx, "Starting worker server")

	err = a.asynqServer.Run(mux)
	if err != nil {
		return errs.Wrap(ErrStartingWorker, err)
	}

	return nil
}

// RunScheduler starts the cron job scheduling
// It starts the cron related tasks defined in the scheduler config
func (a *App) RunScheduler() error {
	provider := &ScheduledTaskConfigProvider{a.cfg}

	mgr, err := asynq.NewPeriodicTaskManager(
		asynq.PeriodicTaskManagerOpts{
			RedisConnOpt:               a.taskQueueCfg,
			PeriodicTaskConfigProvider: provider,
			SyncInterval:               syncInterval,
		})
	if err != nil {
		return errs.Wrap(ErrCreatingScheduler, err)
	}

	err = mgr.Run()
	if err != nil {
		return errs.Wrap(ErrRunningScheduler, err)
	}

	return nil
}

// EnqueueTask is used to run tasks
func (a *App) EnqueueTask(
	ctx context.Context,
	task *asynq.Task,
	opts ...asynq.Option,
) (*asynq.TaskInfo, error) {
	ctx = log.InjectTask(ctx, task)
	log.Debug(ctx, "Enqueuing task to be processed")

	info, err := a.asynqClient.Enqueue(task, opts...)
	if err != nil {
		return nil, errs.Wrap(ErrEnqueueingTask, err)
	}

	log.Debug(ctx, "Enqueued task")

	return info, nil
}

// Client exposes the enqueue surface, for the CLI.
func (a *App) Client() AsyncClient {
	return a.asynqClient
}

// Inspector builds an asynq inspector on the task queue.
func (a *App) Inspector() *asynq.Inspector {
	return asynq.NewInspector(a.taskQueueCfg)
}

// Shutdown gracefully shuts down the worker and scheduler
func (a *App) Shutdown(ctx context.Context) error {
	log.Info(ctx, "Starting async app shutdown")

	if a.asynqServer != nil {
		a.asynqServer.Shutdown()
	}

	if a.asynqClient != nil {
		err := a.asynqClient.Close()
		if err != nil {
			return errs.Wrap(ErrClientShutdown, err)
		}
	}

	log.Info(ctx, "Async app shutdown completed")

	return nil
}

// buildDispatcher wires the responders that are configured. A missing SMTP
// host or Jira base URL disables that responder kind.
func buildDispatcher(r *sql.ResourceRepository, cfg *conf.Config) (*responder.Dispatcher, error) {
	var mailSender responder.MailNotifier

	if cfg.SMTP.Host != "" {
		sender, err := responder.NewMailSender(cfg.SMTP)
		if err != nil {
			return nil, err
		}

		mailSender = sender
	}

	var jiraCreator responder.JiraNotifier

	if cfg.Jira.BaseURL != "" {
		creator, err := responder.NewJiraCreator(cfg.Jira)
		if err != nil {
			return nil, err
		}

		jiraCreator = creator
	}

	return responder.NewDispatcher(r, mailSender, jiraCreator), nil
}

func buildMTLSRedisClientOpt(
	taskQueueCfg conf.Redis,
	taskQueueHost []byte,
) (asynq.RedisClientOpt, error) {
	tlsConfig, err := commoncfg.LoadMTLSConfig(&taskQueueCfg.SecretRef.MTLS)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	clientOps := asynq.RedisClientOpt{
		Addr:      net.JoinHostPort(string(taskQueueHost), taskQueueCfg.Port),
		TLSConfig: tlsConfig,
	}

	if taskQueueCfg.ACL.Enabled {
		taskQueueUsername, taskQueuePassword, err := loadACLAuthFromConfig(taskQueueCfg)
		if err != nil {
			return asynq.RedisClientOpt{}, err
		}

		clientOps.Username = string(taskQueueUsername)
		clientOps.Password = string(taskQueuePassword)
	}

	return clientOps, nil
}

func loadACLAuthFromConfig(cfg conf.Redis) ([]byte, []byte, error) {
	username, err := commoncfg.LoadValueFromSourceRef(cfg.ACL.Username)
	if err != nil {
		return nil, nil, ErrACLUsername
	}

	password, err := commoncfg.LoadValueFromSourceRef(cfg.ACL.Password)
	if err != nil {
		return nil, nil, ErrACLPassword
	}

	return username, password, nil
}
